// Package models defines the device-side data models: locally created
// consultations awaiting sync, triage results, reference entities mirrored
// from the remote service, and keyed cache entries.
package models
