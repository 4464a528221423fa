// Package common contains shared constants and sentinel errors used across
// WeCare components.
package common

// AuthorizationHeaderName carries the bearer token on outbound API requests.
const AuthorizationHeaderName = "Authorization"

// OfflineHeaderName marks a response synthesized locally while the network
// was unreachable.
const OfflineHeaderName = "X-Wecare-Offline"

// BatchIDHeaderName tags a sync submission so both sides can correlate logs.
const BatchIDHeaderName = "X-Wecare-Batch-Id"
