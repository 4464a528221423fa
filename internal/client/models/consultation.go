package models

import "time"

// Consultation is a locally created record. ID is assigned by the local store
// and is never sent to the remote service, which assigns its own identity.
type Consultation struct {
	ID         int64        `json:"id"`
	Symptoms   string       `json:"symptoms"`
	UseHistory bool         `json:"use_history"`
	Result     TriageResult `json:"result"`
	CreatedAt  time.Time    `json:"created_at"`

	// Synced flips false -> true exactly once, after the remote acknowledged it.
	Synced bool `json:"synced"`
}

// Submission is what the user hands in. Media is optional; when present it is
// uploaded only through the online processing path.
type Submission struct {
	Symptoms   string
	UseHistory bool
	MediaName  string
	Media      []byte
}

func (s Submission) HasMedia() bool {
	return len(s.Media) > 0
}

// SyncItem is the wire shape of one consultation inside a sync batch: domain
// fields only, without the local id or the synced flag.
type SyncItem struct {
	Symptoms       string    `json:"symptoms"`
	Response       string    `json:"ai_response"`
	Priority       Priority  `json:"priority"`
	FirstAid       string    `json:"first_aid_suggestions"`
	Specialization string    `json:"recommended_specialization"`
	CreatedAt      time.Time `json:"created_at"`
	UseHistory     bool      `json:"use_history"`
}

func (c *Consultation) SyncItem() SyncItem {
	return SyncItem{
		Symptoms:       c.Symptoms,
		Response:       c.Result.Response,
		Priority:       c.Result.Priority,
		FirstAid:       c.Result.FirstAid,
		Specialization: c.Result.Specialization,
		CreatedAt:      c.CreatedAt,
		UseHistory:     c.UseHistory,
	}
}
