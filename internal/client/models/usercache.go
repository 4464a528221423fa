package models

import (
	"encoding/json"
	"time"
)

// KeyedCacheEntry is a generic blob stored under a unique key, such as the
// signed-in user's profile.
type KeyedCacheEntry struct {
	Key       string          `json:"key"`
	Data      json.RawMessage `json:"data"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Profile is the signed-in user as returned by the remote service.
type Profile struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	FullName   string `json:"full_name,omitempty"`
	Phone      string `json:"phone,omitempty"`
	BloodGroup string `json:"blood_group,omitempty"`
	IsAdmin    bool   `json:"is_admin"`
}
