package domain

import "time"

const DefaultTokenKey = "panther-audio-access-token"

// CachedToken is the opaque access token kept in the durable store. StoredAt is
// informational; no expiry policy is applied to it.
type CachedToken struct {
	Value    string    `json:"value"`
	StoredAt time.Time `json:"stored_at,omitempty"`
}

func (t CachedToken) IsZero() bool {
	return t.Value == ""
}

func StoredAtKey(tokenKey string) string {
	return tokenKey + ":stored_at"
}
