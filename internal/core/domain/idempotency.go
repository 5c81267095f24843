package domain

import (
	"time"
)

// IdempotencyRecord captures the response of a completed mutating
// request, keyed by the caller-supplied reference. Written in the same
// store transaction as the effects it represents.
type IdempotencyRecord struct {
	Reference string    `json:"reference"`
	Status    int       `json:"status"`
	Body      []byte    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Live reports whether the record is still within its retention window.
func (r *IdempotencyRecord) Live(now time.Time) bool {
	return r.ExpiresAt.After(now)
}
