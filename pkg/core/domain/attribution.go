package domain

import "time"

// Scope controls whether an attributed discount covers the whole catalog or
// only the product the referral link landed on.
type Scope string

const (
	ScopeSitewide Scope = "sitewide"
	ScopeLanding  Scope = "landing"
)

// ParseScope maps a config string onto a Scope, defaulting to sitewide for
// anything it does not recognize.
func ParseScope(s string) Scope {
	if Scope(s) == ScopeLanding {
		return ScopeLanding
	}
	return ScopeSitewide
}

// ReferralAttribution ties a visitor to the referral link that brought them
// here. It is minted once per capture and replaced wholesale on refresh,
// never mutated in place.
type ReferralAttribution struct {
	Token          string `json:"t"`
	LinkID         string `json:"l,omitempty"`
	Scope          Scope  `json:"s,omitempty"`
	LandingProduct string `json:"p,omitempty"`
	Consent        bool   `json:"c,omitempty"`
	IssuedAt       int64  `json:"ts"`
}

// Expired reports whether the attribution fell outside the TTL window.
func (a *ReferralAttribution) Expired(ttl time.Duration, now time.Time) bool {
	if a == nil || a.IssuedAt <= 0 {
		return true
	}
	return now.Sub(time.Unix(a.IssuedAt, 0)) > ttl
}

// ReferralVisit is one recorded capture of a referral parameter, kept for
// the merchant dashboard. IP is stored hashed.
type ReferralVisit struct {
	ID          int64     `json:"id"`
	Token       string    `json:"token"`
	LinkID      string    `json:"link_id"`
	LandingSlug string    `json:"landing_slug"`
	UserAgent   string    `json:"user_agent"`
	IPHash      string    `json:"ip_hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// TokenStats aggregates captures per referral token for the dashboard.
type TokenStats struct {
	Token       string `json:"token"`
	TotalVisits int64  `json:"total_visits"`
}
