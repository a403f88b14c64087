package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/cabolabs/cabo-shop/pkg/core/domain"
)

// AttributionService owns the signed referral cookie format and the
// eligibility decision. It is pure computation over cookie values; the HTTP
// adapter handles the actual cookie transport.
type AttributionService struct {
	secret         []byte
	scope          domain.Scope
	ttl            time.Duration
	requireConsent bool
}

func NewAttributionService(secret string, scope domain.Scope, ttlDays int, requireConsent bool) *AttributionService {
	if ttlDays <= 0 {
		ttlDays = 14
	}
	return &AttributionService{
		secret:         []byte(secret),
		scope:          scope,
		ttl:            time.Duration(ttlDays) * 24 * time.Hour,
		requireConsent: requireConsent,
	}
}

func (s *AttributionService) Scope() domain.Scope { return s.scope }
func (s *AttributionService) TTL() time.Duration  { return s.ttl }

// Encode serializes the attribution to compact JSON and appends a hex
// HMAC-SHA256 over that exact serialization:
//
//	base64(json) + "." + hex(hmac)
func (s *AttributionService) Encode(a domain.ReferralAttribution) (string, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	sig := hex.EncodeToString(mac.Sum(nil))
	return base64.StdEncoding.EncodeToString(payload) + "." + sig, nil
}

// Decode verifies and parses a signed cookie value. Any malformation
// (missing separator, bad base64, signature mismatch, unparseable payload)
// yields nil. Absence of attribution is a normal state, never an error.
func (s *AttributionService) Decode(cookieValue string) *domain.ReferralAttribution {
	idx := strings.LastIndex(cookieValue, ".")
	if idx <= 0 || idx == len(cookieValue)-1 {
		return nil
	}

	payload, err := base64.StdEncoding.DecodeString(cookieValue[:idx])
	if err != nil {
		return nil
	}

	supplied, err := hex.DecodeString(cookieValue[idx+1:])
	if err != nil {
		return nil
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	if !hmac.Equal(mac.Sum(nil), supplied) {
		return nil
	}

	var a domain.ReferralAttribution
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil
	}
	if a.Token == "" {
		return nil
	}
	return &a
}

// DiscreteCookies is the legacy unsigned cookie shape written by the old
// client-side capture snippet. Read-compatibility only; we never write it.
type DiscreteCookies struct {
	WID         string // cabo_wid
	LID         string // cabo_lid
	LandingSlug string // cabo_landing_slug
	SeenAt      string // cabo_seen_at, unix seconds
	Consent     string // consent_marketing
}

// Reconcile collapses whatever cookie shapes arrived on the request into
// one canonical record. The signed form wins. The discrete fallback is only
// honored when the marketing-consent cookie is set and the last-seen
// timestamp is inside the TTL window.
func (s *AttributionService) Reconcile(signed string, discrete DiscreteCookies, now time.Time) *domain.ReferralAttribution {
	if signed != "" {
		if a := s.Decode(signed); a != nil && !a.Expired(s.ttl, now) {
			return a
		}
	}

	if discrete.WID == "" {
		return nil
	}
	consent, _ := strconv.ParseBool(discrete.Consent)
	if !consent {
		return nil
	}
	seenAt, err := strconv.ParseInt(discrete.SeenAt, 10, 64)
	if err != nil || now.Sub(time.Unix(seenAt, 0)) > s.ttl {
		return nil
	}

	return &domain.ReferralAttribution{
		Token:          discrete.WID,
		LinkID:         discrete.LID,
		Scope:          s.scope,
		LandingProduct: discrete.LandingSlug,
		Consent:        true,
		IssuedAt:       seenAt,
	}
}

// IsEligible decides whether a discount is active for productSlug under the
// current attribution. The scope is always the live configured one; a scope
// tagged into an old cookie is ignored.
func (s *AttributionService) IsEligible(a *domain.ReferralAttribution, productSlug string) bool {
	if a == nil || a.Token == "" {
		return false
	}
	if s.requireConsent && !a.Consent {
		return false
	}
	switch s.scope {
	case domain.ScopeLanding:
		return a.LandingProduct != "" && a.LandingProduct == productSlug
	default:
		return true
	}
}

// Mint builds a fresh attribution for a capture, carrying forward fields
// from a previous record when the new request doesn't supply them.
func (s *AttributionService) Mint(token, linkID, landingSlug string, consent bool, prev *domain.ReferralAttribution, now time.Time) domain.ReferralAttribution {
	a := domain.ReferralAttribution{
		Token:          token,
		LinkID:         linkID,
		Scope:          s.scope,
		LandingProduct: landingSlug,
		Consent:        consent,
		IssuedAt:       now.Unix(),
	}
	if prev != nil {
		if a.LinkID == "" {
			a.LinkID = prev.LinkID
		}
		if a.LandingProduct == "" {
			a.LandingProduct = prev.LandingProduct
		}
		if !a.Consent {
			a.Consent = prev.Consent
		}
	}
	return a
}
