package handler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cabolabs/cabo-shop/pkg/core/domain"
	"github.com/cabolabs/cabo-shop/pkg/core/services"
	"github.com/cabolabs/cabo-shop/pkg/ports"
)

// Cookie names. The signed blob is the only shape we write; the discrete
// cabo_* cookies are read-compatibility with the old client-side snippet.
const (
	attribCookie      = "cabo_attrib"
	widCookie         = "cabo_wid"
	lidCookie         = "cabo_lid"
	landingSlugCookie = "cabo_landing_slug"
	seenAtCookie      = "cabo_seen_at"
	consentCookie     = "consent_marketing"
)

// Query parameter aliases accepted for referral capture.
var (
	tokenParams   = []string{"token", "wid", "ref", "cabo"}
	landingParams = []string{"slug", "lp", "landing"}
	// everything stripped from the redirected URL
	strippedParams = []string{"token", "wid", "ref", "cabo", "lid", "slug", "lp", "landing", "code", "consent"}
)

type attribContextKey struct{}

// AttributionMiddleware intercepts referral parameters before routing,
// mints the signed cookie and redirects to the cleaned URL so the referral
// identity never lands in browser history. On ordinary requests it decodes
// whatever cookie shape is present and attaches the canonical record to the
// request context.
type AttributionMiddleware struct {
	svc          *services.AttributionService
	dmap         *services.DiscountMap
	repo         ports.ShopRepository
	secureCookie bool
}

func NewAttributionMiddleware(svc *services.AttributionService, dmap *services.DiscountMap, repo ports.ShopRepository, secureCookie bool) *AttributionMiddleware {
	return &AttributionMiddleware{svc: svc, dmap: dmap, repo: repo, secureCookie: secureCookie}
}

func (m *AttributionMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		token := firstParam(q, tokenParams)
		lid := q.Get("lid")

		if token != "" || lid != "" {
			m.capture(w, r, q, token, lid)
			return
		}

		attribution := m.readAttribution(r)
		ctx := context.WithValue(r.Context(), attribContextKey{}, attribution)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AttributionMiddleware) capture(w http.ResponseWriter, r *http.Request, q url.Values, token, lid string) {
	now := time.Now()
	prev := m.readAttribution(r)

	landing := firstParam(q, landingParams)
	if landing == "" {
		if code := q.Get("code"); code != "" {
			landing = m.dmap.SlugForCode(code)
		}
	}

	consent := false
	if v := q.Get("consent"); v != "" {
		consent, _ = strconv.ParseBool(v)
	} else if c, err := r.Cookie(consentCookie); err == nil {
		consent, _ = strconv.ParseBool(c.Value)
	}

	if token == "" && prev != nil {
		token = prev.Token
	}

	a := m.svc.Mint(token, lid, landing, consent, prev, now)
	value, err := m.svc.Encode(a)
	if err != nil {
		// Should not happen for a plain struct; degrade to no cookie.
		log.Printf("attribution: encode failed: %v", err)
	} else {
		http.SetCookie(w, &http.Cookie{
			Name:     attribCookie,
			Value:    value,
			Path:     "/",
			MaxAge:   int(m.svc.TTL() / time.Second),
			HttpOnly: true,
			Secure:   m.secureCookie,
			SameSite: http.SameSiteLaxMode,
		})
	}

	if a.Token != "" && m.repo != nil {
		visit := &domain.ReferralVisit{
			Token:       a.Token,
			LinkID:      a.LinkID,
			LandingSlug: a.LandingProduct,
			UserAgent:   r.UserAgent(),
			IPHash:      hashIP(r.RemoteAddr),
			CreatedAt:   now,
		}
		// Use background context as the request ends with the redirect.
		go func() {
			if err := m.repo.RecordReferralVisit(context.Background(), visit); err != nil {
				log.Printf("attribution: record visit failed: %v", err)
			}
		}()
	}

	// Strip the referral parameters and bounce to the clean URL.
	for _, p := range strippedParams {
		q.Del(p)
	}
	clean := r.URL.Path
	if encoded := q.Encode(); encoded != "" {
		clean += "?" + encoded
	}
	http.Redirect(w, r, clean, http.StatusFound)
}

func (m *AttributionMiddleware) readAttribution(r *http.Request) *domain.ReferralAttribution {
	signed := cookieValue(r, attribCookie)
	discrete := services.DiscreteCookies{
		WID:         cookieValue(r, widCookie),
		LID:         cookieValue(r, lidCookie),
		LandingSlug: cookieValue(r, landingSlugCookie),
		SeenAt:      cookieValue(r, seenAtCookie),
		Consent:     cookieValue(r, consentCookie),
	}
	return m.svc.Reconcile(signed, discrete, time.Now())
}

// AttributionFromContext returns the canonical referral record for this
// request, or nil when the visitor carries no (valid) attribution.
func AttributionFromContext(ctx context.Context) *domain.ReferralAttribution {
	a, _ := ctx.Value(attribContextKey{}).(*domain.ReferralAttribution)
	return a
}

func firstParam(q url.Values, names []string) string {
	for _, n := range names {
		if v := q.Get(n); v != "" {
			return v
		}
	}
	return ""
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

func hashIP(remoteAddr string) string {
	sum := sha256.Sum256([]byte(remoteAddr))
	return hex.EncodeToString(sum[:8])
}
