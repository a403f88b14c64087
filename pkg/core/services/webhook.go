package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/cabolabs/cabo-shop/pkg/core/domain"
)

// WebhookService posts completed purchases to the partner system. Delivery
// is best-effort and fire-and-forget: a failed postback is logged and
// dropped, never retried, and never rolls back the order.
type WebhookService struct {
	url          string
	keyID        string
	secret       []byte
	currency     string
	externalKeys bool
	client       *http.Client
}

func NewWebhookService(url, keyID, secret, currency string, externalKeys bool) *WebhookService {
	return &WebhookService{
		url:          url,
		keyID:        keyID,
		secret:       []byte(secret),
		currency:     currency,
		externalKeys: externalKeys,
		client:       &http.Client{Timeout: 5 * time.Second},
	}
}

// Enabled reports whether a webhook URL is configured at all.
func (s *WebhookService) Enabled() bool { return s.url != "" }

type webhookItem struct {
	Product    string `json:"product"`
	Name       string `json:"name"`
	Qty        int    `json:"qty"`
	UnitCents  int64  `json:"unit_cents"`
	TotalCents int64  `json:"total_cents"`
}

type webhookBody struct {
	KeyID      string        `json:"key_id"`
	CartID     string        `json:"cart_id"`
	Email      string        `json:"email"`
	Token      string        `json:"token"`
	LinkID     string        `json:"link_id"`
	Currency   string        `json:"currency"`
	Items      []webhookItem `json:"items"`
	TotalCents int64         `json:"total_cents"`
	TS         int64         `json:"ts"`
}

// NotifyPurchase builds and sends the postback for a recorded order. Items
// are keyed by internal product id, or by external partner code when the
// deployment is configured that way; externalCode resolves that mapping.
func (s *WebhookService) NotifyPurchase(order domain.Order, email string, externalCode func(productID int64, slug string) string) {
	if !s.Enabled() {
		return
	}

	body := webhookBody{
		KeyID:      s.keyID,
		CartID:     order.Reference,
		Email:      email,
		Token:      order.ReferralToken,
		LinkID:     order.ReferralLink,
		Currency:   s.currency,
		TotalCents: order.TotalMinor,
		TS:         time.Now().Unix(),
	}

	for _, it := range order.Items {
		key := strconv.FormatInt(it.ProductID, 10)
		if s.externalKeys && externalCode != nil {
			if code := externalCode(it.ProductID, it.Slug); code != "" {
				key = code
			}
		}
		body.Items = append(body.Items, webhookItem{
			Product:    key,
			Name:       it.Name,
			Qty:        it.Qty,
			UnitCents:  it.UnitPriceMinor,
			TotalCents: it.FinalUnitPriceMinor * int64(it.Qty),
		})
	}

	// Run detached: the checkout response must not wait on the partner.
	go s.deliver(body)
}

func (s *WebhookService) deliver(body webhookBody) {
	payload, err := json.Marshal(body)
	if err != nil {
		log.Printf("webhook: marshal failed: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		log.Printf("webhook: build request failed: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Cabo-Signature", s.Sign(payload))

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("webhook: delivery failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("webhook: partner answered %d for cart %s", resp.StatusCode, body.CartID)
	}
}

// Sign computes the hex HMAC-SHA256 carried in X-Cabo-Signature. Same
// primitive as the attribution cookie, keyed by the webhook secret.
func (s *WebhookService) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
