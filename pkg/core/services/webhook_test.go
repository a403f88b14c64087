package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cabolabs/cabo-shop/pkg/core/domain"
)

func testOrder() domain.Order {
	return domain.Order{
		Reference:     "ref-123",
		TotalMinor:    23000,
		ReferralToken: "w1",
		ReferralLink:  "l1",
		Items: []domain.OrderItem{
			{ProductID: 7, Slug: "product-a", Name: "A", Qty: 2, UnitPriceMinor: 10000, FinalUnitPriceMinor: 9000},
		},
	}
}

func TestNotifyPurchaseSignsBody(t *testing.T) {
	type received struct {
		body []byte
		sig  string
	}
	got := make(chan received, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- received{body: body, sig: r.Header.Get("X-Cabo-Signature")}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewWebhookService(server.URL, "key-1", "hook-secret", "TRY", false)
	svc.NotifyPurchase(testOrder(), "buyer@example.com", nil)

	var rec received
	select {
	case rec = <-got:
	case <-time.After(3 * time.Second):
		t.Fatal("webhook was never delivered")
	}

	// Signature must verify against the exact body bytes.
	mac := hmac.New(sha256.New, []byte("hook-secret"))
	mac.Write(rec.body)
	if want := hex.EncodeToString(mac.Sum(nil)); rec.sig != want {
		t.Errorf("X-Cabo-Signature = %s, want %s", rec.sig, want)
	}

	var body struct {
		KeyID      string `json:"key_id"`
		CartID     string `json:"cart_id"`
		Email      string `json:"email"`
		Token      string `json:"token"`
		LinkID     string `json:"link_id"`
		Currency   string `json:"currency"`
		TotalCents int64  `json:"total_cents"`
		TS         int64  `json:"ts"`
		Items      []struct {
			Product    string `json:"product"`
			Qty        int    `json:"qty"`
			UnitCents  int64  `json:"unit_cents"`
			TotalCents int64  `json:"total_cents"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rec.body, &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body.KeyID != "key-1" || body.CartID != "ref-123" || body.Email != "buyer@example.com" {
		t.Errorf("body header fields wrong: %+v", body)
	}
	if body.Token != "w1" || body.LinkID != "l1" || body.Currency != "TRY" || body.TotalCents != 23000 {
		t.Errorf("body attribution fields wrong: %+v", body)
	}
	if body.TS == 0 {
		t.Error("ts missing")
	}
	if len(body.Items) != 1 || body.Items[0].Product != "7" || body.Items[0].TotalCents != 18000 {
		t.Errorf("items wrong: %+v", body.Items)
	}
}

func TestNotifyPurchaseExternalCodes(t *testing.T) {
	got := make(chan []byte, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- body
	}))
	defer server.Close()

	svc := NewWebhookService(server.URL, "key-1", "hook-secret", "TRY", true)
	svc.NotifyPurchase(testOrder(), "buyer@example.com", func(productID int64, slug string) string {
		if slug == "product-a" {
			return "EXT-A"
		}
		return ""
	})

	var body struct {
		Items []struct {
			Product string `json:"product"`
		} `json:"items"`
	}
	select {
	case b := <-got:
		if err := json.Unmarshal(b, &body); err != nil {
			t.Fatal(err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("webhook was never delivered")
	}

	if len(body.Items) != 1 || body.Items[0].Product != "EXT-A" {
		t.Errorf("items not keyed by external code: %+v", body.Items)
	}
}

func TestNotifyPurchaseDisabledWithoutURL(t *testing.T) {
	svc := NewWebhookService("", "key-1", "hook-secret", "TRY", false)
	if svc.Enabled() {
		t.Error("Enabled() should be false without a URL")
	}
	// Must be a no-op, not a panic or a hang.
	svc.NotifyPurchase(testOrder(), "buyer@example.com", nil)
}
