package config

import "testing"

func TestSigningSecretFallbackChain(t *testing.T) {
	t.Setenv("CABO_SIGNING_SECRET", "")
	t.Setenv("REFERRAL_COOKIE_SECRET", "")

	if got := resolveSigningSecret(); got != DevSigningSecret {
		t.Errorf("with nothing set: got %q, want dev default", got)
	}

	t.Setenv("REFERRAL_COOKIE_SECRET", "legacy-secret")
	if got := resolveSigningSecret(); got != "legacy-secret" {
		t.Errorf("legacy key should win over dev default: got %q", got)
	}

	t.Setenv("CABO_SIGNING_SECRET", "primary-secret")
	if got := resolveSigningSecret(); got != "primary-secret" {
		t.Errorf("primary key should win over legacy: got %q", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.AttribTTLDays != 14 {
		t.Errorf("AttribTTLDays = %d, want 14", cfg.AttribTTLDays)
	}
	if cfg.AttribScope != "sitewide" {
		t.Errorf("AttribScope = %q, want sitewide", cfg.AttribScope)
	}
	if cfg.RequireConsent {
		t.Error("consent requirement should default off")
	}
	if cfg.IsProduction() {
		t.Error("default env should not count as production")
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("CABO_WEBHOOK_USE_EXTERNAL_CODES", "true")
	cfg := Load()
	if !cfg.WebhookExternalKeys {
		t.Error("WebhookExternalKeys should be true")
	}
}
