package bootstrap

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:          "mongodb://localhost:27017",
		MongoDatabase:     "fiscora_test",
		SessionKey:        strings.Repeat("k", 32),
		CSRFKey:           strings.Repeat("c", 32),
		SelectionHashKey:  strings.Repeat("s", 32),
		OAuthStateHashKey: strings.Repeat("o", 32),
		BaseURL:           "http://localhost:3000",
		ResetExpiry:       time.Hour,
	}
}

func TestValidateConfig_Accepts(t *testing.T) {
	if err := ValidateConfig(nil, validAppConfig(), zap.NewNop()); err != nil {
		t.Fatalf("ValidateConfig failed: %v", err)
	}
}

func TestValidateConfig_RejectsShortKeys(t *testing.T) {
	cfg := validAppConfig()
	cfg.CSRFKey = "too-short"
	if err := ValidateConfig(nil, cfg, zap.NewNop()); err == nil {
		t.Error("expected error for short csrf_key")
	}

	cfg = validAppConfig()
	cfg.SelectionHashKey = "too-short"
	if err := ValidateConfig(nil, cfg, zap.NewNop()); err == nil {
		t.Error("expected error for short selection_hash_key")
	}
}

func TestValidateConfig_RejectsHalfConfiguredGoogle(t *testing.T) {
	cfg := validAppConfig()
	cfg.GoogleClientID = "client-id"
	if err := ValidateConfig(nil, cfg, zap.NewNop()); err == nil {
		t.Error("expected error when only google_client_id is set")
	}

	cfg.GoogleClientSecret = "client-secret"
	if err := ValidateConfig(nil, cfg, zap.NewNop()); err != nil {
		t.Errorf("expected full pair to validate, got %v", err)
	}
}

func TestValidateConfig_RejectsNonPositiveResetExpiry(t *testing.T) {
	cfg := validAppConfig()
	cfg.ResetExpiry = 0
	if err := ValidateConfig(nil, cfg, zap.NewNop()); err == nil {
		t.Error("expected error for zero reset_expiry")
	}
}
