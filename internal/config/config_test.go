package config

import (
	"testing"
	"time"

	"github.com/Anthonyboth/agriroute-connect-sub007/internal/model"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/freight")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("SERVICE_EXPIRATION_HOURS", "moving=96, TOWING=3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Environment != "development" || cfg.HTTP.Port != 7090 || cfg.HTTP.Host != "0.0.0.0" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Guard.ServiceExpirationHours[model.ServiceTypeMoving] != 96 || cfg.Guard.ServiceExpirationHours[model.ServiceTypeTowing] != 3 {
		t.Fatalf("expiration = %v", cfg.Guard.ServiceExpirationHours)
	}
	if cfg.Guard.ExpirySweepInterval != 5*time.Minute {
		t.Fatalf("sweep interval = %v", cfg.Guard.ExpirySweepInterval)
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_ACCESS_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without DB_DSN")
	}
}

func TestParseExpirationRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"TOWING", "TOWING=x", "TOWING=0"} {
		if _, err := parseExpiration(raw); err == nil {
			t.Errorf("parseExpiration(%q) should fail", raw)
		}
	}
}
