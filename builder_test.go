package sidegate

import (
	"strings"
	"testing"
	"time"
)

func TestBuildRequiresCollaborators(t *testing.T) {
	_, err := New().Build()
	if err == nil || !strings.Contains(err.Error(), "identity provider") {
		t.Fatalf("expected missing provider error, got %v", err)
	}

	_, err = New().WithIdentityProvider(&fakeProvider{}).Build()
	if err == nil || !strings.Contains(err.Error(), "portal") {
		t.Fatalf("expected missing portal error, got %v", err)
	}
}

func TestBuildOnce(t *testing.T) {
	b := New().
		WithIdentityProvider(&fakeProvider{}).
		WithPortalAPI(&fakePortal{}).
		WithCredentialStore(newMemCreds()).
		WithStore(newMemStore())

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer engine.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second build to fail")
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	if err := validateConfig(&cfg); err != nil {
		t.Fatalf("validate: %v", err)
	}

	if cfg.Challenge.Timeout != 120*time.Second {
		t.Fatalf("unexpected challenge timeout: %v", cfg.Challenge.Timeout)
	}
	if cfg.Cache.CertificateTTL != 5*time.Minute {
		t.Fatalf("unexpected certificate ttl: %v", cfg.Cache.CertificateTTL)
	}
	if cfg.Install.MachineName != "sidegate" {
		t.Fatalf("unexpected machine name: %q", cfg.Install.MachineName)
	}
}

func TestConfigRejectsUnknownSigningMethod(t *testing.T) {
	cfg := Config{}
	cfg.Ticket.SigningMethod = "rs512"
	if err := validateConfig(&cfg); err == nil {
		t.Fatal("expected signing method rejection")
	}
}

func TestConfigStripsChallengeURLScheme(t *testing.T) {
	cfg := Config{}
	cfg.Provider.ChallengeServiceURL = "https://challenge.example.com/v1"
	if err := validateConfig(&cfg); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Provider.ChallengeServiceURL != "challenge.example.com/v1" {
		t.Fatalf("unexpected challenge url: %q", cfg.Provider.ChallengeServiceURL)
	}
}
