package sidegate

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestCertificatesFetchAndCache(t *testing.T) {
	te := newTestEngine(t)
	mustLogin(t, te)
	te.portal.certs = []CertificateRecord{
		{Name: "Mac A", CertificateID: "cert-1", SerialNumber: "serial-1", MachineID: "  machine-1  "},
	}
	ctx := context.Background()

	certs, err := te.engine.Certificates(ctx)
	if err != nil {
		t.Fatalf("certificates: %v", err)
	}
	if len(certs) != 1 || certs[0].MachineID != "machine-1" {
		t.Fatalf("unexpected certificates: %+v", certs)
	}
	if te.portal.certFetches() != 1 {
		t.Fatalf("expected 1 portal fetch, got %d", te.portal.certFetches())
	}

	// Second read inside the TTL is served from the store.
	if _, err := te.engine.Certificates(ctx); err != nil {
		t.Fatalf("cached certificates: %v", err)
	}
	if te.portal.certFetches() != 1 {
		t.Fatalf("expected cached read, got %d fetches", te.portal.certFetches())
	}

	counters := te.engine.MetricsSnapshot().Counters
	if counters[MetricCertCacheMiss] != 1 || counters[MetricCertCacheHit] != 1 {
		t.Fatalf("unexpected cache counters: miss=%d hit=%d",
			counters[MetricCertCacheMiss], counters[MetricCertCacheHit])
	}
}

func TestFetchCertificatesNormalizes(t *testing.T) {
	te := newTestEngine(t)
	mustLogin(t, te)
	te.portal.certs = []CertificateRecord{
		{Name: "", CertificateID: "cert-1", SerialNumber: "serial-1"},
		{Name: "Broken", CertificateID: "", SerialNumber: "serial-2"},
		{Name: "Broken Too", CertificateID: "cert-3", SerialNumber: ""},
	}

	certs, err := te.engine.FetchCertificates(context.Background())
	if err != nil {
		t.Fatalf("fetch certificates: %v", err)
	}
	if len(certs) != 1 {
		t.Fatalf("expected incomplete records dropped, got %+v", certs)
	}
	if certs[0].Name != "Unknown Certificate" {
		t.Fatalf("expected defaulted name, got %q", certs[0].Name)
	}
}

func TestFetchCertificatesParseDrift(t *testing.T) {
	te := newTestEngine(t)
	mustLogin(t, te)
	te.portal.certsErr = errors.New(`missing field "machineId" in certificate payload`)

	_, err := te.engine.FetchCertificates(context.Background())
	if err == nil || !strings.Contains(err.Error(), "Possible solutions") {
		t.Fatalf("expected remediation message, got %v", err)
	}
	if got := te.engine.MetricsSnapshot().Counters[MetricCertParseDrift]; got != 1 {
		t.Fatalf("expected 1 parse drift, got %d", got)
	}
}

func TestFetchCertificatesNotLoggedIn(t *testing.T) {
	te := newTestEngine(t)

	_, err := te.engine.FetchCertificates(context.Background())
	if !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
}

func TestExpiredSessionInvalidatesSlot(t *testing.T) {
	te := newTestEngine(t)
	mustLogin(t, te)
	te.portal.teamsErr = &PortalError{Code: -22411, Op: "listTeams", Detail: "authentication expired"}

	_, err := te.engine.FetchCertificates(context.Background())
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}

	// The slot is emptied; the next call reports not logged in.
	if _, ok := te.engine.LoggedInAs(); ok {
		t.Fatal("expected session invalidated")
	}
	if got := te.engine.MetricsSnapshot().Counters[MetricSessionExpired]; got != 1 {
		t.Fatalf("expected 1 session expiry, got %d", got)
	}
}

func TestOtherPortalErrorKeepsSession(t *testing.T) {
	te := newTestEngine(t)
	mustLogin(t, te)
	te.portal.teamsErr = &PortalError{Code: 500, Op: "listTeams", Detail: "server error"}

	_, err := te.engine.FetchCertificates(context.Background())
	if err == nil || errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected non-expiry error, got %v", err)
	}
	if _, ok := te.engine.LoggedInAs(); !ok {
		t.Fatal("expected session kept on unrelated portal error")
	}
}

func TestNoTeams(t *testing.T) {
	te := newTestEngine(t)
	mustLogin(t, te)
	te.portal.teams = nil

	_, err := te.engine.FetchCertificates(context.Background())
	if !errors.Is(err, ErrNoTeams) {
		t.Fatalf("expected ErrNoTeams, got %v", err)
	}
	if _, ok := te.engine.LoggedInAs(); !ok {
		t.Fatal("expected session kept when account has no teams")
	}
}

func TestRevokeCertificate(t *testing.T) {
	te := newTestEngine(t)
	mustLogin(t, te)

	if err := te.engine.RevokeCertificate(context.Background(), "serial-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if len(te.portal.revoked) != 1 || te.portal.revoked[0] != "serial-1" {
		t.Fatalf("unexpected revocations: %v", te.portal.revoked)
	}
	if got := te.engine.MetricsSnapshot().Counters[MetricCertRevoked]; got != 1 {
		t.Fatalf("expected 1 revoked metric, got %d", got)
	}
}
