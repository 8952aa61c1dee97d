package sidegate

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// certificatesCacheKey is the store key for the cached certificate list;
// the capture time lives under certificatesCacheKey + "_cache_time".
const certificatesCacheKey = "certificates"

// Certificates returns the development certificates for the current team,
// served from the store-backed cache while it is younger than the
// configured TTL (5 minutes by default).
func (e *Engine) Certificates(ctx context.Context) ([]CertificateRecord, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	fetched := false
	certs, err := cachedFetch(ctx, e.kv, e.logger, certificatesCacheKey, e.config.Cache.CertificateTTL, e.now,
		func(ctx context.Context) ([]CertificateRecord, error) {
			fetched = true
			return e.FetchCertificates(ctx)
		})
	if err != nil {
		return nil, err
	}
	if fetched {
		e.metricInc(MetricCertCacheMiss)
	} else {
		e.metricInc(MetricCertCacheHit)
	}
	return certs, nil
}

// FetchCertificates always hits the portal. Records are normalized (names
// defaulted, machine ids trimmed) and records missing a certificate id or
// serial number are dropped rather than surfaced half-usable.
func (e *Engine) FetchCertificates(ctx context.Context) ([]CertificateRecord, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	session, team, err := e.resolveTeam(ctx)
	if err != nil {
		return nil, err
	}

	e.logger.Info("fetching development certificates", "team_id", team.TeamID)
	certs, err := e.portal.ListDevelopmentCertificates(ctx, session, e.config.Provider.DeviceType, team)
	if err != nil {
		if isCertificateParseDrift(err) {
			e.logger.Warn("certificate parse drift detected", "error", err)
			e.metricInc(MetricCertParseDrift)
			return nil, errors.New(parseDriftRemediation(err))
		}
		return nil, fmt.Errorf("failed to get development certificates: %w", err)
	}

	result := normalizeCertificates(e, certs)
	e.logger.Info("processed certificates", "count", len(result))
	return result, nil
}

// RevokeCertificate revokes the development certificate with the given
// serial number under the current team.
func (e *Engine) RevokeCertificate(ctx context.Context, serial string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	session, team, err := e.resolveTeam(ctx)
	if err != nil {
		return err
	}

	if err := e.portal.RevokeDevelopmentCertificate(ctx, session, e.config.Provider.DeviceType, team, serial); err != nil {
		return fmt.Errorf("failed to revoke development certificate: %w", err)
	}
	e.metricInc(MetricCertRevoked)
	return nil
}

func normalizeCertificates(e *Engine, certs []CertificateRecord) []CertificateRecord {
	result := make([]CertificateRecord, 0, len(certs))
	for _, cert := range certs {
		cert.MachineID = strings.TrimSpace(cert.MachineID)
		if cert.Name == "" {
			e.logger.Warn("certificate has empty name, using default")
			cert.Name = "Unknown Certificate"
		}
		if !cert.Valid() {
			e.logger.Warn("filtering out invalid certificate", "name", cert.Name)
			continue
		}
		result = append(result, cert)
	}
	return result
}
