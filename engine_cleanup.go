package sidegate

import (
	"context"
	"fmt"
)

// CleanupAll revokes every development certificate and deletes every
// registered app id under the current team, best-effort. A per-entity
// failure is recorded in the result and iteration continues; a
// fetch-phase failure is fatal for the whole call — except a certificate
// fetch hitting the known parse fault, which records the failure and
// returns the partial result gathered so far.
//
// The result is a ledger, not a transaction: counters and errors are
// accumulated as entities are processed and never rolled back.
func (e *Engine) CleanupAll(ctx context.Context) (*CleanupResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	session, team, err := e.resolveTeam(ctx)
	if err != nil {
		return nil, err
	}
	device := e.config.Provider.DeviceType
	result := &CleanupResult{}

	e.logger.Info("cleanup: fetching certificates to revoke")
	certs, err := e.portal.ListDevelopmentCertificates(ctx, session, device, team)
	if err != nil {
		if isCertificateParseDrift(err) {
			e.logger.Warn("cleanup: certificate parse drift, returning partial result", "error", err)
			e.metricInc(MetricCertParseDrift)
			e.metricInc(MetricCleanupPartial)
			result.Errors = append(result.Errors, fmt.Sprintf(
				"failed to fetch certificates for cleanup due to a parsing error: %v; "+
					"you may need to revoke certificates manually through the developer portal", err))
			return result, nil
		}
		return nil, fmt.Errorf("failed to get certificates: %w", err)
	}

	e.logger.Info("cleanup: revoking certificates", "count", len(certs))
	for _, cert := range certs {
		if err := e.portal.RevokeDevelopmentCertificate(ctx, session, device, team, cert.SerialNumber); err != nil {
			e.logger.Error("cleanup: revoke failed", "name", cert.Name, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("failed to revoke certificate %s: %v", cert.Name, err))
			continue
		}
		result.CertificatesRevoked++
		e.metricInc(MetricCertRevoked)
	}
	e.logger.Info("cleanup: certificates revoked", "count", result.CertificatesRevoked)

	e.logger.Info("cleanup: fetching app ids to delete")
	list, err := e.portal.ListAppIDs(ctx, session, device, team)
	if err != nil {
		return nil, fmt.Errorf("failed to list app ids: %w", err)
	}

	e.logger.Info("cleanup: deleting app ids", "count", len(list.AppIDs))
	for _, appID := range list.AppIDs {
		if err := e.portal.DeleteAppID(ctx, session, device, team, appID.AppIDID); err != nil {
			e.logger.Error("cleanup: delete failed", "name", appID.Name, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("failed to delete app id %s: %v", appID.Name, err))
			continue
		}
		result.AppIDsDeleted++
		e.metricInc(MetricAppIDDeleted)
	}

	if len(result.Errors) > 0 {
		e.metricInc(MetricCleanupPartial)
	}
	e.logger.Info("cleanup completed",
		"certificates_revoked", result.CertificatesRevoked,
		"app_ids_deleted", result.AppIDsDeleted,
		"errors", len(result.Errors))
	return result, nil
}
