package sidegate

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// expiredSessionCode is the provider code meaning the authentication has
// aged out and the account must log in again.
const expiredSessionCode = -22411

// resolveTeam turns the current session into an operating team context.
// On an expired-session provider code the slot is invalidated before the
// error is returned; that is the only self-healing the engine performs —
// it never re-authenticates on its own.
//
// Team selection takes the first team in provider order. There is no
// ranking and no mechanism to pick another team.
func (e *Engine) resolveTeam(ctx context.Context) (*Session, Team, error) {
	session, err := e.sessions.Acquire()
	if err != nil {
		e.logger.Error("no session available", "error", err)
		return nil, Team{}, err
	}

	teams, err := e.portal.ListTeams(ctx, session)
	if err != nil {
		if isExpiredSession(err) {
			e.logger.Warn("session expired, invalidating", "code", expiredSessionCode)
			e.sessions.Invalidate()
			e.metricInc(MetricSessionExpired)
			return nil, Team{}, fmt.Errorf("%w: %v", ErrSessionExpired, err)
		}
		e.logger.Error("failed to list teams", "error", err)
		return nil, Team{}, fmt.Errorf("failed to list teams: %w", err)
	}

	if len(teams) == 0 {
		e.logger.Warn("no teams for account", "account", session.AccountID)
		return nil, Team{}, ErrNoTeams
	}

	e.logger.Debug("using team", "team_id", teams[0].TeamID)
	return session, teams[0], nil
}

// isExpiredSession reports whether err carries the provider's
// expired-session code.
func isExpiredSession(err error) bool {
	var pe *PortalError
	return errors.As(err, &pe) && pe.Code == expiredSessionCode
}

// parseDriftMarkers are free-text markers of a known recurring provider
// fault: certificate payloads that stopped matching the expected shape
// after upstream format changes. Substring matching is inherently brittle
// and is confined to this one classifier.
var parseDriftMarkers = []string{"machineId", "machineld", "Parse"}

// isCertificateParseDrift reports whether err looks like the known
// transient certificate-parsing fault.
func isCertificateParseDrift(err error) bool {
	if err == nil {
		return false
	}
	text := err.Error()
	for _, marker := range parseDriftMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// parseDriftRemediation renders the user-facing description of a
// certificate parse fault. The fault class has a known external cause, so
// the message carries concrete remediation steps.
func parseDriftRemediation(err error) string {
	return fmt.Sprintf(
		"failed to parse certificates from the provider API; this may be due to an API format change.\n\n"+
			"Error details: %v\n\n"+
			"Possible solutions:\n"+
			"1. Log out and log back in to refresh your session\n"+
			"2. Revoke all existing certificates and create new ones\n"+
			"3. Check for updates to sidegate\n"+
			"4. Report this issue with the error details",
		err,
	)
}
