package sidegate

import (
	"context"
	"fmt"
)

// AppIDs lists the registered app identifiers for the current team,
// including quota information.
func (e *Engine) AppIDs(ctx context.Context) (AppIDList, error) {
	if e == nil {
		return AppIDList{}, ErrEngineNotReady
	}

	session, team, err := e.resolveTeam(ctx)
	if err != nil {
		return AppIDList{}, err
	}

	list, err := e.portal.ListAppIDs(ctx, session, e.config.Provider.DeviceType, team)
	if err != nil {
		return AppIDList{}, fmt.Errorf("failed to list app ids: %w", err)
	}
	return list, nil
}

// DeleteAppID removes one registered app identifier.
func (e *Engine) DeleteAppID(ctx context.Context, appIDID string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	session, team, err := e.resolveTeam(ctx)
	if err != nil {
		return err
	}

	if err := e.portal.DeleteAppID(ctx, session, e.config.Provider.DeviceType, team, appIDID); err != nil {
		return fmt.Errorf("failed to delete app id: %w", err)
	}
	e.metricInc(MetricAppIDDeleted)
	return nil
}
