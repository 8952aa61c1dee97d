package sidegate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// accountListKey is the store key holding the JSON array of saved account
// ids.
const accountListKey = "ids"

// Login performs the full interactive handshake: it exchanges the
// credentials for a session, suspending on an out-of-band challenge if the
// provider demands one, then installs the session as the process-wide
// current one. With saveCredentials the secret is written to the
// credential store and the account id is remembered for later
// LoginWithStoredCredentials calls.
//
// The returned string is the canonical (lowercased) account id.
func (e *Engine) Login(ctx context.Context, accountID, secret string, saveCredentials bool) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	start := e.now()

	session, err := e.exchange(ctx, accountID, secret)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		return "", err
	}

	e.sessions.Install(session)
	e.metricInc(MetricLoginSuccess)
	e.metrics.Observe(MetricLoginLatency, e.now().Sub(start))
	e.logger.Info("logged in", "account", session.AccountID)

	if saveCredentials {
		if err := e.creds.Set(session.AccountID, secret); err != nil {
			return "", fmt.Errorf("failed to save credentials: %w", err)
		}
		if err := e.rememberAccount(ctx, session.AccountID); err != nil {
			return "", err
		}
	}

	return session.AccountID, nil
}

// LoginWithStoredCredentials logs in using a secret previously saved for
// accountID.
func (e *Engine) LoginWithStoredCredentials(ctx context.Context, accountID string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	secret, err := e.creds.Get(strings.ToLower(accountID))
	if err != nil {
		return "", fmt.Errorf("failed to get credentials: %w", err)
	}
	return e.Login(ctx, accountID, secret, false)
}

// SubmitChallengeCode is the UI boundary for challenge delivery: ticket is
// the value handed to the ChallengeNotifier, code is the out-of-band code
// as received (quote-wrapped is fine). Exactly one submission is consumed
// per challenge; extras report ErrChallengeNotPending.
func (e *Engine) SubmitChallengeCode(ticket, code string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	requestID, err := e.tickets.Verify(ticket)
	if err != nil {
		e.metricInc(MetricChallengeRejected)
		return ErrChallengeTicketInvalid
	}
	if err := e.broker.Deliver(requestID, code); err != nil {
		e.metricInc(MetricChallengeRejected)
		return err
	}
	return nil
}

// DeleteAccount removes the saved secret and forgets the account id. The
// current session, if it belongs to this account, is left untouched.
func (e *Engine) DeleteAccount(ctx context.Context, accountID string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	accountID = strings.ToLower(accountID)
	if err := e.creds.Delete(accountID); err != nil && !errors.Is(err, ErrCredentialNotFound) {
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	return e.forgetAccount(ctx, accountID)
}

// SavedAccounts lists the account ids remembered by past logins.
func (e *Engine) SavedAccounts(ctx context.Context) ([]string, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	return e.readAccountList(ctx)
}

// exchange runs the provider login with the challenge broker wired in as
// the challenge supplier. The credentials pair lives only inside the
// supplier closure and is never retained past the exchange.
func (e *Engine) exchange(ctx context.Context, accountID, secret string) (*Session, error) {
	credentials := func() (string, string, error) {
		return strings.ToLower(accountID), secret, nil
	}

	challenge := func(ctx context.Context) (string, error) {
		e.metricInc(MetricChallengeRequired)
		code, err := e.broker.Request(ctx, func(requestID string) {
			tk, terr := e.tickets.Issue(requestID)
			if terr != nil {
				// The waiter will time out; nothing can be delivered
				// without a ticket.
				e.logger.Error("failed to issue challenge ticket", "error", terr)
				return
			}
			e.notifier.ChallengeRequired(tk)
		})
		if errors.Is(err, ErrChallengeTimeout) {
			e.metricInc(MetricChallengeTimeout)
		}
		return code, err
	}

	session, err := e.provider.Login(ctx, credentials, challenge, e.config.Provider)
	if err != nil {
		e.logger.Error("login failed", "account", strings.ToLower(accountID), "error", err)
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return session, nil
}

func (e *Engine) readAccountList(ctx context.Context) ([]string, error) {
	data, err := e.kv.Get(ctx, accountListKey)
	if errors.Is(err, ErrStoreKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read account list: %w", err)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		// A corrupted list is recoverable; start over rather than lock the
		// user out of saving accounts.
		e.logger.Warn("account list undecodable, resetting", "error", err)
		return nil, nil
	}
	return ids, nil
}

func (e *Engine) writeAccountList(ctx context.Context, ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	if err := e.kv.Set(ctx, accountListKey, data); err != nil {
		return fmt.Errorf("failed to write account list: %w", err)
	}
	return nil
}

func (e *Engine) rememberAccount(ctx context.Context, accountID string) error {
	ids, err := e.readAccountList(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == accountID {
			return nil
		}
	}
	return e.writeAccountList(ctx, append(ids, accountID))
}

func (e *Engine) forgetAccount(ctx context.Context, accountID string) error {
	ids, err := e.readAccountList(ctx)
	if err != nil {
		return err
	}
	kept := ids[:0]
	for _, id := range ids {
		if id != accountID {
			kept = append(kept, id)
		}
	}
	return e.writeAccountList(ctx, kept)
}
