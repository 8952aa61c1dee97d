package sidegate

import (
	"log/slog"
	"sync"
	"time"

	"github.com/sidegate/sidegate/ticket"
	"github.com/spf13/afero"
)

// Engine is the authenticated core: it owns the single session slot, the
// challenge broker, the progress dispatcher, and the metric registry, and
// runs every privileged portal operation through them. Engines are built
// with [Builder.Build] and are safe for concurrent use afterwards.
type Engine struct {
	config     Config
	provider   IdentityProvider
	portal     PortalAPI
	creds      CredentialStore
	kv         Store
	sessions   *sessionManager
	broker     *challengeBroker
	tickets    *ticket.Manager
	dispatcher *progressDispatcher
	notifier   ChallengeNotifier
	installer  Installer
	pairer     Pairer
	downloader Downloader
	fs         afero.Fs
	metrics    *Metrics
	logger     *slog.Logger
	now        func() time.Time

	deviceMu sync.Mutex
	device   *Device
}

// Close shuts the challenge broker (waking blocked logins with
// ErrChallengeDisconnected) and drains the progress dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.broker != nil {
		e.broker.Close()
	}
	if e.dispatcher != nil {
		e.dispatcher.Close()
	}
}

// LoggedInAs returns the account id of the current session, if any.
func (e *Engine) LoggedInAs() (string, bool) {
	if e == nil {
		return "", false
	}
	session, err := e.sessions.Acquire()
	if err != nil {
		return "", false
	}
	return session.AccountID, true
}

// Logout clears the session slot. Outstanding handles acquired earlier
// stay usable in memory; nothing is revoked remotely.
func (e *Engine) Logout() {
	if e == nil {
		return
	}
	e.sessions.Invalidate()
}

// SetDevice selects the device install operations target.
func (e *Engine) SetDevice(d Device) {
	e.deviceMu.Lock()
	e.device = &d
	e.deviceMu.Unlock()
}

// SelectedDevice returns the currently selected device.
func (e *Engine) SelectedDevice() (Device, bool) {
	e.deviceMu.Lock()
	defer e.deviceMu.Unlock()
	if e.device == nil {
		return Device{}, false
	}
	return *e.device, true
}

// MetricsSnapshot copies the engine's counters and histograms.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// ProgressDropped reports how many progress events were discarded under
// the DropIfFull policy.
func (e *Engine) ProgressDropped() uint64 {
	if e == nil || e.dispatcher == nil {
		return 0
	}
	return e.dispatcher.Dropped()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}
