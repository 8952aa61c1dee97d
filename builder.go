package sidegate

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sidegate/sidegate/ticket"
	"github.com/spf13/afero"
)

// Builder assembles an Engine from its collaborators. Construction is
// allocation-only until Build; no I/O happens before the first Engine
// call.
type Builder struct {
	config Config

	provider   IdentityProvider
	portal     PortalAPI
	creds      CredentialStore
	kv         Store
	notifier   ChallengeNotifier
	sink       ProgressSink
	installer  Installer
	pairer     Pairer
	downloader Downloader
	fs         afero.Fs
	logger     *slog.Logger

	built bool
}

// New starts a Builder with default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithIdentityProvider sets the identity provider. Required.
func (b *Builder) WithIdentityProvider(p IdentityProvider) *Builder {
	b.provider = p
	return b
}

// WithPortalAPI sets the developer-portal capability. Required.
func (b *Builder) WithPortalAPI(api PortalAPI) *Builder {
	b.portal = api
	return b
}

// WithCredentialStore sets the secret store. Required.
func (b *Builder) WithCredentialStore(cs CredentialStore) *Builder {
	b.creds = cs
	return b
}

// WithStore sets the key-value store backing the certificate cache and the
// saved-account list. Required.
func (b *Builder) WithStore(kv Store) *Builder {
	b.kv = kv
	return b
}

// WithChallengeNotifier sets the UI boundary signalled when a login
// suspends on a challenge. Without one, interactive challenges always time
// out.
func (b *Builder) WithChallengeNotifier(n ChallengeNotifier) *Builder {
	b.notifier = n
	return b
}

// WithProgressSink sets the receiver for staged-operation events.
func (b *Builder) WithProgressSink(sink ProgressSink) *Builder {
	b.sink = sink
	return b
}

// WithInstaller sets the device-side install collaborator.
func (b *Builder) WithInstaller(i Installer) *Builder {
	b.installer = i
	return b
}

// WithPairer sets the device-side pairing collaborator.
func (b *Builder) WithPairer(p Pairer) *Builder {
	b.pairer = p
	return b
}

// WithDownloader overrides the default SSRF-guarded HTTP downloader.
func (b *Builder) WithDownloader(d Downloader) *Builder {
	b.downloader = d
	return b
}

// WithFs overrides the filesystem downloads are written to.
func (b *Builder) WithFs(fs afero.Fs) *Builder {
	b.fs = fs
	return b
}

// WithLogger sets the structured logger; slog.Default() otherwise.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithMetricsEnabled toggles counter recording.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the login latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and collaborators and returns a ready
// Engine. A Builder can be used once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	if err := validateConfig(&b.config); err != nil {
		return nil, err
	}
	if b.provider == nil {
		return nil, errors.New("identity provider is required")
	}
	if b.portal == nil {
		return nil, errors.New("portal API is required")
	}
	if b.creds == nil {
		return nil, errors.New("credential store is required")
	}
	if b.kv == nil {
		return nil, errors.New("store is required")
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	tickets, err := ticket.NewManager(ticket.Config{
		SigningMethod: ticket.SigningMethod(b.config.Ticket.SigningMethod),
		PrivateKey:    b.config.Ticket.PrivateKey,
		PublicKey:     b.config.Ticket.PublicKey,
		Window:        b.config.Challenge.Timeout,
	})
	if err != nil {
		return nil, err
	}

	notifier := b.notifier
	if notifier == nil {
		notifier = ChallengeNotifierFunc(func(string) {})
	}

	downloader := b.downloader
	if downloader == nil {
		downloader = newHTTPDownloader(b.config.Download, logger)
	}
	fs := b.fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	e := &Engine{
		config:     b.config,
		provider:   b.provider,
		portal:     b.portal,
		creds:      b.creds,
		kv:         b.kv,
		sessions:   newSessionManager(),
		broker:     newChallengeBroker(b.config.Challenge.Timeout),
		tickets:    tickets,
		dispatcher: newProgressDispatcher(b.config.Progress, b.sink),
		notifier:   notifier,
		installer:  b.installer,
		pairer:     b.pairer,
		downloader: downloader,
		fs:         fs,
		metrics:    NewMetrics(b.config.Metrics),
		logger:     logger,
		now:        time.Now,
	}

	b.built = true
	return e, nil
}
