package sidegate

import (
	"errors"
	"strings"
	"time"
)

// Config carries every tunable of the Engine. Zero values are filled in by
// defaultConfig; Builder.Build validates the result.
type Config struct {
	Provider  ProviderConfig
	Challenge ChallengeConfig
	Ticket    TicketConfig
	Cache     CacheConfig
	Progress  ProgressConfig
	Download  DownloadConfig
	Install   InstallConfig
	Metrics   MetricsConfig
}

/*
====================================
PROVIDER CONFIG
====================================
*/

// ProviderConfig is handed through to the IdentityProvider on every login.
type ProviderConfig struct {
	// ConfigDir is the local directory the provider may use for its own
	// state.
	ConfigDir string
	// ChallengeServiceURL is the endpoint the provider requests challenge
	// delivery from. Stored without scheme; https is assumed.
	ChallengeServiceURL string
	// DeviceType is the device family used for all portal operations.
	DeviceType DeviceType
}

/*
====================================
CHALLENGE CONFIG
====================================
*/

// ChallengeConfig bounds the interactive challenge rendezvous.
type ChallengeConfig struct {
	// Timeout is how long a login blocks waiting for a delivered code.
	Timeout time.Duration
}

// TicketConfig controls challenge-ticket signing.
type TicketConfig struct {
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
}

/*
====================================
CACHE CONFIG
====================================
*/

// CacheConfig controls the store-backed TTL cache.
type CacheConfig struct {
	// CertificateTTL is the freshness window for the certificate list.
	CertificateTTL time.Duration
}

/*
====================================
PROGRESS CONFIG
====================================
*/

// ProgressConfig controls the staged-operation event dispatcher.
type ProgressConfig struct {
	// BufferSize is the dispatcher's channel capacity.
	BufferSize int
	// DropIfFull drops events instead of blocking emitters when the sink
	// cannot keep up. Dropped events are counted, never reordered.
	DropIfFull bool
}

/*
====================================
DOWNLOAD CONFIG
====================================
*/

// DownloadConfig bounds the blob downloader.
type DownloadConfig struct {
	Timeout         time.Duration
	MaxResponseSize int64
	// AllowPrivateHosts disables the SSRF guard. Only the simulator and
	// tests should set it.
	AllowPrivateHosts bool
}

// InstallConfig configures staged install workflows.
type InstallConfig struct {
	// MachineName is the name registered with certificates created during
	// installs.
	MachineName string
	// StoreDir is where install state and downloaded packages are kept.
	StoreDir string
}

// MetricsConfig toggles the in-process metric counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		Provider: ProviderConfig{
			DeviceType: DeviceIOS,
		},
		Challenge: ChallengeConfig{
			Timeout: 120 * time.Second,
		},
		Ticket: TicketConfig{
			SigningMethod: "hs256",
		},
		Cache: CacheConfig{
			CertificateTTL: 5 * time.Minute,
		},
		Progress: ProgressConfig{
			BufferSize: 64,
			DropIfFull: false,
		},
		Download: DownloadConfig{
			Timeout:         5 * time.Minute,
			MaxResponseSize: 512 << 20,
		},
		Install: InstallConfig{
			MachineName: "sidegate",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Ticket.PrivateKey = append([]byte(nil), cfg.Ticket.PrivateKey...)
	out.Ticket.PublicKey = append([]byte(nil), cfg.Ticket.PublicKey...)
	return out
}

func validateConfig(cfg *Config) error {
	if cfg.Challenge.Timeout <= 0 {
		cfg.Challenge.Timeout = 120 * time.Second
	}
	if cfg.Cache.CertificateTTL <= 0 {
		cfg.Cache.CertificateTTL = 5 * time.Minute
	}
	if cfg.Progress.BufferSize <= 0 {
		cfg.Progress.BufferSize = 1
	}
	if cfg.Download.Timeout <= 0 {
		cfg.Download.Timeout = 5 * time.Minute
	}
	if cfg.Install.MachineName == "" {
		cfg.Install.MachineName = "sidegate"
	}
	switch strings.ToLower(cfg.Ticket.SigningMethod) {
	case "", "hs256", "ed25519":
	default:
		return errors.New("unsupported ticket signing method")
	}
	cfg.Provider.ChallengeServiceURL = strings.TrimPrefix(cfg.Provider.ChallengeServiceURL, "https://")
	return nil
}
