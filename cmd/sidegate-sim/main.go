// Command sidegate-sim drives a full engine lifecycle against simulated
// collaborators: login with an out-of-band challenge, certificate listing
// through the cache, companion install with staged progress, and bulk
// cleanup. It exists to exercise the wiring end to end without touching a
// real developer portal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"

	sidegate "github.com/sidegate/sidegate"
	"github.com/sidegate/sidegate/credstore"
	"github.com/sidegate/sidegate/metrics/export/prometheus"
	"github.com/sidegate/sidegate/store"
)

// simPortal is an in-memory developer portal with a fixed team, a few
// certificates, and a few app ids.
type simPortal struct {
	certs  []sidegate.CertificateRecord
	appIDs []sidegate.AppID
}

func (p *simPortal) ListTeams(_ context.Context, _ *sidegate.Session) ([]sidegate.Team, error) {
	return []sidegate.Team{{TeamID: "SIM000001", Name: "Simulated Team"}}, nil
}

func (p *simPortal) ListDevelopmentCertificates(_ context.Context, _ *sidegate.Session, _ sidegate.DeviceType, _ sidegate.Team) ([]sidegate.CertificateRecord, error) {
	return append([]sidegate.CertificateRecord(nil), p.certs...), nil
}

func (p *simPortal) RevokeDevelopmentCertificate(_ context.Context, _ *sidegate.Session, _ sidegate.DeviceType, _ sidegate.Team, serial string) error {
	for i, cert := range p.certs {
		if cert.SerialNumber == serial {
			p.certs = append(p.certs[:i], p.certs[i+1:]...)
			return nil
		}
	}
	return &sidegate.PortalError{Op: "revokeCertificate", Detail: "unknown serial " + serial}
}

func (p *simPortal) ListAppIDs(_ context.Context, _ *sidegate.Session, _ sidegate.DeviceType, _ sidegate.Team) (sidegate.AppIDList, error) {
	return sidegate.AppIDList{
		AppIDs:            append([]sidegate.AppID(nil), p.appIDs...),
		MaxQuantity:       10,
		AvailableQuantity: 10 - len(p.appIDs),
	}, nil
}

func (p *simPortal) DeleteAppID(_ context.Context, _ *sidegate.Session, _ sidegate.DeviceType, _ sidegate.Team, appIDID string) error {
	for i, appID := range p.appIDs {
		if appID.AppIDID == appIDID {
			p.appIDs = append(p.appIDs[:i], p.appIDs[i+1:]...)
			return nil
		}
	}
	return &sidegate.PortalError{Op: "deleteAppId", Detail: "unknown app id " + appIDID}
}

// simProvider accepts any credentials; with challengeCode set it demands
// the challenge round trip first.
type simProvider struct {
	challengeCode string
}

func (p *simProvider) Login(ctx context.Context, credentials sidegate.CredentialsFunc, challenge sidegate.ChallengeFunc, _ sidegate.ProviderConfig) (*sidegate.Session, error) {
	accountID, _, err := credentials()
	if err != nil {
		return nil, err
	}
	if p.challengeCode != "" {
		code, err := challenge(ctx)
		if err != nil {
			return nil, err
		}
		if code != p.challengeCode {
			return nil, errors.New("incorrect verification code")
		}
	}
	return &sidegate.Session{AccountID: accountID, Token: "sim-token"}, nil
}

type simInstaller struct {
	delay time.Duration
}

func (i *simInstaller) Install(ctx context.Context, _ *sidegate.Session, _ sidegate.Team, device sidegate.Device, appPath string) error {
	select {
	case <-time.After(i.delay):
	case <-ctx.Done():
		return ctx.Err()
	}
	fmt.Printf("installed %s onto %s\n", appPath, device.Name)
	return nil
}

type simPairer struct{}

func (simPairer) CompanionInfo(_ context.Context, _ sidegate.Device, liveContainer bool) (*sidegate.CompanionInfo, error) {
	bundleID := "com.SideStore.SideStore"
	if liveContainer {
		bundleID = "com.kdt.livecontainer"
	}
	return &sidegate.CompanionInfo{BundleID: bundleID, Path: "Apps/" + bundleID}, nil
}

func (simPairer) PlacePairing(_ context.Context, _ sidegate.Device, bundleID, path string) error {
	fmt.Printf("placed pairing record into %s at %s\n", bundleID, path)
	return nil
}

// simDownloader avoids the network entirely; artifact bytes are invented.
type simDownloader struct{}

func (d *simDownloader) Fetch(_ context.Context, url string) ([]byte, error) {
	return []byte("simulated artifact from " + url), nil
}

func (d *simDownloader) FetchTo(ctx context.Context, fs afero.Fs, url, dest string) error {
	data, err := d.Fetch(ctx, url)
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, dest, data, 0o644)
}

func main() {
	var (
		account       = flag.String("account", "dev@example.com", "account id to log in with")
		redisAddr     = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		challenge     = flag.Bool("challenge", true, "demand an out-of-band challenge on login")
		nightly       = flag.Bool("nightly", false, "install the nightly companion build")
		liveContainer = flag.Bool("livecontainer", false, "install the LiveContainer companion bundle")
		runCleanup    = flag.Bool("cleanup", true, "run bulk cleanup at the end")
		verbose       = flag.Bool("verbose", false, "log at debug level")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	var client redis.UniversalClient
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		defer mr.Close()
		addr = mr.Addr()
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		fmt.Printf("using redis at %s\n", addr)
	}
	client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	defer client.Close()

	portal := &simPortal{
		certs: []sidegate.CertificateRecord{
			{Name: "Old Laptop", CertificateID: "cert-1", SerialNumber: "serial-1", MachineID: "machine-1"},
			{Name: "Desktop", CertificateID: "cert-2", SerialNumber: "serial-2", MachineID: "machine-2"},
		},
		appIDs: []sidegate.AppID{
			{AppIDID: "appid-1", Name: "Old Sideload", Identifier: "com.example.old"},
		},
	}
	provider := &simProvider{}
	if *challenge {
		provider.challengeCode = "424242"
	}

	fs := afero.NewMemMapFs()
	cfg := sidegate.Config{}
	cfg.Install.StoreDir = "/sim/artifacts"
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	// The challenge responder plays the UI role: it receives the signed
	// ticket and submits the code from another goroutine, exactly as a
	// frontend would.
	tickets := make(chan string, 1)

	engine, err := sidegate.New().
		WithConfig(cfg).
		WithChallengeNotifier(sidegate.ChallengeNotifierFunc(func(ticket string) {
			tickets <- ticket
		})).
		WithIdentityProvider(provider).
		WithPortalAPI(portal).
		WithCredentialStore(credstore.NewMemory()).
		WithStore(store.NewRedis(client, "sim:")).
		WithInstaller(&simInstaller{delay: 50 * time.Millisecond}).
		WithPairer(simPairer{}).
		WithDownloader(&simDownloader{}).
		WithFs(fs).
		WithProgressSink(sidegate.NewJSONWriterSink(os.Stdout)).
		WithLogger(logger).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	go func() {
		for ticket := range tickets {
			fmt.Println("challenge requested, submitting code")
			if err := engine.SubmitChallengeCode(ticket, `"424242"`); err != nil {
				fmt.Fprintf(os.Stderr, "challenge submission failed: %v\n", err)
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := run(ctx, engine, portal, *account, *nightly, *liveContainer, *runCleanup); err != nil {
		fmt.Fprintf(os.Stderr, "simulation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("---- metrics ----")
	fmt.Print(prometheus.NewPrometheusExporter(engine).Render())
}

func run(ctx context.Context, engine *sidegate.Engine, portal *simPortal, account string, nightly, liveContainer, runCleanup bool) error {
	logged, err := engine.Login(ctx, account, "sim-secret", true)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	fmt.Printf("logged in as %s\n", logged)

	saved, err := engine.SavedAccounts(ctx)
	if err != nil {
		return fmt.Errorf("saved accounts: %w", err)
	}
	fmt.Printf("saved accounts: %s\n", strings.Join(saved, ", "))

	// Two reads back to back: the second is served from the cache.
	for i := 0; i < 2; i++ {
		certs, err := engine.Certificates(ctx)
		if err != nil {
			return fmt.Errorf("certificates: %w", err)
		}
		fmt.Printf("certificates (read %d): %d\n", i+1, len(certs))
	}

	appIDs, err := engine.AppIDs(ctx)
	if err != nil {
		return fmt.Errorf("app ids: %w", err)
	}
	fmt.Printf("app ids: %d of %d used\n", len(appIDs.AppIDs), appIDs.MaxQuantity)

	engine.SetDevice(sidegate.Device{ID: "sim-udid", Name: "Simulated iPhone"})
	spec := sidegate.CompanionSpec{Nightly: nightly, LiveContainer: liveContainer}
	if err := engine.InstallCompanion(ctx, spec); err != nil {
		return fmt.Errorf("install companion: %w", err)
	}

	if runCleanup {
		result, err := engine.CleanupAll(ctx)
		if err != nil {
			return fmt.Errorf("cleanup: %w", err)
		}
		fmt.Printf("cleanup: %d certificates revoked, %d app ids deleted, %d errors\n",
			result.CertificatesRevoked, result.AppIDsDeleted, len(result.Errors))
	}

	engine.Logout()
	return nil
}
