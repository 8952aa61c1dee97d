package sidegate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// companionArtifact maps a CompanionSpec onto the published release
// artifact to download.
func companionArtifact(spec CompanionSpec) (filename, url string) {
	switch {
	case spec.LiveContainer && spec.Nightly:
		return "LiveContainerSideStore-Nightly.ipa",
			"https://github.com/LiveContainer/LiveContainer/releases/download/nightly/LiveContainer+SideStore.ipa"
	case spec.LiveContainer:
		return "LiveContainerSideStore.ipa",
			"https://github.com/LiveContainer/LiveContainer/releases/latest/download/LiveContainer+SideStore.ipa"
	case spec.Nightly:
		return "SideStore-Nightly.ipa",
			"https://github.com/SideStore/SideStore/releases/download/nightly/SideStore.ipa"
	default:
		return "SideStore.ipa",
			"https://github.com/SideStore/SideStore/releases/latest/download/SideStore.ipa"
	}
}

// InstallApp installs the package at appPath onto the selected device as a
// single-stage operation named "sideload". The first failure ends the
// operation.
func (e *Engine) InstallApp(ctx context.Context, appPath string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	op := newOperation("sideload", e.dispatcher)
	if err := op.Start(ctx, "install"); err != nil {
		return err
	}
	if err := op.Check(ctx, "install", e.installToDevice(ctx, appPath)); err != nil {
		e.metricInc(MetricInstallFailure)
		return err
	}
	if err := op.Complete(ctx, "install"); err != nil {
		return err
	}
	e.metricInc(MetricInstallSuccess)
	return nil
}

// InstallCompanion downloads the selected companion build, installs it,
// and places a pairing record into it — a three-stage operation
// (download, install, pairing) whose events chain without gaps.
func (e *Engine) InstallCompanion(ctx context.Context, spec CompanionSpec) error {
	if e == nil {
		return ErrEngineNotReady
	}

	op := newOperation("install_companion", e.dispatcher)
	if err := op.Start(ctx, "download"); err != nil {
		return err
	}

	filename, url := companionArtifact(spec)
	dir := e.config.Install.StoreDir
	if dir == "" {
		dir = os.TempDir()
	}
	dest := filepath.Join(dir, filename)
	// TODO: cache the artifact and skip the download when the release
	// version has not changed.
	if err := op.Check(ctx, "download", e.downloader.FetchTo(ctx, e.fs, url, dest)); err != nil {
		e.metricInc(MetricDownloadFailure)
		e.metricInc(MetricInstallFailure)
		return err
	}
	e.metricInc(MetricDownloadSuccess)

	if err := op.MoveOn(ctx, "download", "install"); err != nil {
		return err
	}
	device, ok := e.SelectedDevice()
	if !ok {
		e.metricInc(MetricInstallFailure)
		return op.Fail(ctx, "install", "no device selected")
	}
	if err := op.Check(ctx, "install", e.installToDevice(ctx, dest)); err != nil {
		e.metricInc(MetricInstallFailure)
		return err
	}

	if err := op.MoveOn(ctx, "install", "pairing"); err != nil {
		return err
	}
	if e.pairer == nil {
		e.metricInc(MetricInstallFailure)
		return op.Fail(ctx, "pairing", "no pairer configured")
	}
	ci, ciErr := e.pairer.CompanionInfo(ctx, device, spec.LiveContainer)
	info, err := StageResult(ctx, op, "pairing", ci, ciErr)
	if err != nil {
		e.metricInc(MetricInstallFailure)
		return err
	}
	if info == nil {
		e.metricInc(MetricInstallFailure)
		return op.Fail(ctx, "pairing", "could not find the companion bundle id")
	}
	if err := op.Check(ctx, "pairing", e.pairer.PlacePairing(ctx, device, info.BundleID, info.Path)); err != nil {
		e.metricInc(MetricInstallFailure)
		return err
	}

	if err := op.Complete(ctx, "pairing"); err != nil {
		return err
	}
	e.metricInc(MetricInstallSuccess)
	return nil
}

// installToDevice runs the device-side install under the current session
// and team, rewriting the two known recurring provider faults into
// actionable messages.
func (e *Engine) installToDevice(ctx context.Context, appPath string) error {
	device, ok := e.SelectedDevice()
	if !ok {
		return ErrNoDevice
	}
	if e.installer == nil {
		return errors.New("no installer configured")
	}

	session, team, err := e.resolveTeam(ctx)
	if err != nil {
		return err
	}

	e.logger.Info("installing app", "path", appPath, "device", device.Name)
	if err := e.installer.Install(ctx, session, team, device, appPath); err != nil {
		switch {
		case errors.Is(err, ErrTooManyCertificates),
			strings.Contains(strings.ToLower(err.Error()), "too many certificates"):
			return ErrTooManyCertificates
		case isCertificateParseDrift(err):
			e.metricInc(MetricCertParseDrift)
			return errors.New(parseDriftRemediation(err))
		default:
			return fmt.Errorf("install failed: %w", err)
		}
	}
	e.logger.Info("install completed", "path", appPath)
	return nil
}
