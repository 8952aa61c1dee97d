package sidegate

import (
	"context"

	"github.com/spf13/afero"
)

// DeviceType selects the provider-side device family an operation targets.
type DeviceType uint8

const (
	// DeviceIOS is the default device family.
	DeviceIOS DeviceType = iota
	// DeviceTVOS targets the TV device family.
	DeviceTVOS
)

func (d DeviceType) String() string {
	if d == DeviceTVOS {
		return "tvos"
	}
	return "ios"
}

// Session is the authenticated handle returned by [IdentityProvider.Login].
// It is shared by pointer between the session slot and any in-flight
// operation that captured it; invalidating the slot does not revoke
// handles already handed out.
type Session struct {
	// AccountID is the login identifier the session was created for.
	AccountID string
	// Token is the provider's opaque credential material. sidegate never
	// inspects it.
	Token string
}

// Team is the operating context under which portal operations run.
type Team struct {
	TeamID string `json:"teamId"`
	Name   string `json:"name"`
}

// CertificateRecord describes one development certificate as surfaced to
// callers. A record is valid only if CertificateID and SerialNumber are
// both non-empty; invalid records are dropped before being returned.
type CertificateRecord struct {
	Name          string `json:"name"`
	CertificateID string `json:"certificateId"`
	SerialNumber  string `json:"serialNumber"`
	MachineName   string `json:"machineName"`
	MachineID     string `json:"machineId"`
}

// Valid reports whether the record carries both identifiers required to
// act on it.
func (c CertificateRecord) Valid() bool {
	return c.CertificateID != "" && c.SerialNumber != ""
}

// AppID is one registered app identifier.
type AppID struct {
	AppIDID    string `json:"appIdId"`
	Name       string `json:"name"`
	Identifier string `json:"identifier"`
}

// AppIDList is the provider's app-id listing together with quota
// information.
type AppIDList struct {
	AppIDs            []AppID `json:"appIds"`
	MaxQuantity       int     `json:"maxQuantity"`
	AvailableQuantity int     `json:"availableQuantity"`
}

// CleanupResult is the best-effort ledger produced by [Engine.CleanupAll].
// It is mutated incrementally as entities are processed and never rolled
// back.
type CleanupResult struct {
	CertificatesRevoked uint32   `json:"certificatesRevoked"`
	AppIDsDeleted       uint32   `json:"appIdsDeleted"`
	Errors              []string `json:"errors"`
}

// Device identifies the locally attached device install operations target.
type Device struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CompanionInfo locates an installed companion app for pairing.
type CompanionInfo struct {
	BundleID string
	Path     string
}

// CompanionSpec selects which companion build [Engine.InstallCompanion]
// downloads and installs.
type CompanionSpec struct {
	Nightly       bool
	LiveContainer bool
}

// CredentialsFunc supplies the account id and secret to the identity
// provider at the moment it needs them. The pair is never retained by the
// Engine after the login exchange.
type CredentialsFunc func() (accountID, secret string, err error)

// ChallengeFunc blocks until an out-of-band challenge code is available or
// the challenge window elapses. The Engine wires the challenge broker's
// request path in here; providers call it at most once per login.
type ChallengeFunc func(ctx context.Context) (string, error)

// IdentityProvider performs the credential exchange against the remote
// identity service. Implementations call the ChallengeFunc from the login
// goroutine when the provider demands a second factor.
type IdentityProvider interface {
	Login(ctx context.Context, credentials CredentialsFunc, challenge ChallengeFunc, cfg ProviderConfig) (*Session, error)
}

// PortalAPI is the developer-portal capability of an authenticated
// session. Every call suspends on the network; failures with a structured
// provider code are returned as *PortalError.
type PortalAPI interface {
	ListTeams(ctx context.Context, session *Session) ([]Team, error)
	ListDevelopmentCertificates(ctx context.Context, session *Session, device DeviceType, team Team) ([]CertificateRecord, error)
	RevokeDevelopmentCertificate(ctx context.Context, session *Session, device DeviceType, team Team, serial string) error
	ListAppIDs(ctx context.Context, session *Session, device DeviceType, team Team) (AppIDList, error)
	DeleteAppID(ctx context.Context, session *Session, device DeviceType, team Team, appIDID string) error
}

// CredentialStore persists account secrets keyed by account id.
// Implementations live in the credstore package.
type CredentialStore interface {
	Set(accountID, secret string) error
	Get(accountID string) (string, error)
	Delete(accountID string) error
}

// Store is generic key-value persistence. Absent keys return
// ErrStoreKeyNotFound. Implementations live in the store package; the
// Engine uses it for the saved-account list and the certificate cache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// ChallengeNotifier is the UI boundary signalled when a login suspends on
// a challenge. The ticket must be passed back verbatim to
// [Engine.SubmitChallengeCode] together with the code.
type ChallengeNotifier interface {
	ChallengeRequired(ticket string)
}

// ChallengeNotifierFunc adapts a function to the ChallengeNotifier
// interface.
type ChallengeNotifierFunc func(ticket string)

// ChallengeRequired implements ChallengeNotifier.
func (f ChallengeNotifierFunc) ChallengeRequired(ticket string) { f(ticket) }

// Installer installs an app package onto a device under the given session
// and team. The signing and transfer mechanics are the implementation's
// concern.
type Installer interface {
	Install(ctx context.Context, session *Session, team Team, device Device, appPath string) error
}

// Pairer locates an installed companion app and places a pairing record
// into it.
type Pairer interface {
	CompanionInfo(ctx context.Context, device Device, liveContainer bool) (*CompanionInfo, error)
	PlacePairing(ctx context.Context, device Device, bundleID, path string) error
}

// Downloader fetches a blob over HTTP. The provided implementation guards
// against SSRF and refuses non-2xx responses.
type Downloader interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	FetchTo(ctx context.Context, fs afero.Fs, url, dest string) error
}
