package ticket

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the ticket signature algorithm.
type SigningMethod string

const (
	// MethodHS256 signs with a shared secret. The default: tickets never
	// leave the process boundary except through the UI, so a process-local
	// random secret is sufficient.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 signs with an asymmetric key pair for deployments
	// where the UI verifies tickets independently.
	MethodEd25519 SigningMethod = "ed25519"
)

// ErrTicketInvalid is returned for any ticket that fails parsing,
// signature verification, or expiry checks.
var ErrTicketInvalid = errors.New("invalid challenge ticket")

// Config configures a Manager. An empty HS256 private key is replaced with
// a random process-local secret.
type Config struct {
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	// Window is the ticket lifetime; it should match the challenge
	// timeout.
	Window time.Duration
}

// Manager issues and verifies challenge tickets.
type Manager struct {
	config Config
}

type ticketClaims struct {
	RID string `json:"rid"`
	jwt.RegisteredClaims
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Window <= 0 {
		return nil, errors.New("invalid ticket window")
	}
	switch cfg.SigningMethod {
	case "", MethodHS256:
		cfg.SigningMethod = MethodHS256
		if len(cfg.PrivateKey) == 0 {
			secret := make([]byte, 32)
			if _, err := rand.Read(secret); err != nil {
				return nil, err
			}
			cfg.PrivateKey = secret
		}
	case MethodEd25519:
		if len(cfg.PrivateKey) != ed25519.PrivateKeySize {
			return nil, errors.New("ed25519 requires a raw private key")
		}
		if len(cfg.PublicKey) != ed25519.PublicKeySize {
			return nil, errors.New("ed25519 requires a raw public key")
		}
	default:
		return nil, errors.New("unsupported signing method")
	}
	return &Manager{config: cfg}, nil
}

// Issue creates a ticket for the given challenge request id, expiring at
// the end of the challenge window.
func (m *Manager) Issue(requestID string) (string, error) {
	now := time.Now()
	claims := ticketClaims{
		RID: requestID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.Window)),
		},
	}

	token := jwt.NewWithClaims(m.method(), claims)
	return token.SignedString(m.signKey())
}

// Verify checks the ticket and returns the embedded request id.
func (m *Manager) Verify(ticket string) (string, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{m.method().Alg()}))
	token, err := parser.ParseWithClaims(ticket, &ticketClaims{}, func(t *jwt.Token) (interface{}, error) {
		return m.verifyKey(), nil
	})
	if err != nil {
		return "", ErrTicketInvalid
	}
	claims, ok := token.Claims.(*ticketClaims)
	if !ok || !token.Valid || claims.RID == "" {
		return "", ErrTicketInvalid
	}
	return claims.RID, nil
}

func (m *Manager) method() jwt.SigningMethod {
	if m.config.SigningMethod == MethodEd25519 {
		return jwt.SigningMethodEdDSA
	}
	return jwt.SigningMethodHS256
}

func (m *Manager) signKey() interface{} {
	if m.config.SigningMethod == MethodEd25519 {
		return ed25519.PrivateKey(m.config.PrivateKey)
	}
	return m.config.PrivateKey
}

func (m *Manager) verifyKey() interface{} {
	if m.config.SigningMethod == MethodEd25519 {
		return ed25519.PublicKey(m.config.PublicKey)
	}
	return m.config.PrivateKey
}
