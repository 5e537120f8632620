package crypto

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

var (
	ErrInvalidToken     = errors.New("malformed session token")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrSignatureExpired = errors.New("signature timestamp expired")
)

const sessionKeyInfo = "dashboard session token v1"

// Signer signs and verifies session tokens with an Ed25519 key derived
// from the configured session secret.
type Signer struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
	now  func() time.Time
}

// NewSigner derives the signing key from secret with HKDF-SHA256.
func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("empty session secret")
	}
	seed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(sessionKeyInfo)), seed); err != nil {
		return nil, err
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Signer{
		priv: priv,
		pub:  priv.Public().(ed25519.PublicKey),
		now:  time.Now,
	}, nil
}

// SignaturePayload creates the canonical data to sign.
// Format: sessionID|expiresUnix
func SignaturePayload(sessionID uuid.UUID, expiresAt int64) []byte {
	return []byte(fmt.Sprintf("%s|%d", sessionID, expiresAt))
}

// Sign returns the cookie token for a session: id.expiresUnix.signature
func (s *Signer) Sign(sessionID uuid.UUID, expiresAt time.Time) string {
	exp := expiresAt.Unix()
	sig := ed25519.Sign(s.priv, SignaturePayload(sessionID, exp))
	return fmt.Sprintf("%s.%d.%s", sessionID, exp, base64.RawURLEncoding.EncodeToString(sig))
}

// Verify checks a token's signature and expiry and returns its session ID.
func (s *Signer) Verify(token string) (uuid.UUID, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return uuid.Nil, ErrInvalidToken
	}

	sessionID, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: session id", ErrInvalidToken)
	}
	exp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: expiry", ErrInvalidToken)
	}
	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid base64 encoding", ErrInvalidSignature)
	}

	if !ed25519.Verify(s.pub, SignaturePayload(sessionID, exp), signature) {
		return uuid.Nil, ErrInvalidSignature
	}
	if !s.now().Before(time.Unix(exp, 0)) {
		return uuid.Nil, ErrSignatureExpired
	}

	return sessionID, nil
}
