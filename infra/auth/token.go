package auth

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/CrestNiraj12/terminalmeme/domain"
)

// TokenProvider supplies an access token for API authentication.
type TokenProvider interface {
	AccessToken() (string, error)
}

// sessionClaims is the identity payload carried by session tokens. Wallet
// sessions are issued by the backend; guest sessions are minted locally.
type sessionClaims struct {
	Username string `json:"username,omitempty"`
	Wallet   string `json:"wallet,omitempty"`
	Guest    bool   `json:"guest,omitempty"`
	jwt.RegisteredClaims
}

// FileSession reads a session token from a file on disk and exposes the
// identity encoded in it. Signatures are verified by the backend, not here.
type FileSession struct {
	path string

	mu     sync.Mutex
	parser *jwt.Parser
}

// NewFileSession creates a session backed by the given file path.
func NewFileSession(path string) *FileSession {
	return &FileSession{path: path, parser: jwt.NewParser()}
}

// AccessToken reads and returns the token, trimming whitespace.
func (f *FileSession) AccessToken() (string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", domain.ErrNotSignedIn
	}
	if err != nil {
		return "", fmt.Errorf("reading session from %s: %w", f.path, err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("session file %s is empty", f.path)
	}

	return token, nil
}

// Current decodes the identity from the session token.
func (f *FileSession) Current() (domain.Identity, bool) {
	token, err := f.AccessToken()
	if err != nil {
		return domain.Identity{}, false
	}
	id, err := f.decode(token)
	if err != nil || !id.SignedIn() {
		return domain.Identity{}, false
	}
	return id, true
}

func (f *FileSession) decode(token string) (domain.Identity, error) {
	var claims sessionClaims
	if _, _, err := f.parser.ParseUnverified(token, &claims); err != nil {
		return domain.Identity{}, fmt.Errorf("decoding session: %w", err)
	}
	return domain.Identity{
		ID:       claims.Subject,
		Username: strings.TrimSpace(claims.Username),
		Wallet:   strings.TrimSpace(claims.Wallet),
		Guest:    claims.Guest,
	}, nil
}

// SignInGuest mints a local guest session for username and persists it.
// wallet is optional; without one the guest can browse and vote but not tip.
func (f *FileSession) SignInGuest(username, wallet string) (domain.Identity, error) {
	username = strings.TrimSpace(username)
	wallet = strings.TrimSpace(wallet)
	if username == "" {
		return domain.Identity{}, domain.ErrEmptyUsername
	}
	claims := sessionClaims{
		Username: username,
		Wallet:   wallet,
		Guest:    true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: "guest-" + uuid.NewString(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("minting guest session: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return domain.Identity{}, fmt.Errorf("creating session dir: %w", err)
	}
	if err := os.WriteFile(f.path, []byte(token+"\n"), 0o600); err != nil {
		return domain.Identity{}, fmt.Errorf("writing session: %w", err)
	}
	return domain.Identity{ID: claims.Subject, Username: username, Wallet: wallet, Guest: true}, nil
}

// SignOut removes the session file.
func (f *FileSession) SignOut() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session: %w", err)
	}
	return nil
}
