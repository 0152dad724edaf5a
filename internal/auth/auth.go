// Package auth keeps the bearer token used against a remote collection.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const credFileName = "credentials.json"

// EnvToken overrides any saved token.
const EnvToken = "TADA_TOKEN"

type TokenInfo struct {
	Token     string     `json:"token"`
	Source    string     `json:"source"`     // "env" | "file"
	CreatedAt time.Time  `json:"created_at"` // when we saved to file
	ExpiresAt *time.Time `json:"expires_at"` // optional (server-provided)
}

// Expired reports whether the token carries an expiry in the past.
func (t *TokenInfo) Expired(now time.Time) bool {
	return t != nil && t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}

// Creds reads and writes <Dir>/credentials.json.
type Creds struct {
	Dir    string
	Getenv func(string) string
}

// New returns credentials kept under dir (normally the data dir, ~/.tada).
func New(dir string) *Creds {
	return &Creds{Dir: dir, Getenv: os.Getenv}
}

func (c *Creds) credFilePath() (string, error) {
	if strings.TrimSpace(c.Dir) == "" {
		return "", errors.New("credentials dir is empty")
	}
	return filepath.Join(c.Dir, credFileName), nil
}

// Get returns the current token, or nil when not logged in.
func (c *Creds) Get() (*TokenInfo, error) {
	// 1) env override
	getenv := c.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if env := strings.TrimSpace(getenv(EnvToken)); env != "" {
		return &TokenInfo{Token: stripBearer(env), Source: "env"}, nil
	}

	// 2) file
	p, err := c.credFilePath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil // not logged in
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	var ti TokenInfo
	if err := json.Unmarshal(b, &ti); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	ti.Token = stripBearer(ti.Token)
	return &ti, nil
}

// Token is Get reduced to the token string; "" when not logged in or expired.
func (c *Creds) Token() (string, error) {
	ti, err := c.Get()
	if err != nil || ti == nil {
		return "", err
	}
	if ti.Expired(time.Now()) {
		return "", fmt.Errorf("saved token expired at %s; run `todo login` again", ti.ExpiresAt.Format(time.RFC3339))
	}
	return ti.Token, nil
}

// Set saves token with owner-only permissions.
func (c *Creds) Set(token string, expires *time.Time) error {
	token = stripBearer(strings.TrimSpace(token))
	if token == "" {
		return fmt.Errorf("empty token")
	}
	p, err := c.credFilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.Dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	ti := TokenInfo{
		Token:     token,
		Source:    "file",
		CreatedAt: time.Now(),
		ExpiresAt: expires,
	}
	b, err := json.MarshalIndent(ti, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.WriteFile(p, b, 0o600); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// Delete forgets the saved token. Not being logged in is fine.
func (c *Creds) Delete() error {
	p, err := c.credFilePath()
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

func stripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}
