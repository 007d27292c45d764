// Package session exposes the credentials of the signed-in user.
//
// Credentials are owned by an external auth collaborator. The composer only
// ever reads them through a Provider passed in at construction.
package session

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoSession is returned when no auth token or user id is available.
var ErrNoSession = errors.New("no active session")

// Provider reads the current session's credentials.
type Provider interface {
	AuthToken() (string, error)
	UserID() (string, error)
}

// =============================================================================
// STATIC
// =============================================================================

// Static is a fixed set of credentials.
type Static struct {
	Token string
	User  string
}

func (s Static) AuthToken() (string, error) { return nonEmpty(s.Token, "auth token") }
func (s Static) UserID() (string, error)    { return nonEmpty(s.User, "user id") }

// =============================================================================
// ENVIRONMENT
// =============================================================================

// EnvProvider reads credentials from environment variables.
type EnvProvider struct {
	TokenVar  string
	UserIDVar string
}

func (e EnvProvider) AuthToken() (string, error) {
	return nonEmpty(os.Getenv(e.TokenVar), "auth token ($"+e.TokenVar+")")
}

func (e EnvProvider) UserID() (string, error) {
	return nonEmpty(os.Getenv(e.UserIDVar), "user id ($"+e.UserIDVar+")")
}

// =============================================================================
// SESSION FILE
// =============================================================================

// fileSession is the on-disk layout of the session file.
type fileSession struct {
	Token  string `yaml:"token"`
	UserID string `yaml:"user_id"`
}

// FileProvider reads credentials from a YAML session file. The file is read
// on every call so a re-login by the auth collaborator is picked up.
type FileProvider struct {
	Path string
}

func (f FileProvider) AuthToken() (string, error) {
	s, err := f.read()
	if err != nil {
		return "", err
	}
	return nonEmpty(s.Token, "auth token")
}

func (f FileProvider) UserID() (string, error) {
	s, err := f.read()
	if err != nil {
		return "", err
	}
	return nonEmpty(s.UserID, "user id")
}

func (f FileProvider) read() (fileSession, error) {
	var s fileSession

	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, fmt.Errorf("%w: session file %s not found", ErrNoSession, f.Path)
		}
		return s, fmt.Errorf("failed to read session file: %w", err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse session file: %w", err)
	}

	return s, nil
}

// =============================================================================
// CHAIN
// =============================================================================

// Chain tries each provider in order. Token and user id always come from the
// same provider: the first one that supplies both. A provider failing with
// anything other than ErrNoSession stops the chain.
type Chain []Provider

func (c Chain) AuthToken() (string, error) {
	token, _, err := c.resolve()
	return token, err
}

func (c Chain) UserID() (string, error) {
	_, userID, err := c.resolve()
	return userID, err
}

func (c Chain) resolve() (string, string, error) {
	for _, p := range c {
		token, err := p.AuthToken()
		if errors.Is(err, ErrNoSession) {
			continue
		}
		if err != nil {
			return "", "", err
		}

		userID, err := p.UserID()
		if errors.Is(err, ErrNoSession) {
			continue
		}
		if err != nil {
			return "", "", err
		}

		return token, userID, nil
	}
	return "", "", ErrNoSession
}

func nonEmpty(value, what string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%w: missing %s", ErrNoSession, what)
	}
	return value, nil
}
