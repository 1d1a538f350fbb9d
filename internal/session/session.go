// Package session issues and resolves opaque bearer tokens.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/rotisserie/eris"

	"github.com/jaimenoain/ceeq/internal/model"
)

// Session is the authenticated identity attached to a bearer token.
type Session struct {
	UserID        string              `json:"user_id"`
	WorkspaceID   string              `json:"workspace_id"`
	WorkspaceType model.WorkspaceType `json:"workspace_type"`
	Role          model.Role          `json:"role"`
	Email         string              `json:"email"`
	IssuedAt      time.Time           `json:"issued_at"`
}

// Store persists sessions keyed by token. Lookup returns (nil, nil) for
// unknown or expired tokens.
type Store interface {
	Issue(ctx context.Context, sess Session) (string, error)
	Lookup(ctx context.Context, token string) (*Session, error)
	Revoke(ctx context.Context, token string) error
	Close() error
}

// newToken returns a 64-char hex token from 32 bytes of entropy.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", eris.Wrap(err, "session: generate token")
	}
	return hex.EncodeToString(buf), nil
}
