// Package auth handles account registration, login, and logout.
//
// Registration is the onboarding step: it creates the workspace and its
// first admin user together, rolling the workspace back if the user
// write fails, so no orphaned workspaces accumulate.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/jaimenoain/ceeq/internal/model"
	"github.com/jaimenoain/ceeq/internal/password"
	"github.com/jaimenoain/ceeq/internal/session"
	"github.com/jaimenoain/ceeq/internal/store"
)

var (
	ErrEmailTaken         = eris.New("auth: email already registered")
	ErrInvalidCredentials = eris.New("auth: invalid email or password")
	ErrInvalidInput       = eris.New("auth: missing required fields")
	ErrPasswordTooShort   = eris.Errorf("auth: password must be at least %d characters", password.MinLength)
)

// RegisterInput carries everything onboarding needs.
type RegisterInput struct {
	WorkspaceName string              `json:"workspace_name"`
	WorkspaceType model.WorkspaceType `json:"workspace_type"`
	Email         string              `json:"email"`
	Password      string              `json:"password"`
	FirstName     string              `json:"first_name"`
	LastName      string              `json:"last_name"`
	LinkedInURL   string              `json:"linkedin_url,omitempty"`
}

// Identity is the authenticated result returned to handlers.
type Identity struct {
	Token     string
	User      *model.User
	Workspace *model.Workspace
}

type Service struct {
	store    store.Store
	sessions session.Store
}

func New(st store.Store, sessions session.Store) *Service {
	return &Service{store: st, sessions: sessions}
}

// Register creates a workspace with its first admin user and signs the
// user in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Identity, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" || in.WorkspaceName == "" || !in.WorkspaceType.Valid() {
		return nil, ErrInvalidInput
	}

	existing, err := s.store.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, eris.Wrap(err, "auth: check email")
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := password.Hash(in.Password)
	if err != nil {
		if errors.Is(err, password.ErrTooShort) {
			return nil, ErrPasswordTooShort
		}
		return nil, eris.Wrap(err, "auth: hash password")
	}

	ws := &model.Workspace{Type: in.WorkspaceType, Name: in.WorkspaceName}
	if err := s.store.CreateWorkspace(ctx, ws); err != nil {
		return nil, eris.Wrap(err, "auth: create workspace")
	}

	user := &model.User{
		WorkspaceID:  ws.ID,
		Role:         model.RoleAdmin,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		LinkedInURL:  in.LinkedInURL,
		PasswordHash: hash,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		// Roll the workspace back so a retry with the same name starts clean.
		if delErr := s.store.DeleteWorkspace(ctx, ws.ID); delErr != nil {
			zap.L().Error("workspace rollback failed",
				zap.String("workspace_id", ws.ID),
				zap.Error(delErr))
		}
		return nil, eris.Wrap(err, "auth: create user")
	}

	token, err := s.issue(ctx, user, ws)
	if err != nil {
		return nil, err
	}
	zap.L().Info("workspace registered",
		zap.String("workspace_id", ws.ID),
		zap.String("workspace_type", string(ws.Type)))
	return &Identity{Token: token, User: user, Workspace: ws}, nil
}

// Login verifies credentials and issues a session token. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, plain string) (*Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, eris.Wrap(err, "auth: load user")
	}
	if user == nil || !password.Verify(user.PasswordHash, plain) {
		return nil, ErrInvalidCredentials
	}

	ws, err := s.store.GetWorkspace(ctx, user.WorkspaceID)
	if err != nil {
		return nil, eris.Wrap(err, "auth: load workspace")
	}
	if ws == nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issue(ctx, user, ws)
	if err != nil {
		return nil, err
	}
	return &Identity{Token: token, User: user, Workspace: ws}, nil
}

// Logout revokes the session token. Revoking an unknown token is not an
// error.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}

func (s *Service) issue(ctx context.Context, user *model.User, ws *model.Workspace) (string, error) {
	token, err := s.sessions.Issue(ctx, session.Session{
		UserID:        user.ID,
		WorkspaceID:   ws.ID,
		WorkspaceType: ws.Type,
		Role:          user.Role,
		Email:         user.Email,
	})
	if err != nil {
		return "", eris.Wrap(err, "auth: issue session")
	}
	return token, nil
}
