package auth

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaimenoain/ceeq/internal/model"
	"github.com/jaimenoain/ceeq/internal/session"
	"github.com/jaimenoain/ceeq/internal/store"
)

type userCreateFailStore struct {
	store.Store
}

func (f *userCreateFailStore) CreateUser(ctx context.Context, u *model.User) error {
	return eris.New("disk full")
}

func newTestService(t *testing.T) (*Service, *store.MemoryStore, session.Store) {
	t.Helper()
	mem := store.NewMemory()
	sessions := session.NewMemoryStore(time.Hour)
	return New(mem, sessions), mem, sessions
}

func validInput() RegisterInput {
	return RegisterInput{
		WorkspaceName: "Alpha Search",
		WorkspaceType: model.WorkspaceSearcher,
		Email:         "Casey@Example.com",
		Password:      "correct-horse-battery",
		FirstName:     "Casey",
		LastName:      "Nguyen",
	}
}

func TestRegister(t *testing.T) {
	t.Parallel()
	svc, mem, sessions := newTestService(t)
	ctx := context.Background()

	id, err := svc.Register(ctx, validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, id.Token)
	assert.Equal(t, model.RoleAdmin, id.User.Role)
	assert.Equal(t, "casey@example.com", id.User.Email)
	assert.Equal(t, model.WorkspaceSearcher, id.Workspace.Type)

	sess, err := sessions.Lookup(ctx, id.Token)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, id.Workspace.ID, sess.WorkspaceID)

	ws, err := mem.GetWorkspace(ctx, id.Workspace.ID)
	require.NoError(t, err)
	assert.NotNil(t, ws)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	_, err = svc.Register(ctx, validInput())
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	in := validInput()
	in.Email = ""
	_, err := svc.Register(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidInput)

	in = validInput()
	in.WorkspaceType = model.WorkspaceType("guild")
	_, err = svc.Register(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidInput)

	in = validInput()
	in.Password = "short"
	_, err = svc.Register(ctx, in)
	require.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestRegister_RollsBackWorkspaceOnUserFailure(t *testing.T) {
	t.Parallel()
	mem := store.NewMemory()
	svc := New(&userCreateFailStore{Store: mem}, session.NewMemoryStore(time.Hour))
	ctx := context.Background()

	_, err := svc.Register(ctx, validInput())
	require.Error(t, err)

	// The half-created workspace is gone; a retry starts clean.
	_, err = New(mem, session.NewMemoryStore(time.Hour)).Register(ctx, validInput())
	require.NoError(t, err)
}

func TestLogin(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	id, err := svc.Login(ctx, "casey@example.com", "correct-horse-battery")
	require.NoError(t, err)
	assert.NotEmpty(t, id.Token)

	_, err = svc.Login(ctx, "casey@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown email reads the same as a bad password.
	_, err = svc.Login(ctx, "nobody@example.com", "correct-horse-battery")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogout(t *testing.T) {
	t.Parallel()
	svc, _, sessions := newTestService(t)
	ctx := context.Background()

	id, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, id.Token))
	sess, err := sessions.Lookup(ctx, id.Token)
	require.NoError(t, err)
	assert.Nil(t, sess)

	require.NoError(t, svc.Logout(ctx, "unknown-token"))
}
