package admin

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EvilEvan/PvtClass-tracker/internal/app/models"
	"github.com/EvilEvan/PvtClass-tracker/internal/app/services"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/apperrors"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/auth"
)

var hasher = auth.NewPasswordHasher(4)

type memUsers struct {
	services.UserRepository
	byEmail map[string]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{byEmail: map[string]*models.User{}}
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	u.ID = uuid.New()
	m.byEmail[strings.ToLower(u.Email)] = u
	return nil
}

func (m *memUsers) EmailExists(_ context.Context, email string) (bool, error) {
	_, ok := m.byEmail[strings.ToLower(email)]
	return ok, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id uuid.UUID, hash string, changed bool) error {
	for _, u := range m.byEmail {
		if u.ID == id {
			u.Password = hash
			u.PasswordChanged = changed
			return nil
		}
	}
	return apperrors.ErrUserNotFound
}

type memSystem struct {
	cfg      *models.SystemConfig
	users    *memUsers
	adminErr error
}

func (m *memSystem) Get(context.Context) (*models.SystemConfig, error) {
	return m.cfg, nil
}

func (m *memSystem) Initialize(_ context.Context, hash string) error {
	if m.cfg != nil {
		return apperrors.ErrSystemAlreadyInitialized
	}
	m.cfg = &models.SystemConfig{ID: 1, MasterPasswordHash: hash}
	return nil
}

func (m *memSystem) InitializeWithAdmin(ctx context.Context, hash string, admin *models.User) error {
	if m.adminErr != nil {
		return m.adminErr
	}
	if err := m.Initialize(ctx, hash); err != nil {
		return err
	}
	return m.users.Create(ctx, admin)
}

func TestCreateAdmin(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers()
	system := &memSystem{users: users}
	accounts := NewAccounts(users, system, hasher, "Order66!", zerolog.Nop())

	admin, err := accounts.CreateAdmin(ctx, CreateAdminInput{
		Email:     " Mace.Windu@Tutoring.Center ",
		FirstName: "Mace",
		LastName:  "Windu",
		Password:  "Vaapad123",
	})
	require.NoError(t, err)
	assert.Equal(t, "mace.windu@tutoring.center", admin.Email)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.True(t, admin.IsActive)
	assert.True(t, admin.PasswordChanged)
	assert.True(t, hasher.Compare(admin.Password, "Vaapad123"))

	require.NotNil(t, system.cfg)
	assert.True(t, hasher.Compare(system.cfg.MasterPasswordHash, "Order66!"))

	_, err = accounts.CreateAdmin(ctx, CreateAdminInput{Email: "mace.windu@tutoring.center", FirstName: "Mace", Password: "Vaapad123"})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)

	_, err = accounts.CreateAdmin(ctx, CreateAdminInput{Email: "jarjar@tutoring.center", FirstName: "Jar Jar", Password: "meesa"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidPassword)
}

func TestCreateAdminLeavesNothingBehindOnFailure(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers()
	system := &memSystem{users: users, adminErr: errors.New("connection reset")}
	accounts := NewAccounts(users, system, hasher, "Order66!", zerolog.Nop())
	in := CreateAdminInput{Email: "luminara@tutoring.center", FirstName: "Luminara", Password: "Mirial1234"}

	_, err := accounts.CreateAdmin(ctx, in)
	require.Error(t, err)
	assert.Nil(t, system.cfg)
	exists, _ := users.EmailExists(ctx, in.Email)
	assert.False(t, exists)

	system.adminErr = nil
	_, err = accounts.CreateAdmin(ctx, in)
	require.NoError(t, err)
	assert.NotNil(t, system.cfg)
}

func TestCreateAdminWithoutMasterPassword(t *testing.T) {
	system := &memSystem{}
	accounts := NewAccounts(newMemUsers(), system, hasher, "", zerolog.Nop())

	_, err := accounts.CreateAdmin(context.Background(), CreateAdminInput{Email: "plo.koon@tutoring.center", FirstName: "Plo", Password: "Dorin1234"})
	require.NoError(t, err)
	assert.Nil(t, system.cfg)
}

func TestResetPassword(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers()
	accounts := NewAccounts(users, &memSystem{}, hasher, "", zerolog.Nop())
	_, err := accounts.CreateAdmin(ctx, CreateAdminInput{Email: "ki.adi@tutoring.center", FirstName: "Ki-Adi", Password: "Cerea1234"})
	require.NoError(t, err)

	require.NoError(t, accounts.ResetPassword(ctx, "ki.adi@tutoring.center", "Mundi5678"))
	u, err := users.GetByEmail(ctx, "ki.adi@tutoring.center")
	require.NoError(t, err)
	assert.True(t, hasher.Compare(u.Password, "Mundi5678"))

	assert.ErrorIs(t, accounts.ResetPassword(ctx, "nobody@tutoring.center", "Mundi5678"), apperrors.ErrUserNotFound)
	assert.ErrorIs(t, accounts.ResetPassword(ctx, "ki.adi@tutoring.center", "short"), apperrors.ErrInvalidPassword)
}
