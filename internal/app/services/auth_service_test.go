package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appauth "github.com/EvilEvan/PvtClass-tracker/internal/app/auth"
	"github.com/EvilEvan/PvtClass-tracker/internal/app/models"
	"github.com/EvilEvan/PvtClass-tracker/internal/app/models/dto"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/apperrors"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/auth"
)

const testMaster = "Force-Override-42"

type authFixture struct {
	svc      *AuthService
	users    *fakeUserRepo
	system   *fakeSystemRepo
	requests *fakeRequestRepo
	notify   *fakeNotificationRepo
	mailer   *fakeMailer
	events   *recordingPublisher
	jwt      *auth.JWTService
}

func newAuthFixture(t *testing.T, configuredMaster string, users ...*models.User) *authFixture {
	t.Helper()
	f := &authFixture{
		users:  newFakeUserRepo(users...),
		system: &fakeSystemRepo{},
		notify: &fakeNotificationRepo{},
		mailer: &fakeMailer{},
		events: &recordingPublisher{},
		jwt: auth.NewJWTService(auth.JWTConfig{
			SecretKey:      "test-secret",
			AccessTokenExp: time.Hour,
			TokenIssuer:    "tutoring-center",
		}),
	}
	f.requests = newFakeRequestRepo(f.users)
	f.system.users = f.users
	master := NewMasterPassword(f.system, testHasher, configuredMaster)
	f.svc = NewAuthService(f.users, f.system, f.requests, f.notify, f.jwt, testHasher, master,
		f.mailer, f.events, AuthOptions{TempPasswordLength: 12}, testLogger)
	return f
}

func actorOf(u *models.User) appauth.Actor {
	return appauth.Actor{ID: u.ID, Email: u.Email, Role: u.Role}
}

func TestLogin(t *testing.T) {
	teacher := mustUser("obiwan@tutoring.center", models.RoleTeacher, "HighGround1")
	disabled := mustUser("vader@tutoring.center", models.RoleTeacher, "DarkSide99")
	disabled.IsActive = false
	f := newAuthFixture(t, testMaster, teacher, disabled)
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		resp, err := f.svc.Login(ctx, dto.LoginRequest{Email: "OBIWAN@tutoring.center", Password: "HighGround1"})
		require.NoError(t, err)
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, 3600, resp.ExpiresIn)
		assert.Equal(t, teacher.ID, resp.User.ID)

		claims, err := f.jwt.ValidateAndExtractClaims(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, models.RoleTeacher, claims.Role)

		stored, _ := f.users.GetByID(ctx, teacher.ID)
		assert.NotNil(t, stored.LastLoginAt)
	})

	t.Run("master password signs in any active user", func(t *testing.T) {
		resp, err := f.svc.Login(ctx, dto.LoginRequest{Email: teacher.Email, Password: testMaster})
		require.NoError(t, err)
		assert.Equal(t, teacher.Email, resp.User.Email)
	})

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", teacher.Email, "LowGround1"},
		{"unknown email", "nobody@tutoring.center", "HighGround1"},
		{"inactive user", disabled.Email, "DarkSide99"},
		{"inactive user with master", disabled.Email, testMaster},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Login(ctx, dto.LoginRequest{Email: tt.email, Password: tt.password})
			assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
		})
	}
}

func TestMasterPasswordPrefersStoredHash(t *testing.T) {
	f := newAuthFixture(t, testMaster)
	ctx := context.Background()

	ok, err := f.svc.ValidateMasterPassword(ctx, testMaster)
	require.NoError(t, err)
	assert.True(t, ok)

	hash, _ := testHasher.Hash("Stored-Secret-7")
	require.NoError(t, f.system.Initialize(ctx, hash))

	ok, _ = f.svc.ValidateMasterPassword(ctx, testMaster)
	assert.False(t, ok)
	ok, _ = f.svc.ValidateMasterPassword(ctx, "Stored-Secret-7")
	assert.True(t, ok)
	ok, _ = f.svc.ValidateMasterPassword(ctx, "")
	assert.False(t, ok)
}

func TestMasterPasswordUnsetNeverValidates(t *testing.T) {
	f := newAuthFixture(t, "")
	ok, err := f.svc.ValidateMasterPassword(context.Background(), "anything")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInitializeSystem(t *testing.T) {
	ctx := context.Background()
	req := dto.InitializeSystemRequest{
		MasterPassword: testMaster,
		AdminEmail:     "yoda@tutoring.center",
		AdminFirstName: "Master",
		AdminLastName:  "Yoda",
		AdminPassword:  "Dagobah900",
	}

	t.Run("creates admin and stores master hash", func(t *testing.T) {
		f := newAuthFixture(t, testMaster)
		admin, err := f.svc.InitializeSystem(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, admin.Role)
		assert.True(t, admin.PasswordChanged)
		require.NotNil(t, f.system.cfg)
		assert.True(t, testHasher.Compare(f.system.cfg.MasterPasswordHash, testMaster))

		status, err := f.svc.SystemStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, &dto.SystemStatusResponse{Initialized: true, HasAdmin: true, UserCount: 1}, status)

		_, err = f.svc.InitializeSystem(ctx, req)
		assert.ErrorIs(t, err, apperrors.ErrSystemAlreadyInitialized)
	})

	t.Run("configured master must match", func(t *testing.T) {
		f := newAuthFixture(t, testMaster)
		bad := req
		bad.MasterPassword = "guess"
		_, err := f.svc.InitializeSystem(ctx, bad)
		assert.ErrorIs(t, err, apperrors.ErrInvalidMasterPassword)
		assert.Nil(t, f.system.cfg)
	})

	t.Run("supplied master becomes the master when none configured", func(t *testing.T) {
		f := newAuthFixture(t, "")
		custom := req
		custom.MasterPassword = "Chosen-Master-1"
		_, err := f.svc.InitializeSystem(ctx, custom)
		require.NoError(t, err)
		ok, _ := f.svc.ValidateMasterPassword(ctx, "Chosen-Master-1")
		assert.True(t, ok)
	})

	t.Run("weak admin password", func(t *testing.T) {
		f := newAuthFixture(t, testMaster)
		weak := req
		weak.AdminPassword = "password"
		_, err := f.svc.InitializeSystem(ctx, weak)
		assert.ErrorIs(t, err, apperrors.ErrInvalidPassword)
	})

	t.Run("failed admin insert can be retried", func(t *testing.T) {
		f := newAuthFixture(t, testMaster)
		f.users.createErr = errors.New("connection reset")

		_, err := f.svc.InitializeSystem(ctx, req)
		require.Error(t, err)
		assert.Nil(t, f.system.cfg)

		status, err := f.svc.SystemStatus(ctx)
		require.NoError(t, err)
		assert.False(t, status.Initialized)

		f.users.createErr = nil
		admin, err := f.svc.InitializeSystem(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, req.AdminEmail, admin.Email)
		assert.NotNil(t, f.system.cfg)
	})

	t.Run("chosen master longer than bcrypt accepts", func(t *testing.T) {
		f := newAuthFixture(t, "")
		long := req
		long.MasterPassword = strings.Repeat("Coruscant1", 8)
		_, err := f.svc.InitializeSystem(ctx, long)
		assert.ErrorIs(t, err, apperrors.ErrInvalidPassword)
		assert.Nil(t, f.system.cfg)
	})
}

func TestCreateUser(t *testing.T) {
	admin := mustUser("mace@tutoring.center", models.RoleAdmin, "Purple1234")
	f := newAuthFixture(t, testMaster, admin)
	ctx := context.Background()

	user, err := f.svc.CreateUser(ctx, actorOf(admin), dto.CreateUserRequest{
		Email: "Kit@Tutoring.Center", FirstName: "Kit", LastName: "Fisto", Password: "Fisto1234", Role: models.RoleTeacher,
	})
	require.NoError(t, err)
	assert.Equal(t, "kit@tutoring.center", user.Email)
	assert.False(t, user.PasswordChanged)

	_, err = f.svc.CreateUser(ctx, actorOf(admin), dto.CreateUserRequest{
		Email: "kit@tutoring.center", FirstName: "Kit", LastName: "Again", Password: "Fisto1234", Role: models.RoleTeacher,
	})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)

	_, err = f.svc.CreateUser(ctx, actorOf(admin), dto.CreateUserRequest{
		Email: "plo@tutoring.center", FirstName: "Plo", LastName: "Koon", Password: "Koon12345", Role: models.RoleAdmin,
	})
	require.NoError(t, err)
	assert.NotNil(t, f.system.cfg, "creating an admin initializes the system config")

	_, err = f.svc.CreateUser(ctx, actorOf(admin), dto.CreateUserRequest{
		Email: "shaak@tutoring.center", FirstName: "Shaak", LastName: "Ti", Password: strings.Repeat("Shili12345", 8), Role: models.RoleTeacher,
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidPassword)
}

func TestCreateAdminLogsSystemConfigFailure(t *testing.T) {
	admin := mustUser("mace@tutoring.center", models.RoleAdmin, "Purple1234")
	f := newAuthFixture(t, testMaster, admin)
	f.system.getErr = errors.New("relation \"system_config\" does not exist")
	var logs bytes.Buffer
	f.svc.logger = zerolog.New(&logs)

	_, err := f.svc.CreateUser(context.Background(), actorOf(admin), dto.CreateUserRequest{
		Email: "depa@tutoring.center", FirstName: "Depa", LastName: "Billaba", Password: "Billaba123", Role: models.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Nil(t, f.system.cfg)
	assert.Contains(t, logs.String(), "Failed to load system config")
	assert.Contains(t, logs.String(), "system_config")
}

func TestCreateUserByRole(t *testing.T) {
	admin := mustUser("mace@tutoring.center", models.RoleAdmin, "Purple1234")
	moderator := mustUser("ahsoka@tutoring.center", models.RoleModerator, "Snips1234")
	teacher := mustUser("kenobi@tutoring.center", models.RoleTeacher, "HighGround1")
	f := newAuthFixture(t, testMaster, admin, moderator, teacher)
	ctx := context.Background()

	newReq := func(email string, role models.RoleType, pw string) dto.CreateUserByRoleRequest {
		return dto.CreateUserByRoleRequest{Email: email, FirstName: "New", LastName: "User", Role: role, RequestorPassword: pw}
	}

	t.Run("admin creates moderator with temporary password", func(t *testing.T) {
		resp, err := f.svc.CreateUserByRole(ctx, actorOf(admin), newReq("rex@tutoring.center", models.RoleModerator, "Purple1234"))
		require.NoError(t, err)
		assert.Len(t, resp.TemporaryPassword, 12)
		assert.False(t, resp.User.PasswordChanged)

		stored, err := f.users.GetByEmail(ctx, "rex@tutoring.center")
		require.NoError(t, err)
		assert.True(t, testHasher.Compare(stored.Password, resp.TemporaryPassword))
	})

	t.Run("moderator creates teacher using master password", func(t *testing.T) {
		_, err := f.svc.CreateUserByRole(ctx, actorOf(moderator), newReq("cody@tutoring.center", models.RoleTeacher, testMaster))
		assert.NoError(t, err)
	})

	t.Run("moderator cannot create moderator", func(t *testing.T) {
		_, err := f.svc.CreateUserByRole(ctx, actorOf(moderator), newReq("fives@tutoring.center", models.RoleModerator, "Snips1234"))
		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	})

	t.Run("teacher cannot create anyone", func(t *testing.T) {
		_, err := f.svc.CreateUserByRole(ctx, actorOf(teacher), newReq("echo@tutoring.center", models.RoleTeacher, "HighGround1"))
		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	})

	t.Run("wrong requestor password", func(t *testing.T) {
		_, err := f.svc.CreateUserByRole(ctx, actorOf(admin), newReq("hunter@tutoring.center", models.RoleTeacher, "nope"))
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})
}

func TestPasswordRequestWorkflow(t *testing.T) {
	admin := mustUser("mace@tutoring.center", models.RoleAdmin, "Purple1234")
	f := newAuthFixture(t, testMaster, admin)
	ctx := context.Background()
	_, err := f.notify.Upsert(ctx, "council@tutoring.center", true)
	require.NoError(t, err)
	_, err = f.notify.Upsert(ctx, "muted@tutoring.center", false)
	require.NoError(t, err)

	pr, err := f.svc.RequestPasswordCreation(ctx, dto.PasswordCreationRequest{
		Email: "Qui-Gon@tutoring.center", FirstName: "Qui-Gon", LastName: "Jinn", Role: models.RoleTeacher, Reason: "New padawan class",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PasswordRequestPending, pr.Status)
	assert.Equal(t, "qui-gon@tutoring.center", pr.Email)

	require.Len(t, f.mailer.to, 1)
	assert.ElementsMatch(t, []string{"council@tutoring.center", "mace@tutoring.center"}, f.mailer.to[0])
	assert.Equal(t, []string{"password_request.created"}, f.events.types())

	_, err = f.svc.RequestPasswordCreation(ctx, dto.PasswordCreationRequest{
		Email: "qui-gon@tutoring.center", FirstName: "Qui-Gon", LastName: "Jinn", Role: models.RoleTeacher,
	})
	assert.ErrorIs(t, err, apperrors.ErrPasswordRequestExists)

	_, err = f.svc.RequestPasswordCreation(ctx, dto.PasswordCreationRequest{
		Email: admin.Email, FirstName: "Mace", LastName: "Windu", Role: models.RoleModerator,
	})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)

	pending, err := f.svc.PendingPasswordRequests(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	_, err = f.svc.ApprovePasswordRequest(ctx, actorOf(admin), pr.ID, dto.ApprovePasswordRequestRequest{Password: "Jinn12345", MasterPassword: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidMasterPassword)

	_, err = f.svc.ApprovePasswordRequest(ctx, actorOf(admin), uuid.New(), dto.ApprovePasswordRequestRequest{Password: "Jinn12345", MasterPassword: testMaster})
	assert.ErrorIs(t, err, apperrors.ErrPasswordRequestNotFound)

	resp, err := f.svc.ApprovePasswordRequest(ctx, actorOf(admin), pr.ID, dto.ApprovePasswordRequestRequest{Password: "Jinn12345", MasterPassword: testMaster})
	require.NoError(t, err)
	assert.Equal(t, models.PasswordRequestApproved, resp.Request.Status)
	require.NotNil(t, resp.Request.ReviewedBy)
	assert.Equal(t, admin.ID, *resp.Request.ReviewedBy)
	assert.Equal(t, models.RoleTeacher, resp.User.Role)
	assert.Equal(t, []string{"qui-gon@tutoring.center"}, f.mailer.approved)

	login, err := f.svc.Login(ctx, dto.LoginRequest{Email: "qui-gon@tutoring.center", Password: "Jinn12345"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	_, err = f.svc.ApprovePasswordRequest(ctx, actorOf(admin), pr.ID, dto.ApprovePasswordRequestRequest{Password: "Jinn12345", MasterPassword: testMaster})
	assert.ErrorIs(t, err, apperrors.ErrPasswordRequestReviewed)
}

func TestRejectPasswordRequest(t *testing.T) {
	admin := mustUser("mace@tutoring.center", models.RoleAdmin, "Purple1234")
	f := newAuthFixture(t, testMaster, admin)
	ctx := context.Background()

	pr, err := f.svc.RequestPasswordCreation(ctx, dto.PasswordCreationRequest{
		Email: "dooku@tutoring.center", FirstName: "Count", LastName: "Dooku", Role: models.RoleModerator,
	})
	require.NoError(t, err)

	rejected, err := f.svc.RejectPasswordRequest(ctx, actorOf(admin), pr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PasswordRequestRejected, rejected.Status)

	_, err = f.svc.RejectPasswordRequest(ctx, actorOf(admin), pr.ID)
	assert.ErrorIs(t, err, apperrors.ErrPasswordRequestReviewed)

	// a rejected request does not block a new one
	_, err = f.svc.RequestPasswordCreation(ctx, dto.PasswordCreationRequest{
		Email: "dooku@tutoring.center", FirstName: "Count", LastName: "Dooku", Role: models.RoleModerator,
	})
	assert.NoError(t, err)
}

func TestNotificationSettings(t *testing.T) {
	f := newAuthFixture(t, testMaster)
	ctx := context.Background()

	setting, err := f.svc.SaveNotificationSetting(ctx, dto.NotificationSettingRequest{ModeratorEmail: " Council@Tutoring.Center "})
	require.NoError(t, err)
	assert.Equal(t, "council@tutoring.center", setting.ModeratorEmail)
	assert.True(t, setting.EnableEmailNotifications)

	off := false
	_, err = f.svc.SaveNotificationSetting(ctx, dto.NotificationSettingRequest{ModeratorEmail: "council@tutoring.center", EnableEmailNotifications: &off})
	require.NoError(t, err)

	all, err := f.svc.NotificationSettings(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].EnableEmailNotifications)
}
