package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/EvilEvan/PvtClass-tracker/internal/app/models"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/apperrors"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/auth"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/email"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/websocket"
)

var testLogger = zerolog.Nop()

// testHasher uses the minimum bcrypt cost to keep tests fast
var testHasher = auth.NewPasswordHasher(4)

type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*models.User
	createErr error
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[uuid.UUID]*models.User{}}
	for _, u := range users {
		_ = r.Create(context.Background(), u)
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *fakeUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r *fakeUserRepo) List(_ context.Context, filter models.UserFilter) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, u := range r.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *fakeUserRepo) Count(ctx context.Context, role *models.RoleType) (int, error) {
	users, _ := r.List(ctx, models.UserFilter{Role: role})
	return len(users), nil
}

// lastAdmin reports whether id is the only administrator. Callers hold r.mu.
func (r *fakeUserRepo) lastAdmin(id uuid.UUID) bool {
	u, ok := r.users[id]
	if !ok || u.Role != models.RoleAdmin {
		return false
	}
	admins := 0
	for _, other := range r.users {
		if other.Role == models.RoleAdmin {
			admins++
		}
	}
	return admins <= 1
}

func (r *fakeUserRepo) UpdateRole(_ context.Context, id uuid.UUID, role models.RoleType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	if role != models.RoleAdmin && r.lastAdmin(id) {
		return apperrors.ErrLastAdmin
	}
	u.Role = role
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string, changed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.Password = hash
	u.PasswordChanged = changed
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		now := time.Now()
		u.LastLoginAt = &now
	}
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return apperrors.ErrUserNotFound
	}
	if r.lastAdmin(id) {
		return apperrors.ErrLastAdmin
	}
	delete(r.users, id)
	return nil
}

type fakeSystemRepo struct {
	cfg    *models.SystemConfig
	getErr error
	// users receives the administrator of InitializeWithAdmin
	users *fakeUserRepo
}

func (r *fakeSystemRepo) Get(context.Context) (*models.SystemConfig, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.cfg, nil
}

func (r *fakeSystemRepo) Initialize(_ context.Context, hash string) error {
	if r.cfg != nil {
		return apperrors.ErrSystemAlreadyInitialized
	}
	r.cfg = &models.SystemConfig{ID: 1, MasterPasswordHash: hash, InitializedAt: time.Now()}
	return nil
}

// InitializeWithAdmin only records the config when the administrator insert succeeds
func (r *fakeSystemRepo) InitializeWithAdmin(ctx context.Context, hash string, admin *models.User) error {
	if r.cfg != nil {
		return apperrors.ErrSystemAlreadyInitialized
	}
	if err := r.users.Create(ctx, admin); err != nil {
		return err
	}
	return r.Initialize(ctx, hash)
}

type fakeNotificationRepo struct {
	settings []*models.NotificationSetting
}

func (r *fakeNotificationRepo) Upsert(_ context.Context, email string, enabled bool) (*models.NotificationSetting, error) {
	for _, s := range r.settings {
		if s.ModeratorEmail == email {
			s.EnableEmailNotifications = enabled
			return s, nil
		}
	}
	s := &models.NotificationSetting{ID: uuid.New(), ModeratorEmail: email, EnableEmailNotifications: enabled, CreatedAt: time.Now()}
	r.settings = append(r.settings, s)
	return s, nil
}

func (r *fakeNotificationRepo) List(context.Context) ([]*models.NotificationSetting, error) {
	return r.settings, nil
}

// fakeRequestRepo approves against the shared user fake so approval behaves atomically
type fakeRequestRepo struct {
	users    *fakeUserRepo
	requests map[uuid.UUID]*models.PasswordRequest
}

func newFakeRequestRepo(users *fakeUserRepo) *fakeRequestRepo {
	return &fakeRequestRepo{users: users, requests: map[uuid.UUID]*models.PasswordRequest{}}
}

func (r *fakeRequestRepo) Create(_ context.Context, req *models.PasswordRequest) error {
	for _, existing := range r.requests {
		if existing.Status == models.PasswordRequestPending && strings.EqualFold(existing.Email, req.Email) {
			return apperrors.ErrPasswordRequestExists
		}
	}
	req.ID = uuid.New()
	req.Status = models.PasswordRequestPending
	req.CreatedAt = time.Now()
	cp := *req
	r.requests[req.ID] = &cp
	return nil
}

func (r *fakeRequestRepo) GetByID(_ context.Context, id uuid.UUID) (*models.PasswordRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, apperrors.ErrPasswordRequestNotFound
	}
	cp := *req
	return &cp, nil
}

func (r *fakeRequestRepo) HasPending(_ context.Context, email string) (bool, error) {
	for _, req := range r.requests {
		if req.Status == models.PasswordRequestPending && strings.EqualFold(req.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRequestRepo) ListByStatus(_ context.Context, status models.PasswordRequestStatus) ([]*models.PasswordRequest, error) {
	var out []*models.PasswordRequest
	for _, req := range r.requests {
		if req.Status == status {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *fakeRequestRepo) review(id, reviewerID uuid.UUID, status models.PasswordRequestStatus) (*models.PasswordRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, apperrors.ErrPasswordRequestNotFound
	}
	if req.Status != models.PasswordRequestPending {
		return nil, apperrors.ErrPasswordRequestReviewed
	}
	now := time.Now()
	req.Status = status
	req.ReviewedBy = &reviewerID
	req.ReviewedAt = &now
	cp := *req
	return &cp, nil
}

func (r *fakeRequestRepo) Approve(ctx context.Context, id, reviewerID uuid.UUID, user *models.User) (*models.PasswordRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, apperrors.ErrPasswordRequestNotFound
	}
	if req.Status != models.PasswordRequestPending {
		return nil, apperrors.ErrPasswordRequestReviewed
	}
	user.Email = req.Email
	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Role = req.Role
	if err := r.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return r.review(id, reviewerID, models.PasswordRequestApproved)
}

func (r *fakeRequestRepo) Reject(_ context.Context, id, reviewerID uuid.UUID) (*models.PasswordRequest, error) {
	return r.review(id, reviewerID, models.PasswordRequestRejected)
}

type fakeStudentRepo struct {
	users    *fakeUserRepo
	students map[uuid.UUID]*models.Student
}

func newFakeStudentRepo(users *fakeUserRepo) *fakeStudentRepo {
	return &fakeStudentRepo{users: users, students: map[uuid.UUID]*models.Student{}}
}

func (r *fakeStudentRepo) Create(_ context.Context, s *models.Student) error {
	for _, existing := range r.students {
		if strings.EqualFold(existing.Email, s.Email) {
			return apperrors.NewConflictError("a student with this email already exists")
		}
	}
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	cp := *s
	r.students[s.ID] = &cp
	return nil
}

func (r *fakeStudentRepo) withTeacher(s *models.Student) *models.Student {
	cp := *s
	cp.AssignedTeacher = nil
	if cp.AssignedTeacherID != nil {
		if t, err := r.users.GetByID(context.Background(), *cp.AssignedTeacherID); err == nil {
			cp.AssignedTeacher = models.NewPersonSummary(t.ID, t.FirstName, t.LastName, t.Email)
		}
	}
	return &cp
}

func (r *fakeStudentRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Student, error) {
	s, ok := r.students[id]
	if !ok {
		return nil, apperrors.ErrStudentNotFound
	}
	return r.withTeacher(s), nil
}

func (r *fakeStudentRepo) List(_ context.Context, filter models.StudentFilter) ([]*models.Student, error) {
	out := []*models.Student{}
	for _, s := range r.students {
		if filter.Status != nil && s.Status != *filter.Status {
			continue
		}
		if filter.AssignedTeacherID != nil && (s.AssignedTeacherID == nil || *s.AssignedTeacherID != *filter.AssignedTeacherID) {
			continue
		}
		if filter.Unassigned && s.AssignedTeacherID != nil {
			continue
		}
		out = append(out, r.withTeacher(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastName < out[j].LastName })
	return out, nil
}

func (r *fakeStudentRepo) Update(_ context.Context, s *models.Student) error {
	if _, ok := r.students[s.ID]; !ok {
		return apperrors.ErrStudentNotFound
	}
	cp := *s
	r.students[s.ID] = &cp
	return nil
}

func (r *fakeStudentRepo) SetTeacher(_ context.Context, id uuid.UUID, teacherID *uuid.UUID) error {
	s, ok := r.students[id]
	if !ok {
		return apperrors.ErrStudentNotFound
	}
	s.AssignedTeacherID = teacherID
	return nil
}

func (r *fakeStudentRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.students[id]; !ok {
		return apperrors.ErrStudentNotFound
	}
	delete(r.students, id)
	return nil
}

type fakeClassroomRepo struct {
	classrooms map[uuid.UUID]*models.Classroom
}

func newFakeClassroomRepo() *fakeClassroomRepo {
	return &fakeClassroomRepo{classrooms: map[uuid.UUID]*models.Classroom{}}
}

func (r *fakeClassroomRepo) Create(_ context.Context, c *models.Classroom) error {
	for _, existing := range r.classrooms {
		if existing.Name == c.Name {
			return apperrors.NewConflictError("a classroom with this name already exists")
		}
	}
	c.ID = uuid.New()
	cp := *c
	r.classrooms[c.ID] = &cp
	return nil
}

func (r *fakeClassroomRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Classroom, error) {
	c, ok := r.classrooms[id]
	if !ok {
		return nil, apperrors.ErrClassroomNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeClassroomRepo) List(context.Context) ([]*models.Classroom, error) {
	out := []*models.Classroom{}
	for _, c := range r.classrooms {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeClassroomRepo) Update(_ context.Context, c *models.Classroom) error {
	if _, ok := r.classrooms[c.ID]; !ok {
		return apperrors.ErrClassroomNotFound
	}
	cp := *c
	cp.CurrentSession = nil
	r.classrooms[c.ID] = &cp
	return nil
}

func (r *fakeClassroomRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.classrooms[id]; !ok {
		return apperrors.ErrClassroomNotFound
	}
	delete(r.classrooms, id)
	return nil
}

type fakeUsageRepo struct {
	reports []*models.UsageReport
}

func (r *fakeUsageRepo) Create(_ context.Context, u *models.UsageReport) error {
	u.ID = uuid.New()
	u.ReportedAt = time.Now()
	cp := *u
	r.reports = append(r.reports, &cp)
	return nil
}

func (r *fakeUsageRepo) GetByID(_ context.Context, id uuid.UUID) (*models.UsageReport, error) {
	for _, u := range r.reports {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrUsageReportNotFound
}

func (r *fakeUsageRepo) List(_ context.Context, filter models.UsageReportFilter) ([]*models.UsageReport, error) {
	out := []*models.UsageReport{}
	for _, u := range r.reports {
		if filter.ClassroomID != nil && u.ClassroomID != *filter.ClassroomID {
			continue
		}
		if filter.Status != nil && u.Status != *filter.Status {
			continue
		}
		if filter.Day != nil {
			y1, m1, d1 := filter.Day.UTC().Date()
			y2, m2, d2 := u.StartTime.UTC().Date()
			if y1 != y2 || m1 != m2 || d1 != d2 {
				continue
			}
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	if filter.Limit > 0 && uint64(len(out)) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *fakeUsageRepo) End(_ context.Context, id uuid.UUID, end time.Time, notes *string) (*models.UsageReport, error) {
	for _, u := range r.reports {
		if u.ID != id {
			continue
		}
		if u.Status != models.UsageActive {
			return nil, apperrors.ErrUsageReportClosed
		}
		u.EndTime = &end
		u.Status = models.UsageCompleted
		if notes != nil {
			u.Notes = *notes
		}
		cp := *u
		return &cp, nil
	}
	return nil, apperrors.ErrUsageReportNotFound
}

type fakeSessionRepo struct {
	sessions map[uuid.UUID]*models.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[uuid.UUID]*models.Session{}}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *models.Session) error {
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) List(_ context.Context, filter models.SessionFilter) ([]*models.Session, error) {
	out := []*models.Session{}
	for _, s := range r.sessions {
		if filter.TeacherID != nil && s.TeacherID != *filter.TeacherID {
			continue
		}
		if filter.Status != nil && s.Status != *filter.Status {
			continue
		}
		if filter.Confirmed != nil && s.TeacherConfirmed != *filter.Confirmed {
			continue
		}
		if filter.WithNotes && !s.HasNotes() {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if filter.NewestFirst {
			return out[i].StartTime.After(out[j].StartTime)
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

func (r *fakeSessionRepo) Update(_ context.Context, s *models.Session) error {
	if _, ok := r.sessions[s.ID]; !ok {
		return apperrors.ErrSessionNotFound
	}
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.sessions[id]; !ok {
		return apperrors.ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

type recordingPublisher struct {
	events []websocket.Event
}

func (p *recordingPublisher) Publish(e websocket.Event) {
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeMailer struct {
	notices  []email.PasswordRequestNotice
	to       [][]string
	approved []string
}

func (m *fakeMailer) SendPasswordRequestNotification(recipients []string, req email.PasswordRequestNotice) error {
	m.to = append(m.to, recipients)
	m.notices = append(m.notices, req)
	return nil
}

func (m *fakeMailer) SendAccountApproved(toEmail, _, _ string) error {
	m.approved = append(m.approved, toEmail)
	return nil
}

// mustUser builds an active user whose password is password
func mustUser(emailAddr string, role models.RoleType, password string) *models.User {
	hash, err := testHasher.Hash(password)
	if err != nil {
		panic(err)
	}
	return &models.User{
		Email:     emailAddr,
		Password:  hash,
		FirstName: strings.Split(emailAddr, "@")[0],
		LastName:  "Test",
		Role:      role,
		IsActive:  true,
	}
}
