package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EvilEvan/PvtClass-tracker/internal/app/models"
	"github.com/EvilEvan/PvtClass-tracker/internal/app/models/dto"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/apperrors"
)

func newStudentFixture(users ...*models.User) (*studentServiceImpl, *fakeStudentRepo) {
	userRepo := newFakeUserRepo(users...)
	repo := newFakeStudentRepo(userRepo)
	svc := NewStudentService(repo, userRepo, testLogger).(*studentServiceImpl)
	svc.now = func() time.Time { return time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC) }
	return svc, repo
}

func strPtr(s string) *string { return &s }

func TestCreateStudentDefaults(t *testing.T) {
	svc, _ := newStudentFixture()
	ctx := context.Background()

	student, err := svc.CreateStudent(ctx, dto.CreateStudentRequest{
		FirstName: "Luke",
		LastName:  "Skywalker",
		Email:     "Luke@Rebels.org",
		Subjects:  []string{"Piloting", " Piloting ", "", "Force Training"},
		EmergencyContact: &dto.EmergencyContactInput{
			Name: "Owen Lars", Phone: "+1 555 0101", Relationship: "Uncle",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StudentActive, student.Status)
	assert.Equal(t, "2024-09-01", student.EnrollmentDate)
	assert.Equal(t, "luke@rebels.org", student.Email)
	assert.Equal(t, []string{"Piloting", "Force Training"}, student.Subjects)
	assert.Equal(t, "Uncle", student.EmergencyContact.Relationship)

	_, err = svc.CreateStudent(ctx, dto.CreateStudentRequest{FirstName: "Luke", LastName: "Again", Email: "luke@rebels.org"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestCreateStudentRejectsNonTeacher(t *testing.T) {
	moderator := mustUser("ahsoka@tutoring.center", models.RoleModerator, "Snips1234")
	svc, _ := newStudentFixture(moderator)

	_, err := svc.CreateStudent(context.Background(), dto.CreateStudentRequest{
		FirstName: "Leia", LastName: "Organa", Email: "leia@rebels.org", AssignedTeacherID: &moderator.ID,
	})
	assert.ErrorIs(t, err, apperrors.ErrTeacherNotFound)
}

func TestAssignAndUnassignTeacher(t *testing.T) {
	teacher := mustUser("kenobi@tutoring.center", models.RoleTeacher, "HighGround1")
	admin := mustUser("mace@tutoring.center", models.RoleAdmin, "Purple1234")
	svc, _ := newStudentFixture(teacher, admin)
	ctx := context.Background()

	student, err := svc.CreateStudent(ctx, dto.CreateStudentRequest{FirstName: "Han", LastName: "Solo", Email: "han@falcon.space"})
	require.NoError(t, err)

	unassigned, err := svc.ListUnassigned(ctx)
	require.NoError(t, err)
	assert.Len(t, unassigned, 1)

	assigned, err := svc.AssignTeacher(ctx, student.ID, teacher.ID)
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedTeacher)
	assert.Equal(t, "kenobi Test", assigned.AssignedTeacher.Name)
	assert.Equal(t, teacher.Email, assigned.AssignedTeacher.Email)

	mine, err := svc.ListByTeacher(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	_, err = svc.AssignTeacher(ctx, student.ID, admin.ID)
	assert.ErrorIs(t, err, apperrors.ErrTeacherNotFound)

	_, err = svc.AssignTeacher(ctx, uuid.New(), teacher.ID)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)

	cleared, err := svc.UnassignTeacher(ctx, student.ID)
	require.NoError(t, err)
	assert.Nil(t, cleared.AssignedTeacherID)
	assert.Nil(t, cleared.AssignedTeacher)
}

func TestUpdateStudentPartial(t *testing.T) {
	svc, _ := newStudentFixture()
	ctx := context.Background()

	student, err := svc.CreateStudent(ctx, dto.CreateStudentRequest{
		FirstName: "Leia", LastName: "Organa", Email: "leia@rebels.org", Phone: "+1 555 0102", Notes: "Diplomacy track",
	})
	require.NoError(t, err)

	suspended := models.StudentSuspended
	updated, err := svc.UpdateStudent(ctx, student.ID, dto.UpdateStudentRequest{
		LastName: strPtr("Organa Solo"),
		Status:   &suspended,
	})
	require.NoError(t, err)
	assert.Equal(t, "Organa Solo", updated.LastName)
	assert.Equal(t, models.StudentSuspended, updated.Status)
	assert.Equal(t, "+1 555 0102", updated.Phone)
	assert.Equal(t, "Diplomacy track", updated.Notes)

	_, err = svc.UpdateStudent(ctx, uuid.New(), dto.UpdateStudentRequest{})
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
}

func TestListStudentsByStatus(t *testing.T) {
	svc, _ := newStudentFixture()
	ctx := context.Background()

	for i, status := range []models.StudentStatus{models.StudentActive, models.StudentActive, models.StudentInactive} {
		_, err := svc.CreateStudent(ctx, dto.CreateStudentRequest{
			FirstName: "Student", LastName: fmt.Sprint(i), Email: fmt.Sprintf("s%d@school.org", i), Status: status,
		})
		require.NoError(t, err)
	}

	active, err := svc.ListStudents(ctx, "active")
	require.NoError(t, err)
	assert.Len(t, active, 2)

	_, err = svc.ListStudents(ctx, "graduated")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestStudentStats(t *testing.T) {
	svc, _ := newStudentFixture()
	ctx := context.Background()

	rows := []struct {
		status     models.StudentStatus
		enrollment string
		subjects   []string
	}{
		{models.StudentActive, "2024-01-10", []string{"Math", "Physics"}},
		{models.StudentActive, "2024-03-01", []string{"Math"}},
		{models.StudentInactive, "2023-09-01", []string{"History"}},
		{models.StudentSuspended, "2024-02-14", nil},
		{models.StudentActive, "2024-05-20", []string{"Physics"}},
		{models.StudentActive, "2024-06-01", []string{"Math"}},
	}
	for i, r := range rows {
		_, err := svc.CreateStudent(ctx, dto.CreateStudentRequest{
			FirstName: "S", LastName: fmt.Sprint(i), Email: fmt.Sprintf("stats%d@school.org", i),
			Status: r.status, EnrollmentDate: r.enrollment, Subjects: r.subjects,
		})
		require.NoError(t, err)
	}

	stats, err := svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Total)
	assert.Equal(t, 4, stats.Active)
	assert.Equal(t, 1, stats.Inactive)
	assert.Equal(t, 1, stats.Suspended)
	assert.Equal(t, map[string]int{"Math": 3, "Physics": 2, "History": 1}, stats.SubjectDistribution)

	require.Len(t, stats.RecentEnrollments, 5)
	assert.Equal(t, "2024-06-01", stats.RecentEnrollments[0].EnrollmentDate)
	assert.Equal(t, "2024-01-10", stats.RecentEnrollments[4].EnrollmentDate)
}

func TestDeleteStudent(t *testing.T) {
	svc, _ := newStudentFixture()
	ctx := context.Background()

	student, err := svc.CreateStudent(ctx, dto.CreateStudentRequest{FirstName: "Chewbacca", LastName: "Wookiee", Email: "chewie@falcon.space"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteStudent(ctx, student.ID))
	_, err = svc.GetStudent(ctx, student.ID)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
	assert.ErrorIs(t, svc.DeleteStudent(ctx, student.ID), apperrors.ErrStudentNotFound)
}
