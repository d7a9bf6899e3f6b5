package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EvilEvan/PvtClass-tracker/internal/app/models"
	"github.com/EvilEvan/PvtClass-tracker/internal/app/models/dto"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/apperrors"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/websocket"
)

var classroomNow = time.Date(2024, 9, 2, 15, 0, 0, 0, time.UTC)

type classroomFixture struct {
	svc    *classroomServiceImpl
	usage  *fakeUsageRepo
	events *recordingPublisher
	actor  *models.User
}

func newClassroomFixture() *classroomFixture {
	f := &classroomFixture{
		usage:  &fakeUsageRepo{},
		events: &recordingPublisher{},
		actor:  mustUser("kenobi@tutoring.center", models.RoleTeacher, "HighGround1"),
	}
	f.svc = NewClassroomService(newFakeClassroomRepo(), f.usage, f.events, testLogger).(*classroomServiceImpl)
	f.svc.now = func() time.Time { return classroomNow }
	return f
}

func (f *classroomFixture) room(t *testing.T, name string, capacity int, status models.ClassroomStatus) *models.Classroom {
	t.Helper()
	c, err := f.svc.CreateClassroom(context.Background(), dto.CreateClassroomRequest{Name: name, Capacity: capacity, Status: status})
	require.NoError(t, err)
	return c
}

func (f *classroomFixture) report(t *testing.T, classroomID uuid.UUID, start time.Time) *models.UsageReport {
	t.Helper()
	r, err := f.svc.ReportUsage(context.Background(), actorOf(f.actor), dto.ReportUsageRequest{
		ClassroomID: classroomID,
		StudentName: "Luke Skywalker",
		Subject:     "Piloting",
		StartTime:   start,
	})
	require.NoError(t, err)
	return r
}

func TestCreateClassroom(t *testing.T) {
	f := newClassroomFixture()
	ctx := context.Background()

	c, err := f.svc.CreateClassroom(ctx, dto.CreateClassroomRequest{
		Name: " Command Bridge ", Capacity: 8, Equipment: []string{"Holoprojector", "Holoprojector", " "},
	})
	require.NoError(t, err)
	assert.Equal(t, "Command Bridge", c.Name)
	assert.Equal(t, models.ClassroomAvailable, c.Status)
	assert.Equal(t, []string{"Holoprojector"}, c.Equipment)

	_, err = f.svc.CreateClassroom(ctx, dto.CreateClassroomRequest{Name: "Command Bridge", Capacity: 4})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = f.svc.CreateClassroom(ctx, dto.CreateClassroomRequest{Name: "Closet", Capacity: 0})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestReportUsageMarksClassroomInUse(t *testing.T) {
	f := newClassroomFixture()
	ctx := context.Background()
	room := f.room(t, "Jedi Council Chamber", 12, "")

	report := f.report(t, room.ID, classroomNow.Add(-time.Hour))
	assert.Equal(t, models.UsageActive, report.Status)
	assert.Equal(t, f.actor.Email, report.ReportedBy, "reporter defaults to the caller")
	assert.Equal(t, "Jedi Council Chamber", report.ClassroomName)

	got, err := f.svc.GetClassroom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClassroomInUse, got.Status)
	require.NotNil(t, got.CurrentSession)
	assert.Equal(t, report.ID, got.CurrentSession.ReportID)
	assert.Equal(t, "Luke Skywalker", got.CurrentSession.StudentName)

	_, err = f.svc.ReportUsage(ctx, actorOf(f.actor), dto.ReportUsageRequest{
		ClassroomID: room.ID, StudentName: "Leia Organa", Subject: "Diplomacy", StartTime: classroomNow,
	})
	assert.ErrorIs(t, err, apperrors.ErrClassroomInUse)

	assert.Equal(t, []string{websocket.EventUsageReported}, f.events.types())
}

func TestReportUsageRejections(t *testing.T) {
	f := newClassroomFixture()
	ctx := context.Background()
	broken := f.room(t, "Death Star Briefing Room", 15, models.ClassroomMaintenance)
	room := f.room(t, "Rebel Base Conference", 6, "")

	_, err := f.svc.ReportUsage(ctx, actorOf(f.actor), dto.ReportUsageRequest{
		ClassroomID: broken.ID, StudentName: "Han Solo", Subject: "Smuggling", StartTime: classroomNow,
	})
	assert.ErrorIs(t, err, apperrors.ErrClassroomNotUsable)

	end := classroomNow.Add(-time.Minute)
	_, err = f.svc.ReportUsage(ctx, actorOf(f.actor), dto.ReportUsageRequest{
		ClassroomID: room.ID, StudentName: "Han Solo", Subject: "Smuggling", StartTime: classroomNow, EndTime: &end,
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTimeRange)

	_, err = f.svc.ReportUsage(ctx, actorOf(f.actor), dto.ReportUsageRequest{
		ClassroomID: uuid.New(), StudentName: "Han Solo", Subject: "Smuggling", StartTime: classroomNow,
	})
	assert.ErrorIs(t, err, apperrors.ErrClassroomNotFound)

	assert.Empty(t, f.events.events)
}

func TestEndUsage(t *testing.T) {
	f := newClassroomFixture()
	ctx := context.Background()
	room := f.room(t, "Command Bridge", 8, "")
	report := f.report(t, room.ID, classroomNow.Add(-90*time.Minute))

	notes := "Great progress on landing drills"
	ended, err := f.svc.EndUsage(ctx, report.ID, dto.EndUsageRequest{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, models.UsageCompleted, ended.Status)
	require.NotNil(t, ended.EndTime)
	assert.True(t, ended.EndTime.Equal(classroomNow), "end time defaults to now")
	assert.Equal(t, notes, ended.Notes)

	_, err = f.svc.EndUsage(ctx, report.ID, dto.EndUsageRequest{})
	assert.ErrorIs(t, err, apperrors.ErrUsageReportClosed)

	_, err = f.svc.EndUsage(ctx, uuid.New(), dto.EndUsageRequest{})
	assert.ErrorIs(t, err, apperrors.ErrUsageReportNotFound)

	got, err := f.svc.GetClassroom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClassroomAvailable, got.Status)
	assert.Nil(t, got.CurrentSession)

	assert.Equal(t, []string{websocket.EventUsageReported, websocket.EventUsageEnded}, f.events.types())
}

func TestListUsageReports(t *testing.T) {
	f := newClassroomFixture()
	ctx := context.Background()
	a := f.room(t, "Command Bridge", 8, "")
	b := f.room(t, "Jedi Council Chamber", 12, "")

	old := f.report(t, a.ID, classroomNow.AddDate(0, 0, -1))
	_, err := f.svc.EndUsage(ctx, old.ID, dto.EndUsageRequest{})
	require.NoError(t, err)
	f.report(t, a.ID, classroomNow.Add(-time.Hour))
	f.report(t, b.ID, classroomNow.Add(-2*time.Hour))

	all, err := f.svc.ListUsageReports(ctx, dto.UsageReportQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	today, err := f.svc.ListUsageReports(ctx, dto.UsageReportQuery{Date: "2024-09-02"})
	require.NoError(t, err)
	assert.Len(t, today, 2)

	forA, err := f.svc.ListUsageReports(ctx, dto.UsageReportQuery{Classroom: a.ID.String()})
	require.NoError(t, err)
	assert.Len(t, forA, 2)

	_, err = f.svc.ListUsageReports(ctx, dto.UsageReportQuery{Date: "02/09/2024"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestClassroomStats(t *testing.T) {
	f := newClassroomFixture()
	ctx := context.Background()
	bridge := f.room(t, "Command Bridge", 8, "")
	council := f.room(t, "Jedi Council Chamber", 12, "")
	f.room(t, "Death Star Briefing Room", 15, models.ClassroomMaintenance)

	done := f.report(t, bridge.ID, classroomNow.Add(-3*time.Hour))
	end := classroomNow.Add(-2 * time.Hour)
	_, err := f.svc.EndUsage(ctx, done.ID, dto.EndUsageRequest{EndTime: &end})
	require.NoError(t, err)
	f.report(t, council.ID, classroomNow.Add(-30*time.Minute))

	stats, err := f.svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalClassrooms)
	assert.Equal(t, 1, stats.AvailableClassrooms)
	assert.Equal(t, 1, stats.InUseClassrooms)
	assert.Equal(t, 1, stats.MaintenanceClassrooms)
	assert.Equal(t, dto.TodaysUsage{Completed: 1, Active: 1, Total: 2}, stats.TodaysUsage)
	assert.Len(t, stats.RecentReports, 2)

	byName := map[string]dto.ClassroomUtilization{}
	for _, u := range stats.UtilizationByClassroom {
		byName[u.Name] = u
	}
	assert.Equal(t, 1, byName["Command Bridge"].ReportCount)
	assert.Equal(t, 60, byName["Command Bridge"].TotalMinutes)
	assert.Equal(t, 1, byName["Jedi Council Chamber"].ReportCount)
	assert.Equal(t, 0, byName["Jedi Council Chamber"].TotalMinutes)
	assert.Equal(t, 0, byName["Death Star Briefing Room"].ReportCount)
}
