package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-request-api/internal/dto"
	"github.com/noah-isme/attendance-request-api/internal/models"
	appErrors "github.com/noah-isme/attendance-request-api/pkg/errors"
)

func newSetupFixture(store *memoryReviewStore) *SetupService {
	review, _ := newReviewService(store)
	snapshots := NewSnapshotService(time.UTC)
	snapshots.clock.now = func() time.Time { return fixedNow }
	svc := NewSetupService(review, snapshots, nil, time.UTC)
	svc.clock.now = func() time.Time { return fixedNow }
	return svc
}

func TestSetupYearsPerDepartment(t *testing.T) {
	assert.Equal(t, []int{1, 2}, YearsFor("MBA"))
	assert.Equal(t, []int{1, 2, 3}, YearsFor("MCA"))
	assert.Equal(t, []int{1, 2, 3}, YearsFor("BBA"))
	assert.Equal(t, []int{1, 2, 3, 4}, YearsFor("CSE-AIML"))
	assert.Len(t, Departments, 11)
}

func TestSetupConfirm(t *testing.T) {
	svc := newSetupFixture(&memoryReviewStore{})

	resp, err := svc.Confirm(dto.ConfirmSetupRequest{Department: "CSE", Year: 2, Date: "2024-03-10"})
	require.NoError(t, err)
	assert.Equal(t, "/teacher/dashboard?department=CSE&year=2&date=2024-03-10", resp.Dashboard)
	assert.Equal(t, 2, resp.Context.Year)

	cases := []dto.ConfirmSetupRequest{
		{Department: "MBA", Year: 3, Date: "2024-03-10"},
		{Department: "LAW", Year: 1, Date: "2024-03-10"},
		{Department: "CSE", Year: 1, Date: "2024-03-11"},
		{Department: "CSE", Year: 1},
		{Department: "CSE", Year: 5, Date: "2024-03-10"},
	}
	for _, req := range cases {
		_, err := svc.Confirm(req)
		require.Error(t, err, "%+v", req)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestSetupViewShowsPreview(t *testing.T) {
	store := &memoryReviewStore{rows: []*models.RequestDetail{
		pendingRow("r-1", models.RequestTypeLeave, "t-1"),
		pendingRow("r-2", models.RequestTypeAttendanceCorrection, "t-1"),
	}}
	svc := newSetupFixture(store)

	view, err := svc.View(context.Background(), teacherSession("t-1"))
	require.NoError(t, err)
	assert.Len(t, view.Departments, 11)
	assert.Equal(t, "2024-03-10", view.MaxDate.String())
	assert.Equal(t, 2, view.Pending.Total)
}

func TestSetupDashboard(t *testing.T) {
	store := &memoryReviewStore{rows: []*models.RequestDetail{pendingRow("r-1", models.RequestTypeLeave, "t-1")}}
	svc := newSetupFixture(store)

	cc, err := svc.ParseContext("IT", "3", "", "2024-03-08")
	require.NoError(t, err)

	view, err := svc.Dashboard(context.Background(), teacherSession("t-1"), cc)
	require.NoError(t, err)
	assert.Equal(t, RosterSize, view.Roster.Total)
	assert.Len(t, view.Students, RosterSize)
	assert.Equal(t, 1, view.PendingCount.Leave)
	assert.Equal(t, 0, view.PendingCount.Corrections)
	assert.Equal(t, models.SnapshotSourceLabel, view.Source)
}

func TestSnapshotRosterIsDeterministic(t *testing.T) {
	snapshots := NewSnapshotService(time.UTC)
	cc := models.ClassContext{Department: "CSE", Year: 2, Date: models.NewDate(2024, time.March, 8)}

	first := snapshots.Roster(cc)
	second := snapshots.Roster(cc)
	assert.Equal(t, first, second)
	assert.Equal(t, "Student 1", first.Entries[0].StudentName)
	assert.Equal(t, RosterSize, first.Summary.Present+first.Summary.Absent+first.Summary.Pending)
}

func TestSnapshotStudentViews(t *testing.T) {
	snapshots := NewSnapshotService(time.UTC)
	snapshots.clock.now = func() time.Time { return fixedNow }
	session := studentSession()

	today := snapshots.StudentToday(session)
	require.Len(t, today.Subjects, 4)
	assert.Equal(t, "Mathematics", today.Subjects[0].Subject)
	assert.Equal(t, "09:00 AM", today.Subjects[0].Time)
	assert.NotEqual(t, models.AttendancePending, today.Subjects[0].Status)
	assert.Equal(t, models.AttendancePending, today.Subjects[1].Status)
	assert.Equal(t, "02:00 PM", today.Subjects[3].Time)
	assert.Equal(t, models.SnapshotSourceLabel, today.Source)

	history := snapshots.StudentHistory(session, 0)
	require.Len(t, history.Days, 3)
	assert.Equal(t, "2024-03-09", history.Days[0].Date.String())
	for _, day := range history.Days {
		assert.Equal(t, 4, day.Total)
		assert.Equal(t, countStatus(day.Subjects, models.AttendancePresent), day.Attended)
	}

	dashboard := snapshots.StudentDashboard(session)
	assert.Len(t, dashboard.Recent, 5)
	assert.GreaterOrEqual(t, dashboard.Overall, 0)
	assert.LessOrEqual(t, dashboard.Overall, 100)
	assert.Equal(t, snapshots.StudentDashboard(session), dashboard)
}
