package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-request-api/internal/models"
)

var detailColumns = []string{
	"id", "type", "student_id", "teacher_id", "class_id", "semester_id", "subject_id", "date",
	"message", "file_path", "status", "created_at",
	"class_name", "semester_name", "subject_name", "student_name", "teacher_name",
}

func TestRequestCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	subject := "sub-1"
	req := &models.Request{
		Type:       models.RequestTypeAttendanceCorrection,
		StudentID:  "stu-1",
		TeacherID:  "t-1",
		ClassID:    "class-1",
		SemesterID: "sem-1",
		SubjectID:  &subject,
		Date:       models.NewDate(2024, time.March, 4),
		Message:    "I was present",
	}

	mock.ExpectExec(regexp.QuoteMeta("WHERE EXISTS (SELECT 1 FROM user_roles WHERE user_id = $4 AND role = 'teacher')")).
		WithArgs(sqlmock.AnyArg(), "attendance_correction", "stu-1", "t-1", "class-1", "sem-1", "sub-1", "2024-03-04", "I was present", nil, "pending", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), req))
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, models.RequestStatusPending, req.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestCreateRejectsNonTeacher(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	mock.ExpectExec("INSERT INTO student_requests").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Create(context.Background(), &models.Request{
		Type:      models.RequestTypeLeave,
		StudentID: "stu-1",
		TeacherID: "stu-2",
		Date:      models.NewDate(2024, time.March, 4),
		Message:   "family event",
	})
	assert.ErrorIs(t, err, ErrTeacherRoleMissing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestListPendingForTeacher(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(detailColumns).
		AddRow("r-2", "leave", "stu-1", "t-1", "class-1", "sem-1", nil, "2024-03-06", "trip", "stu-1/1.pdf", "pending", now,
			"CSE 2A", "Odd 2024", nil, "Asha", "Priya").
		AddRow("r-1", "attendance_correction", "stu-1", "t-1", "class-1", "sem-1", "sub-1", "2024-03-01", "present", nil, "pending", now.Add(-time.Hour),
			"CSE 2A", "Odd 2024", "Physics", "Asha", "Priya")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE r.teacher_id = $1 AND r.status = $2\nORDER BY r.created_at DESC, r.id")).
		WithArgs("t-1", "pending").
		WillReturnRows(rows)

	items, err := repo.ListPendingForTeacher(context.Background(), "t-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, models.RequestTypeLeave, items[0].Type)
	assert.Nil(t, items[0].SubjectID)
	require.NotNil(t, items[1].SubjectName)
	assert.Equal(t, "Physics", *items[1].SubjectName)
	assert.Equal(t, "2024-03-01", items[1].Date.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestListByStudentAppliesLimit(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE r.student_id = $1\nORDER BY r.created_at DESC, r.id\nLIMIT $2")).
		WithArgs("stu-1", 20).
		WillReturnRows(sqlmock.NewRows(detailColumns))

	items, err := repo.ListByStudent(context.Background(), "stu-1", 20)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestGetDetailNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE r.id = $1")).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetDetail(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestRequestUpdateStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	stmt := regexp.QuoteMeta("UPDATE student_requests SET status = $1 WHERE id = $2 AND teacher_id = $3 AND status = 'pending'")
	mock.ExpectExec(stmt).WithArgs("approved", "r-1", "t-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(stmt).WithArgs("rejected", "r-1", "t-1").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdateStatus(context.Background(), "r-1", "t-1", models.RequestStatusApproved))
	err := repo.UpdateStatus(context.Background(), "r-1", "t-1", models.RequestStatusRejected)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
