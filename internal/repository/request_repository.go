package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/attendance-request-api/internal/models"
)

// ErrTeacherRoleMissing signals that the addressed teacher no longer holds the teacher role
// at insert time, so no row was written.
var ErrTeacherRoleMissing = errors.New("addressed principal does not hold the teacher role")

// RequestRepository persists student requests.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs a request repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

const requestDetailSelect = `
SELECT r.id, r.type, r.student_id, r.teacher_id, r.class_id, r.semester_id, r.subject_id, r.date,
       r.message, r.file_path, r.status, r.created_at,
       c.name AS class_name, sem.name AS semester_name, sub.name AS subject_name,
       st.full_name AS student_name, t.full_name AS teacher_name
FROM student_requests r
LEFT JOIN classes c ON c.id = r.class_id
LEFT JOIN semesters sem ON sem.id = r.semester_id
LEFT JOIN subjects sub ON sub.id = r.subject_id
LEFT JOIN users st ON st.id = r.student_id
LEFT JOIN users t ON t.id = r.teacher_id`

// Create inserts a pending request. The insert is conditional on the addressee holding the
// teacher role in the same statement, which closes the window between validation and write.
func (r *RequestRepository) Create(ctx context.Context, req *models.Request) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	req.Status = models.RequestStatusPending

	const query = `
INSERT INTO student_requests (id, type, student_id, teacher_id, class_id, semester_id, subject_id, date, message, file_path, status, created_at)
SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
WHERE EXISTS (SELECT 1 FROM user_roles WHERE user_id = $4 AND role = 'teacher')`

	res, err := r.db.ExecContext(ctx, query,
		req.ID, req.Type, req.StudentID, req.TeacherID, req.ClassID, req.SemesterID,
		req.SubjectID, req.Date, req.Message, req.FilePath, req.Status, req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create student request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create student request rows: %w", err)
	}
	if affected == 0 {
		return ErrTeacherRoleMissing
	}
	return nil
}

// List returns request details matching the filter, newest first.
func (r *RequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.RequestDetail, error) {
	var (
		conditions []string
		args       []interface{}
	)
	add := func(clause string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}
	if filter.TeacherID != "" {
		add("r.teacher_id = $%d", filter.TeacherID)
	}
	if filter.StudentID != "" {
		add("r.student_id = $%d", filter.StudentID)
	}
	if filter.Status != "" {
		add("r.status = $%d", filter.Status)
	}

	var sb strings.Builder
	sb.WriteString(requestDetailSelect)
	if len(conditions) > 0 {
		sb.WriteString("\nWHERE ")
		sb.WriteString(strings.Join(conditions, " AND "))
	}
	sb.WriteString("\nORDER BY r.created_at DESC, r.id")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&sb, "\nLIMIT $%d", len(args))
	}

	items := make([]models.RequestDetail, 0)
	if err := r.db.SelectContext(ctx, &items, sb.String(), args...); err != nil {
		return nil, fmt.Errorf("list student requests: %w", err)
	}
	return items, nil
}

// ListPendingForTeacher returns every pending request addressed to teacherID, newest first.
func (r *RequestRepository) ListPendingForTeacher(ctx context.Context, teacherID string) ([]models.RequestDetail, error) {
	return r.List(ctx, models.RequestFilter{TeacherID: teacherID, Status: models.RequestStatusPending})
}

// ListByStudent returns a student's own requests, newest first.
func (r *RequestRepository) ListByStudent(ctx context.Context, studentID string, limit int) ([]models.RequestDetail, error) {
	return r.List(ctx, models.RequestFilter{StudentID: studentID, Limit: limit})
}

// GetDetail returns a single request with display names.
func (r *RequestRepository) GetDetail(ctx context.Context, id string) (*models.RequestDetail, error) {
	query := requestDetailSelect + "\nWHERE r.id = $1"
	var detail models.RequestDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get student request: %w", err)
	}
	return &detail, nil
}

// UpdateStatus moves a pending request owned by teacherID to status. It returns
// sql.ErrNoRows when nothing matched: the request is missing, foreign or no longer pending.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id, teacherID string, status models.RequestStatus) error {
	const query = `UPDATE student_requests SET status = $1 WHERE id = $2 AND teacher_id = $3 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, status, id, teacherID)
	if err != nil {
		return fmt.Errorf("update student request status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update student request rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
