package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/attendance-request-api/internal/models"
)

// ReferenceRepository reads the academic reference data requests point at: enrollments,
// subjects and the teacher roster.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository constructs a reference repository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// FindEnrollment returns the class and semester a student belongs to.
func (r *ReferenceRepository) FindEnrollment(ctx context.Context, studentID string) (*models.StudentEnrollment, error) {
	const query = `
SELECT sp.user_id AS student_id, c.id AS class_id, c.name AS class_name, c.department, c.year,
       s.id AS semester_id, s.name AS semester_name
FROM student_profiles sp
JOIN classes c ON c.id = sp.class_id
JOIN semesters s ON s.id = sp.semester_id
WHERE sp.user_id = $1`
	var enrollment models.StudentEnrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &enrollment, nil
}

// ListSubjectsByClass returns the subjects taught in a class ordered by name.
func (r *ReferenceRepository) ListSubjectsByClass(ctx context.Context, classID string) ([]models.Subject, error) {
	const query = `SELECT id, name, class_id, teacher_id FROM subjects WHERE class_id = $1 ORDER BY name`
	subjects := make([]models.Subject, 0)
	if err := r.db.SelectContext(ctx, &subjects, query, classID); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// GetSubject fetches a subject by id.
func (r *ReferenceRepository) GetSubject(ctx context.Context, id string) (*models.Subject, error) {
	const query = `SELECT id, name, class_id, teacher_id FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get subject: %w", err)
	}
	return &subject, nil
}

// ListTeachers returns every principal holding the teacher role. Names are resolved for display.
func (r *ReferenceRepository) ListTeachers(ctx context.Context) ([]models.TeacherOption, error) {
	const query = `
SELECT u.id, u.full_name
FROM user_roles ur
JOIN users u ON u.id = ur.user_id
WHERE ur.role = $1
ORDER BY u.full_name NULLS LAST, u.id`
	teachers := make([]models.TeacherOption, 0)
	if err := r.db.SelectContext(ctx, &teachers, query, models.RoleTeacher); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	for i := range teachers {
		teachers[i].Resolve()
	}
	return teachers, nil
}
