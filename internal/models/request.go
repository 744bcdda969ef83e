package models

import "time"

// RequestType distinguishes the two request variants.
type RequestType string

const (
	RequestTypeAttendanceCorrection RequestType = "attendance_correction"
	RequestTypeLeave                RequestType = "leave"
)

// RequestStatus captures the review lifecycle of a request.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// Terminal reports whether no further transition is allowed from s.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusApproved || s == RequestStatusRejected
}

// CanTransition reports whether from -> to is a legal status change.
// Only pending may move, and only to approved or rejected.
func CanTransition(from, to RequestStatus) bool {
	return from == RequestStatusPending && to.Terminal()
}

// Request is a student-originated record asking a teacher to correct attendance or approve a leave.
type Request struct {
	ID         string        `db:"id" json:"id"`
	Type       RequestType   `db:"type" json:"type"`
	StudentID  string        `db:"student_id" json:"student_id"`
	TeacherID  string        `db:"teacher_id" json:"teacher_id"`
	ClassID    string        `db:"class_id" json:"class_id"`
	SemesterID string        `db:"semester_id" json:"semester_id"`
	SubjectID  *string       `db:"subject_id" json:"subject_id"`
	Date       Date          `db:"date" json:"date"`
	Message    string        `db:"message" json:"message"`
	FilePath   *string       `db:"file_path" json:"file_path"`
	Status     RequestStatus `db:"status" json:"status"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
}

// RequestDetail is a request enriched with display names of its relations.
type RequestDetail struct {
	Request
	ClassName    *string `db:"class_name" json:"class_name,omitempty"`
	SemesterName *string `db:"semester_name" json:"semester_name,omitempty"`
	SubjectName  *string `db:"subject_name" json:"subject_name,omitempty"`
	StudentName  *string `db:"student_name" json:"student_name,omitempty"`
	TeacherName  *string `db:"teacher_name" json:"teacher_name,omitempty"`
}

// RequestFilter constrains request listings.
type RequestFilter struct {
	TeacherID string
	StudentID string
	Status    RequestStatus
	Limit     int
}
