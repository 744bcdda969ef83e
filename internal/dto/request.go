package dto

import (
	"time"

	"github.com/noah-isme/attendance-request-api/internal/models"
)

// SubmitCorrectionRequest is the attendance-correction form payload.
type SubmitCorrectionRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	SubjectID string `json:"subject_id" validate:"required,uuid"`
	Message   string `json:"message" validate:"required"`
}

// SubmitLeaveRequest is the leave form payload; the attachment travels separately.
type SubmitLeaveRequest struct {
	Message   string `json:"message" form:"message" validate:"required"`
	TeacherID string `json:"teacher_id" form:"teacher_id" validate:"required,uuid"`
	Date      string `json:"date" form:"date" validate:"required,datetime=2006-01-02"`
}

// TransitionRequest carries a reviewer decision.
type TransitionRequest struct {
	Status models.RequestStatus `json:"status" validate:"required,oneof=approved rejected"`
}

// RequestGroup is one partition of the pending list.
type RequestGroup struct {
	Type         models.RequestType     `json:"type"`
	Label        string                 `json:"label"`
	Count        int                    `json:"count"`
	EmptyMessage string                 `json:"empty_message,omitempty"`
	Items        []models.RequestDetail `json:"items"`
}

// PendingOverview partitions a teacher's pending requests by type.
type PendingOverview struct {
	Corrections RequestGroup `json:"corrections"`
	Leave       RequestGroup `json:"leave"`
	Total       int          `json:"total"`
}

// RequestDetailResponse is the detail view of a single request.
type RequestDetailResponse struct {
	models.RequestDetail
	AttachmentURL       string     `json:"attachment_url,omitempty"`
	AttachmentExpiresAt *time.Time `json:"attachment_expires_at,omitempty"`
}

// TransitionResult returns the decided request and the refreshed pending list. Pending is nil
// when the refresh failed after a successful transition.
type TransitionResult struct {
	RequestID string               `json:"request_id"`
	Status    models.RequestStatus `json:"status"`
	Pending   *PendingOverview     `json:"pending,omitempty"`
}

// AttachmentPolicy describes what the leave form accepts.
type AttachmentPolicy struct {
	MaxBytes int64    `json:"max_bytes"`
	Accept   []string `json:"accept"`
}

// CorrectionFormView feeds the attendance-correction form.
type CorrectionFormView struct {
	Enrollment models.StudentEnrollment `json:"enrollment"`
	Subjects   []models.Subject         `json:"subjects"`
	MaxDate    models.Date              `json:"max_date"`
}

// LeaveFormView feeds the leave form.
type LeaveFormView struct {
	Enrollment models.StudentEnrollment `json:"enrollment"`
	Teachers   []models.TeacherOption   `json:"teachers"`
	MinDate    models.Date              `json:"min_date"`
	Attachment AttachmentPolicy         `json:"attachment"`
}
