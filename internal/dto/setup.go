package dto

import "github.com/noah-isme/attendance-request-api/internal/models"

// ConfirmSetupRequest is the teacher's class context selection.
type ConfirmSetupRequest struct {
	Department string `json:"department" validate:"required"`
	Year       int    `json:"year" validate:"required,min=1,max=4"`
	Semester   string `json:"semester"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
}

// TeacherSetupView lists the selectable context options and a pending overview.
type TeacherSetupView struct {
	Departments []models.Department `json:"departments"`
	MaxDate     models.Date         `json:"max_date"`
	Pending     PendingOverview     `json:"pending"`
}

// ConfirmSetupResponse echoes the validated context with the dashboard location.
type ConfirmSetupResponse struct {
	Context   models.ClassContext `json:"context"`
	Dashboard string              `json:"dashboard"`
}

// TeacherDashboardView combines the roster snapshot with pending counts.
type TeacherDashboardView struct {
	Context      models.ClassContext  `json:"context"`
	Roster       models.RosterSummary `json:"roster"`
	Students     []models.RosterEntry `json:"students"`
	PendingCount PendingCounts        `json:"pending"`
	Source       string               `json:"source"`
}

// PendingCounts are the sizes of the two pending partitions.
type PendingCounts struct {
	Corrections int `json:"corrections"`
	Leave       int `json:"leave"`
}

// LandingView is the public landing payload.
type LandingView struct {
	Product  string   `json:"product"`
	Tagline  string   `json:"tagline"`
	Features []string `json:"features"`
	Steps    []string `json:"steps"`
	Logins   []string `json:"logins"`
}
