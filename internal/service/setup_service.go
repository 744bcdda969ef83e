package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/attendance-request-api/internal/dto"
	"github.com/noah-isme/attendance-request-api/internal/models"
	appErrors "github.com/noah-isme/attendance-request-api/pkg/errors"
)

// Departments offered by the institution, in display order.
var Departments = []string{"CSE", "CSE-DS", "CSE-AIML", "IT", "ME", "EE", "ECE", "AUE", "MBA", "MCA", "BBA"}

var departmentYears = map[string][]int{
	"MBA": {1, 2},
	"MCA": {1, 2, 3},
	"BBA": {1, 2, 3},
}

// YearsFor lists the years a department offers.
func YearsFor(department string) []int {
	if years, ok := departmentYears[department]; ok {
		return years
	}
	return []int{1, 2, 3, 4}
}

type pendingLister interface {
	Pending(ctx context.Context, session *models.Session) (*dto.PendingOverview, error)
	Preview(ctx context.Context, session *models.Session) (*dto.PendingOverview, error)
}

type rosterSource interface {
	Roster(cc models.ClassContext) models.RosterSnapshot
}

// SetupService handles the teacher's class context selection and the views that depend on it.
type SetupService struct {
	pending   pendingLister
	roster    rosterSource
	validator *validator.Validate
	clock     clock
}

// NewSetupService constructs a SetupService.
func NewSetupService(pending pendingLister, roster rosterSource, validate *validator.Validate, loc *time.Location) *SetupService {
	if validate == nil {
		validate = validator.New()
	}
	return &SetupService{pending: pending, roster: roster, validator: validate, clock: newClock(loc)}
}

// View returns the selectable options together with a preview of pending requests.
func (s *SetupService) View(ctx context.Context, session *models.Session) (*dto.TeacherSetupView, error) {
	preview, err := s.pending.Preview(ctx, session)
	if err != nil {
		return nil, err
	}
	departments := make([]models.Department, 0, len(Departments))
	for _, code := range Departments {
		departments = append(departments, models.Department{Code: code, Years: YearsFor(code)})
	}
	return &dto.TeacherSetupView{
		Departments: departments,
		MaxDate:     s.clock.today(),
		Pending:     *preview,
	}, nil
}

// Confirm validates a class context and returns where the dashboard for it lives.
func (s *SetupService) Confirm(req dto.ConfirmSetupRequest) (*dto.ConfirmSetupResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Please fill all required fields")
	}
	cc, err := s.ParseContext(req.Department, strconv.Itoa(req.Year), req.Semester, req.Date)
	if err != nil {
		return nil, err
	}
	return &dto.ConfirmSetupResponse{Context: cc, Dashboard: DashboardLocation(cc)}, nil
}

// ParseContext builds a ClassContext from raw navigation parameters.
func (s *SetupService) ParseContext(department, year, semester, date string) (models.ClassContext, error) {
	department = strings.TrimSpace(department)
	known := false
	for _, code := range Departments {
		if code == department {
			known = true
			break
		}
	}
	if !known {
		return models.ClassContext{}, appErrors.Clone(appErrors.ErrValidation, "unknown department")
	}

	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil || !containsInt(YearsFor(department), y) {
		return models.ClassContext{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("year is not offered by %s", department))
	}

	d, err := models.ParseDate(strings.TrimSpace(date))
	if err != nil {
		return models.ClassContext{}, appErrors.Clone(appErrors.ErrValidation, "invalid date")
	}
	if d.After(s.clock.today()) {
		return models.ClassContext{}, appErrors.Clone(appErrors.ErrValidation, "date cannot be in the future")
	}

	return models.ClassContext{Department: department, Year: y, Semester: strings.TrimSpace(semester), Date: d}, nil
}

// Dashboard combines the roster snapshot of a class context with the teacher's pending counts.
func (s *SetupService) Dashboard(ctx context.Context, session *models.Session, cc models.ClassContext) (*dto.TeacherDashboardView, error) {
	pending, err := s.pending.Pending(ctx, session)
	if err != nil {
		return nil, err
	}
	roster := s.roster.Roster(cc)
	return &dto.TeacherDashboardView{
		Context:  cc,
		Roster:   roster.Summary,
		Students: roster.Entries,
		PendingCount: dto.PendingCounts{
			Corrections: pending.Corrections.Count,
			Leave:       pending.Leave.Count,
		},
		Source: roster.Source,
	}, nil
}

// Roster returns the attendance list of a class context.
func (s *SetupService) Roster(cc models.ClassContext) models.RosterSnapshot {
	return s.roster.Roster(cc)
}

// DashboardLocation is the navigation target carrying a class context.
func DashboardLocation(cc models.ClassContext) string {
	return fmt.Sprintf("%s?department=%s&year=%d&date=%s",
		models.RouteTeacherDashboard, url.QueryEscape(cc.Department), cc.Year, cc.Date)
}

func containsInt(values []int, v int) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
