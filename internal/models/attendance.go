package models

// AttendanceStatus is the per-subject mark shown by snapshot views.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendancePending AttendanceStatus = "pending"
)

// SnapshotSourceLabel marks every snapshot payload as placeholder data.
const SnapshotSourceLabel = "placeholder"

// SubjectAttendance is one subject slot of a day.
type SubjectAttendance struct {
	Subject string           `json:"subject"`
	Time    string           `json:"time"`
	Status  AttendanceStatus `json:"status"`
}

// DayAttendance is a per-day breakdown for a student.
type DayAttendance struct {
	Date     Date                `json:"date"`
	Subjects []SubjectAttendance `json:"subjects"`
	Attended int                 `json:"attended"`
	Total    int                 `json:"total"`
}

// RosterEntry is one student row of a class roster.
type RosterEntry struct {
	RollNumber  int              `json:"roll_number"`
	StudentName string           `json:"student_name"`
	Status      AttendanceStatus `json:"status"`
	MarkedAt    string           `json:"marked_at,omitempty"`
}

// RosterSummary counts roster statuses.
type RosterSummary struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Pending int `json:"pending"`
	Total   int `json:"total"`
}

// DailyPercentage is an attendance ratio for a single day.
type DailyPercentage struct {
	Date       Date `json:"date"`
	Percentage int  `json:"percentage"`
}

// StudentTodaySnapshot is the student's attendance for the current day.
type StudentTodaySnapshot struct {
	Source   string              `json:"source"`
	Date     Date                `json:"date"`
	Subjects []SubjectAttendance `json:"subjects"`
}

// StudentHistorySnapshot lists recent days for a student.
type StudentHistorySnapshot struct {
	Source string          `json:"source"`
	Days   []DayAttendance `json:"days"`
}

// StudentDashboardSnapshot summarises a student's recent attendance.
type StudentDashboardSnapshot struct {
	Source  string              `json:"source"`
	Today   []SubjectAttendance `json:"today"`
	Recent  []DailyPercentage   `json:"recent"`
	Overall int                 `json:"overall_percentage"`
}

// RosterSnapshot is a class roster for a class context.
type RosterSnapshot struct {
	Source  string        `json:"source"`
	Context ClassContext  `json:"context"`
	Entries []RosterEntry `json:"entries"`
	Summary RosterSummary `json:"summary"`
}
