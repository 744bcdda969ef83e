package service

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/noah-isme/attendance-request-api/internal/models"
)

// RosterSize is the number of students in a placeholder class roster.
const RosterSize = 35

type timetableSlot struct {
	subject string
	start   time.Duration
}

var placeholderTimetable = []timetableSlot{
	{subject: "Mathematics", start: 9 * time.Hour},
	{subject: "Physics", start: 10*time.Hour + 30*time.Minute},
	{subject: "Chemistry", start: 12 * time.Hour},
	{subject: "English", start: 14 * time.Hour},
}

// SnapshotService is the read model behind attendance views. No attendance store exists yet,
// so it produces placeholder data derived from a stable seed: the same student or class
// context on the same date always yields the same snapshot. Every payload is labelled as such.
type SnapshotService struct {
	clock clock
}

// NewSnapshotService constructs the placeholder snapshot source.
func NewSnapshotService(loc *time.Location) *SnapshotService {
	return &SnapshotService{clock: newClock(loc)}
}

// StudentToday returns the student's per-subject marks for the current day.
func (s *SnapshotService) StudentToday(session *models.Session) models.StudentTodaySnapshot {
	today := s.clock.today()
	return models.StudentTodaySnapshot{
		Source:   models.SnapshotSourceLabel,
		Date:     today,
		Subjects: s.day(session.PrincipalID, today, s.elapsedToday()),
	}
}

// StudentHistory returns the breakdown of the previous days, most recent first.
func (s *SnapshotService) StudentHistory(session *models.Session, days int) models.StudentHistorySnapshot {
	if days <= 0 {
		days = 3
	}
	today := s.clock.today()
	out := models.StudentHistorySnapshot{Source: models.SnapshotSourceLabel, Days: make([]models.DayAttendance, 0, days)}
	for i := 1; i <= days; i++ {
		date := today.AddDays(-i)
		subjects := s.day(session.PrincipalID, date, 24*time.Hour)
		out.Days = append(out.Days, models.DayAttendance{
			Date:     date,
			Subjects: subjects,
			Attended: countStatus(subjects, models.AttendancePresent),
			Total:    len(subjects),
		})
	}
	return out
}

// StudentDashboard summarises today plus the attendance percentage of recent days.
func (s *SnapshotService) StudentDashboard(session *models.Session) models.StudentDashboardSnapshot {
	today := s.clock.today()
	history := s.StudentHistory(session, 5)
	snapshot := models.StudentDashboardSnapshot{
		Source: models.SnapshotSourceLabel,
		Today:  s.day(session.PrincipalID, today, s.elapsedToday()),
		Recent: make([]models.DailyPercentage, 0, len(history.Days)),
	}
	var attended, total int
	for _, day := range history.Days {
		snapshot.Recent = append(snapshot.Recent, models.DailyPercentage{Date: day.Date, Percentage: percentage(day.Attended, day.Total)})
		attended += day.Attended
		total += day.Total
	}
	snapshot.Overall = percentage(attended, total)
	return snapshot
}

// Roster returns the class roster for a class context.
func (s *SnapshotService) Roster(cc models.ClassContext) models.RosterSnapshot {
	rng := seeded(fmt.Sprintf("%s|%d|%s|%s", cc.Department, cc.Year, cc.Semester, cc.Date))
	snapshot := models.RosterSnapshot{
		Source:  models.SnapshotSourceLabel,
		Context: cc,
		Entries: make([]models.RosterEntry, 0, RosterSize),
	}
	for i := 1; i <= RosterSize; i++ {
		entry := models.RosterEntry{RollNumber: i, StudentName: fmt.Sprintf("Student %d", i)}
		switch roll := rng.Intn(10); {
		case roll < 7:
			entry.Status = models.AttendancePresent
			entry.MarkedAt = formatClock(9*time.Hour + time.Duration(rng.Intn(15))*time.Minute)
			snapshot.Summary.Present++
		case roll < 9:
			entry.Status = models.AttendanceAbsent
			snapshot.Summary.Absent++
		default:
			entry.Status = models.AttendancePending
			snapshot.Summary.Pending++
		}
		snapshot.Entries = append(snapshot.Entries, entry)
	}
	snapshot.Summary.Total = RosterSize
	return snapshot
}

// day marks the timetable of one date for a student. Slots starting after elapsed stay pending.
func (s *SnapshotService) day(studentID string, date models.Date, elapsed time.Duration) []models.SubjectAttendance {
	rng := seeded(studentID + "|" + date.String())
	out := make([]models.SubjectAttendance, 0, len(placeholderTimetable))
	for _, slot := range placeholderTimetable {
		status := models.AttendancePending
		present := rng.Intn(5) != 0
		if slot.start <= elapsed {
			status = models.AttendanceAbsent
			if present {
				status = models.AttendancePresent
			}
		}
		out = append(out, models.SubjectAttendance{Subject: slot.subject, Time: formatClock(slot.start), Status: status})
	}
	return out
}

func (s *SnapshotService) elapsedToday() time.Duration {
	now := s.clock.now().In(s.clock.loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.clock.loc)
	return now.Sub(midnight)
}

func seeded(key string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(key)) //nolint:errcheck
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

func formatClock(offset time.Duration) string {
	return time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC).Add(offset).Format("03:04 PM")
}

func countStatus(subjects []models.SubjectAttendance, status models.AttendanceStatus) int {
	n := 0
	for _, subject := range subjects {
		if subject.Status == status {
			n++
		}
	}
	return n
}

func percentage(part, total int) int {
	if total == 0 {
		return 0
	}
	return part * 100 / total
}
