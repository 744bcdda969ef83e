package models

// Class is a teaching group identified by department and year.
type Class struct {
	ID         string `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	Department string `db:"department" json:"department"`
	Year       int    `db:"year" json:"year"`
}

// Semester names an academic term.
type Semester struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// StudentEnrollment is the class and semester a student currently belongs to.
type StudentEnrollment struct {
	StudentID    string `db:"student_id" json:"student_id"`
	ClassID      string `db:"class_id" json:"class_id"`
	ClassName    string `db:"class_name" json:"class_name"`
	Department   string `db:"department" json:"department"`
	Year         int    `db:"year" json:"year"`
	SemesterID   string `db:"semester_id" json:"semester_id"`
	SemesterName string `db:"semester_name" json:"semester_name"`
}
