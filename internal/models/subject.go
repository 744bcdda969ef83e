package models

// Subject belongs to a class and is taught by exactly one teacher.
type Subject struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	ClassID   string `db:"class_id" json:"class_id"`
	TeacherID string `db:"teacher_id" json:"teacher_id"`
}

// UnnamedTeacher is shown for teachers without a full name.
const UnnamedTeacher = "Unnamed Teacher"

// TeacherOption is one entry of the teacher roster offered on the leave form.
type TeacherOption struct {
	ID       string  `db:"id" json:"id"`
	FullName *string `db:"full_name" json:"-"`
	Name     string  `db:"-" json:"name"`
}

// Resolve fills the display name, falling back to UnnamedTeacher.
func (t *TeacherOption) Resolve() {
	if t.FullName != nil && *t.FullName != "" {
		t.Name = *t.FullName
		return
	}
	t.Name = UnnamedTeacher
}
