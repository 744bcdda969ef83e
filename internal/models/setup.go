package models

// ClassContext is the (department, year, semester, date) selection a teacher works under.
// It travels in navigation and is never persisted.
type ClassContext struct {
	Department string `json:"department" form:"department"`
	Year       int    `json:"year" form:"year"`
	Semester   string `json:"semester,omitempty" form:"semester"`
	Date       Date   `json:"date"`
}

// Department lists the years a department offers.
type Department struct {
	Code  string `json:"code"`
	Years []int  `json:"years"`
}
