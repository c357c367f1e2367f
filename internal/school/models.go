// Package school manages the administrative entities: classes, students,
// subjects, teachers, and the links between them. It also serves as the
// roster provider for the attendance core.
package school

import "time"

// Class is a named group of students. Names are unique.
type Class struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Student belongs to exactly one class. Roll numbers are unique school-wide.
type Student struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	RollNo    string    `json:"rollNo"`
	ClassID   string    `json:"classId"`
	ClassName string    `json:"className,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Subject is taught by any number of teachers to any number of classes.
type Subject struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Code       string    `json:"code"`
	TeacherIDs []string  `json:"teacherIds"`
	ClassIDs   []string  `json:"classIds"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Teacher roles.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
)

// Teacher is an authenticated staff member. Emails are unique.
type Teacher struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	ClassIDs     []string  `json:"classIds"`
	SubjectIDs   []string  `json:"subjectIds"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
