// Package attendance implements the attendance core: recording status marks,
// answering per-day roster queries, and computing range reports.
package attendance

import (
	"context"
	"time"
)

// DefaultSession is used when a mark request carries no session label.
const DefaultSession = "Default"

// Status is a per-student attendance mark.
type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
)

// Valid returns true when the status is a supported value.
func (s Status) Valid() bool {
	return s == StatusPresent || s == StatusAbsent
}

// Record is one stored attendance mark. The tuple
// (class, student, subject, date, session) is unique in the store.
type Record struct {
	ID        string    `json:"id"`
	ClassID   string    `json:"classId"`
	StudentID string    `json:"studentId"`
	SubjectID string    `json:"subjectId"`
	Date      time.Time `json:"date"`
	Session   string    `json:"session"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RosterStudent is one enrolled student as reported by the roster provider.
type RosterStudent struct {
	ID     string `json:"studentId"`
	Name   string `json:"name"`
	RollNo string `json:"rollNo"`
}

// RosterProvider resolves the current roster of a class, in roster order.
// Roster membership is the source of truth for who must appear in query and
// report output, independent of attendance history.
type RosterProvider interface {
	Roster(ctx context.Context, classID string) ([]RosterStudent, error)
}

// PresenceCount is a per-student present/total tally.
type PresenceCount struct {
	Present int
	Total   int
}

// DayCount is a per-day tally of present marks and records taken.
type DayCount struct {
	Present int
	Marked  int
}

// SubjectCount is a per-subject present/total tally for one student.
type SubjectCount struct {
	Subject string
	Present int
	Total   int
}

// Filter narrows a raw record listing. Zero values mean "no constraint".
type Filter struct {
	ClassID   string
	SubjectID string
	From      time.Time
	To        time.Time
}

// Store is the persistent collection of attendance records. Aggregations are
// performed by the store (grouping queries), not by scanning rows in Go.
type Store interface {
	// UpsertBatch applies marks as an unordered batch keyed by
	// (class, student, subject, date, session); a failing record must not
	// block the others.
	UpsertBatch(ctx context.Context, recs []Record) error
	// StatusesOn returns a student→status map for the given day, optionally
	// scoped to a subject. When several sessions match, the last scanned
	// record wins.
	StatusesOn(ctx context.Context, studentIDs []string, day time.Time, subjectID string) (map[string]Status, error)
	// CountsByStudent tallies present/total per student over [from, to].
	CountsByStudent(ctx context.Context, studentIDs []string, subjectID string, from, to time.Time) (map[string]PresenceCount, error)
	// PresentByDay tallies Present records per calendar day over [from, to].
	PresentByDay(ctx context.Context, studentIDs []string, subjectID string, from, to time.Time) (map[string]int, error)
	// MarkedByDay tallies present and total recorded marks per calendar day.
	MarkedByDay(ctx context.Context, studentIDs []string, subjectID string, from, to time.Time) (map[string]DayCount, error)
	// Find returns raw records matching the filter.
	Find(ctx context.Context, f Filter) ([]Record, error)
	// CountsBySubject tallies one student's records per subject name; records
	// whose subject no longer resolves are bucketed under "Unknown".
	CountsBySubject(ctx context.Context, studentID string) ([]SubjectCount, error)
}
