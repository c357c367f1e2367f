package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository persists attendance records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

var _ Store = (*Repository)(nil)

// UpsertBatch applies each record with ON CONFLICT upsert semantics. The batch
// is unordered: a failing record is skipped and the rest still apply. The
// returned error joins all per-record failures.
func (r *Repository) UpsertBatch(ctx context.Context, recs []Record) error {
	var errs []error
	for _, rec := range recs {
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO attendance (id, class_id, student_id, subject_id, date, session, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (class_id, student_id, subject_id, date, session)
			DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()
		`, rec.ID, rec.ClassID, rec.StudentID, rec.SubjectID, rec.Date, rec.Session, rec.Status)
		if err != nil {
			errs = append(errs, fmt.Errorf("student %s: %w", rec.StudentID, err))
		}
	}
	return errors.Join(errs...)
}

// StatusesOn returns student→status for one calendar day.
func (r *Repository) StatusesOn(ctx context.Context, studentIDs []string, day time.Time, subjectID string) (map[string]Status, error) {
	if len(studentIDs) == 0 {
		return map[string]Status{}, nil
	}
	query := `SELECT student_id, status FROM attendance WHERE student_id = ANY($1) AND date = $2`
	args := []any{studentIDs, day}
	if subjectID != "" {
		query += ` AND subject_id = $3`
		args = append(args, subjectID)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	statuses := make(map[string]Status)
	for rows.Next() {
		var id string
		var st Status
		if err := rows.Scan(&id, &st); err != nil {
			return nil, err
		}
		statuses[id] = st
	}
	return statuses, rows.Err()
}

// CountsByStudent tallies present/total per student over the range.
func (r *Repository) CountsByStudent(ctx context.Context, studentIDs []string, subjectID string, from, to time.Time) (map[string]PresenceCount, error) {
	if len(studentIDs) == 0 {
		return map[string]PresenceCount{}, nil
	}
	query := `
		SELECT student_id,
		       COUNT(*) FILTER (WHERE status = 'Present') AS present,
		       COUNT(*) AS total
		FROM attendance
		WHERE student_id = ANY($1) AND date BETWEEN $2 AND $3`
	args := []any{studentIDs, from, to}
	if subjectID != "" {
		query += ` AND subject_id = $4`
		args = append(args, subjectID)
	}
	query += ` GROUP BY student_id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]PresenceCount)
	for rows.Next() {
		var id string
		var c PresenceCount
		if err := rows.Scan(&id, &c.Present, &c.Total); err != nil {
			return nil, err
		}
		counts[id] = c
	}
	return counts, rows.Err()
}

// PresentByDay tallies Present records per day, keyed YYYY-MM-DD.
func (r *Repository) PresentByDay(ctx context.Context, studentIDs []string, subjectID string, from, to time.Time) (map[string]int, error) {
	if len(studentIDs) == 0 {
		return map[string]int{}, nil
	}
	query := `
		SELECT to_char(date, 'YYYY-MM-DD') AS day, COUNT(*) AS present
		FROM attendance
		WHERE student_id = ANY($1) AND status = 'Present' AND date BETWEEN $2 AND $3`
	args := []any{studentIDs, from, to}
	if subjectID != "" {
		query += ` AND subject_id = $4`
		args = append(args, subjectID)
	}
	query += ` GROUP BY day`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var day string
		var n int
		if err := rows.Scan(&day, &n); err != nil {
			return nil, err
		}
		counts[day] = n
	}
	return counts, rows.Err()
}

// MarkedByDay tallies present and total recorded marks per day, keyed YYYY-MM-DD.
func (r *Repository) MarkedByDay(ctx context.Context, studentIDs []string, subjectID string, from, to time.Time) (map[string]DayCount, error) {
	if len(studentIDs) == 0 {
		return map[string]DayCount{}, nil
	}
	query := `
		SELECT to_char(date, 'YYYY-MM-DD') AS day,
		       COUNT(*) FILTER (WHERE status = 'Present') AS present,
		       COUNT(*) AS marked
		FROM attendance
		WHERE student_id = ANY($1) AND date BETWEEN $2 AND $3`
	args := []any{studentIDs, from, to}
	if subjectID != "" {
		query += ` AND subject_id = $4`
		args = append(args, subjectID)
	}
	query += ` GROUP BY day`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]DayCount)
	for rows.Next() {
		var day string
		var c DayCount
		if err := rows.Scan(&day, &c.Present, &c.Marked); err != nil {
			return nil, err
		}
		counts[day] = c
	}
	return counts, rows.Err()
}

// Find returns raw records with basic filters, for operational inspection.
func (r *Repository) Find(ctx context.Context, f Filter) ([]Record, error) {
	query := `SELECT id, class_id, student_id, subject_id, date, session, status, created_at, updated_at FROM attendance`
	args := []any{}
	clauses := []string{}
	if f.ClassID != "" {
		clauses = append(clauses, "class_id = $"+itoa(len(args)+1))
		args = append(args, f.ClassID)
	}
	if f.SubjectID != "" {
		clauses = append(clauses, "subject_id = $"+itoa(len(args)+1))
		args = append(args, f.SubjectID)
	}
	if !f.From.IsZero() {
		clauses = append(clauses, "date >= $"+itoa(len(args)+1))
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		clauses = append(clauses, "date <= $"+itoa(len(args)+1))
		args = append(args, f.To)
	}
	if len(clauses) > 0 {
		query += " WHERE " + joinClauses(clauses, " AND ")
	}
	query += " ORDER BY date, session"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		var classID sql.NullString
		if err := rows.Scan(&rec.ID, &classID, &rec.StudentID, &rec.SubjectID, &rec.Date, &rec.Session, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		rec.ClassID = classID.String
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// CountsBySubject tallies one student's records grouped by subject name.
func (r *Repository) CountsBySubject(ctx context.Context, studentID string) ([]SubjectCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(s.name, 'Unknown') AS subject,
		       COUNT(*) FILTER (WHERE a.status = 'Present') AS present,
		       COUNT(*) AS total
		FROM attendance a
		LEFT JOIN subjects s ON s.id = a.subject_id
		WHERE a.student_id = $1
		GROUP BY subject
		ORDER BY subject
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []SubjectCount
	for rows.Next() {
		var c SubjectCount
		if err := rows.Scan(&c.Subject, &c.Present, &c.Total); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func itoa(i int) string { return fmt.Sprintf("%d", i) }

func joinClauses(parts []string, sep string) string {
	if len(parts) == 0 {
		return ""
	}
	out := parts[0]
	for i := 1; i < len(parts); i++ {
		out += sep + parts[i]
	}
	return out
}
