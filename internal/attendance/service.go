package attendance

import (
	"context"
	"time"

	"classledger/internal/apperr"
)

// Service coordinates the recorder, query engine, and report aggregator over
// a record store and a roster provider.
type Service struct {
	store  Store
	roster RosterProvider
}

// NewService creates a service backed by a store and roster provider.
func NewService(store Store, roster RosterProvider) *Service {
	return &Service{store: store, roster: roster}
}

// MarkRecord is one student's mark within a batch.
type MarkRecord struct {
	StudentID string `json:"studentId" binding:"required"`
	Status    Status `json:"status" binding:"required"`
}

// MarkInput is a batch of marks for one class/subject/date/session.
type MarkInput struct {
	Date      time.Time
	ClassID   string
	SubjectID string
	Session   string
	Records   []MarkRecord
}

// Mark validates the batch and upserts every record keyed by
// (class, student, subject, day, session). Writes are unordered; a duplicate
// key updates the stored status instead of creating a second record.
func (s *Service) Mark(ctx context.Context, in MarkInput) error {
	if in.Date.IsZero() || in.ClassID == "" || in.SubjectID == "" || len(in.Records) == 0 {
		return apperr.Validationf("date, classId, subjectId and records are required")
	}
	session := in.Session
	if session == "" {
		session = DefaultSession
	}
	day := Day(in.Date)

	recs := make([]Record, 0, len(in.Records))
	for _, m := range in.Records {
		if m.StudentID == "" {
			return apperr.Validationf("records require a studentId")
		}
		if !m.Status.Valid() {
			return apperr.Validationf("invalid status %q", m.Status)
		}
		recs = append(recs, Record{
			ClassID:   in.ClassID,
			StudentID: m.StudentID,
			SubjectID: in.SubjectID,
			Date:      day,
			Session:   session,
			Status:    m.Status,
		})
	}

	if err := s.store.UpsertBatch(ctx, recs); err != nil {
		return apperr.Persistence("error marking attendance", err)
	}
	return nil
}

// StudentStatus is one roster student's status on a queried day.
type StudentStatus struct {
	StudentID string `json:"studentId"`
	Name      string `json:"name"`
	RollNo    string `json:"rollNo"`
	Status    Status `json:"status"`
}

// GetAttendance joins the class roster against the records of one day. Every
// roster student appears exactly once, in roster order; a student with no
// record is reported Absent. When no subject is given and several sessions
// exist, the last scanned record's status wins.
func (s *Service) GetAttendance(ctx context.Context, date time.Time, classID, subjectID string) ([]StudentStatus, error) {
	if date.IsZero() || classID == "" {
		return nil, apperr.Validationf("date and classId are required")
	}
	roster, err := s.roster.Roster(ctx, classID)
	if err != nil {
		return nil, err
	}

	statuses, err := s.store.StatusesOn(ctx, studentIDs(roster), Day(date), subjectID)
	if err != nil {
		return nil, apperr.Persistence("error fetching attendance", err)
	}

	out := make([]StudentStatus, 0, len(roster))
	for _, st := range roster {
		status, ok := statuses[st.ID]
		if !ok {
			status = StatusAbsent
		}
		out = append(out, StudentStatus{StudentID: st.ID, Name: st.Name, RollNo: st.RollNo, Status: status})
	}
	return out, nil
}

// ReportRow is one roster student's summary over a date range.
type ReportRow struct {
	Name       string  `json:"name"`
	Present    int     `json:"present"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// ClassReport summarizes present/total/percentage per roster student over
// [from, to]. Students with no records in range report 0 across the board.
func (s *Service) ClassReport(ctx context.Context, classID, subjectID string, from, to time.Time) ([]ReportRow, error) {
	if classID == "" || from.IsZero() || to.IsZero() {
		return nil, apperr.Validationf("classId and date range are required")
	}
	roster, err := s.roster.Roster(ctx, classID)
	if err != nil {
		return nil, err
	}

	counts, err := s.store.CountsByStudent(ctx, studentIDs(roster), subjectID, Day(from), Day(to))
	if err != nil {
		return nil, apperr.Persistence("error generating report", err)
	}

	report := make([]ReportRow, 0, len(roster))
	for _, st := range roster {
		c := counts[st.ID]
		report = append(report, ReportRow{
			Name:       st.Name,
			Present:    c.Present,
			Total:      c.Total,
			Percentage: percentage(c.Present, c.Total),
		})
	}
	return report, nil
}

// TrendPoint is one day's Present count against the full roster size.
type TrendPoint struct {
	Date         string `json:"date"`
	PresentCount int    `json:"presentCount"`
	Total        int    `json:"total"`
}

// Trends returns the daily Present-count series over [from, to]. The series is
// dense: one point per calendar day, zero-filled for days with no records.
// Total is the constant roster size, not the number of records taken.
func (s *Service) Trends(ctx context.Context, classID, subjectID string, from, to time.Time) ([]TrendPoint, error) {
	if classID == "" || from.IsZero() || to.IsZero() {
		return nil, apperr.Validationf("classId and date range are required")
	}
	roster, err := s.roster.Roster(ctx, classID)
	if err != nil {
		return nil, err
	}

	counts, err := s.store.PresentByDay(ctx, studentIDs(roster), subjectID, Day(from), Day(to))
	if err != nil {
		return nil, apperr.Persistence("error generating trends", err)
	}

	days := dayKeys(from, to)
	points := make([]TrendPoint, 0, len(days))
	for _, day := range days {
		points = append(points, TrendPoint{Date: day, PresentCount: counts[day], Total: len(roster)})
	}
	return points, nil
}

// DailyRow is one day's attendance summary. Percentage is normalized against
// totalMarked (records actually taken that day), the correct metric when
// attendance-taking is incomplete; classStrength is the roster size.
type DailyRow struct {
	Date          string  `json:"date"`
	Day           int     `json:"day"`
	PresentCount  int     `json:"presentCount"`
	TotalMarked   int     `json:"totalMarked"`
	ClassStrength int     `json:"classStrength"`
	Percentage    float64 `json:"percentage"`
}

// DailyReport returns the dense daily percentage series over [from, to].
func (s *Service) DailyReport(ctx context.Context, classID, subjectID string, from, to time.Time) ([]DailyRow, error) {
	if classID == "" || from.IsZero() || to.IsZero() {
		return nil, apperr.Validationf("classId and date range are required")
	}
	roster, err := s.roster.Roster(ctx, classID)
	if err != nil {
		return nil, err
	}

	counts, err := s.store.MarkedByDay(ctx, studentIDs(roster), subjectID, Day(from), Day(to))
	if err != nil {
		return nil, apperr.Persistence("error generating daily report", err)
	}

	days := dayKeys(from, to)
	rows := make([]DailyRow, 0, len(days))
	for _, day := range days {
		c := counts[day]
		d, _ := time.Parse("2006-01-02", day)
		rows = append(rows, DailyRow{
			Date:          day,
			Day:           d.Day(),
			PresentCount:  c.Present,
			TotalMarked:   c.Marked,
			ClassStrength: len(roster),
			Percentage:    percentage(c.Present, c.Marked),
		})
	}
	return rows, nil
}

// Debug returns raw records for operational inspection. Every filter field is
// optional; a half-open date range degrades to an open-ended bound.
func (s *Service) Debug(ctx context.Context, f Filter) ([]Record, error) {
	if !f.From.IsZero() {
		f.From = Day(f.From)
	}
	if !f.To.IsZero() {
		f.To = Day(f.To)
	}
	recs, err := s.store.Find(ctx, f)
	if err != nil {
		return nil, apperr.Persistence("error fetching records", err)
	}
	if recs == nil {
		recs = []Record{}
	}
	return recs, nil
}

// SubjectPercent is one subject's attendance percentage for a student.
type SubjectPercent struct {
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
}

// StudentReport is a student's overall and per-subject percentages across all
// of their records.
type StudentReport struct {
	Overall   float64          `json:"overall"`
	BySubject []SubjectPercent `json:"bySubject"`
}

// ReportForStudent aggregates one student's records by subject name. Records
// whose subject cannot be resolved appear under "Unknown".
func (s *Service) ReportForStudent(ctx context.Context, studentID string) (StudentReport, error) {
	if studentID == "" {
		return StudentReport{}, apperr.Validationf("studentId is required")
	}
	counts, err := s.store.CountsBySubject(ctx, studentID)
	if err != nil {
		return StudentReport{}, apperr.Persistence("error generating student report", err)
	}

	report := StudentReport{BySubject: make([]SubjectPercent, 0, len(counts))}
	present, total := 0, 0
	for _, c := range counts {
		present += c.Present
		total += c.Total
		report.BySubject = append(report.BySubject, SubjectPercent{
			Name:       c.Subject,
			Percentage: percentage(c.Present, c.Total),
		})
	}
	report.Overall = percentage(present, total)
	return report, nil
}

// Day truncates t to midnight UTC; day granularity is part of the record key.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// dayKeys returns every calendar day in [from, to] inclusive as YYYY-MM-DD.
func dayKeys(from, to time.Time) []string {
	var days []string
	for d := Day(from); !d.After(Day(to)); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format("2006-01-02"))
	}
	return days
}

// percentage never divides by zero: an empty denominator reports 0.
func percentage(present, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(present) / float64(total) * 100
}

func studentIDs(roster []RosterStudent) []string {
	ids := make([]string, 0, len(roster))
	for _, st := range roster {
		ids = append(ids, st.ID)
	}
	return ids
}
