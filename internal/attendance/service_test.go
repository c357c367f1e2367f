package attendance

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classledger/internal/apperr"
)

// fakeRoster serves fixed rosters per class.
type fakeRoster struct {
	rosters map[string][]RosterStudent
}

func (f *fakeRoster) Roster(_ context.Context, classID string) ([]RosterStudent, error) {
	return f.rosters[classID], nil
}

// fakeStore keeps records in memory and mirrors the repository's grouping
// semantics so the service can be exercised without Postgres.
type fakeStore struct {
	records      []Record
	subjectNames map[string]string
	err          error
}

func key(r Record) string {
	return r.ClassID + "|" + r.StudentID + "|" + r.SubjectID + "|" + r.Date.Format("2006-01-02") + "|" + r.Session
}

func (f *fakeStore) UpsertBatch(_ context.Context, recs []Record) error {
	if f.err != nil {
		return f.err
	}
	for _, rec := range recs {
		replaced := false
		for i := range f.records {
			if key(f.records[i]) == key(rec) {
				f.records[i].Status = rec.Status
				replaced = true
				break
			}
		}
		if !replaced {
			f.records = append(f.records, rec)
		}
	}
	return nil
}

func inSet(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func inRange(d, from, to time.Time) bool {
	return !d.Before(from) && !d.After(to)
}

func (f *fakeStore) StatusesOn(_ context.Context, studentIDs []string, day time.Time, subjectID string) (map[string]Status, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]Status)
	for _, rec := range f.records {
		if !inSet(studentIDs, rec.StudentID) || !rec.Date.Equal(day) {
			continue
		}
		if subjectID != "" && rec.SubjectID != subjectID {
			continue
		}
		out[rec.StudentID] = rec.Status
	}
	return out, nil
}

func (f *fakeStore) CountsByStudent(_ context.Context, studentIDs []string, subjectID string, from, to time.Time) (map[string]PresenceCount, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]PresenceCount)
	for _, rec := range f.records {
		if !inSet(studentIDs, rec.StudentID) || !inRange(rec.Date, from, to) {
			continue
		}
		if subjectID != "" && rec.SubjectID != subjectID {
			continue
		}
		c := out[rec.StudentID]
		c.Total++
		if rec.Status == StatusPresent {
			c.Present++
		}
		out[rec.StudentID] = c
	}
	return out, nil
}

func (f *fakeStore) PresentByDay(_ context.Context, studentIDs []string, subjectID string, from, to time.Time) (map[string]int, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]int)
	for _, rec := range f.records {
		if !inSet(studentIDs, rec.StudentID) || !inRange(rec.Date, from, to) || rec.Status != StatusPresent {
			continue
		}
		if subjectID != "" && rec.SubjectID != subjectID {
			continue
		}
		out[rec.Date.Format("2006-01-02")]++
	}
	return out, nil
}

func (f *fakeStore) MarkedByDay(_ context.Context, studentIDs []string, subjectID string, from, to time.Time) (map[string]DayCount, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]DayCount)
	for _, rec := range f.records {
		if !inSet(studentIDs, rec.StudentID) || !inRange(rec.Date, from, to) {
			continue
		}
		if subjectID != "" && rec.SubjectID != subjectID {
			continue
		}
		day := rec.Date.Format("2006-01-02")
		c := out[day]
		c.Marked++
		if rec.Status == StatusPresent {
			c.Present++
		}
		out[day] = c
	}
	return out, nil
}

func (f *fakeStore) Find(_ context.Context, filter Filter) ([]Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []Record
	for _, rec := range f.records {
		if filter.ClassID != "" && rec.ClassID != filter.ClassID {
			continue
		}
		if filter.SubjectID != "" && rec.SubjectID != filter.SubjectID {
			continue
		}
		if !filter.From.IsZero() && rec.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && rec.Date.After(filter.To) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeStore) CountsBySubject(_ context.Context, studentID string) ([]SubjectCount, error) {
	if f.err != nil {
		return nil, f.err
	}
	bySubject := make(map[string]SubjectCount)
	for _, rec := range f.records {
		if rec.StudentID != studentID {
			continue
		}
		name, ok := f.subjectNames[rec.SubjectID]
		if !ok {
			name = "Unknown"
		}
		c := bySubject[name]
		c.Subject = name
		c.Total++
		if rec.Status == StatusPresent {
			c.Present++
		}
		bySubject[name] = c
	}
	names := make([]string, 0, len(bySubject))
	for name := range bySubject {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]SubjectCount, 0, len(names))
	for _, name := range names {
		out = append(out, bySubject[name])
	}
	return out, nil
}

var _ Store = (*fakeStore)(nil)

const (
	classA   = "11111111-1111-1111-1111-111111111111"
	subjMath = "22222222-2222-2222-2222-222222222222"
	subjPhys = "33333333-3333-3333-3333-333333333333"
	s1       = "44444444-4444-4444-4444-444444444444"
	s2       = "55555555-5555-5555-5555-555555555555"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestService(store *fakeStore) *Service {
	roster := &fakeRoster{rosters: map[string][]RosterStudent{
		classA: {
			{ID: s1, Name: "Asha", RollNo: "01"},
			{ID: s2, Name: "Bilal", RollNo: "02"},
		},
	}}
	return NewService(store, roster)
}

func TestMark(t *testing.T) {
	ctx := context.Background()

	t.Run("missing fields are rejected before any write", func(t *testing.T) {
		store := &fakeStore{}
		svc := newTestService(store)

		err := svc.Mark(ctx, MarkInput{ClassID: classA, SubjectID: subjMath})
		require.Error(t, err)
		assert.Equal(t, apperr.Validation, apperr.KindOf(err))
		assert.Empty(t, store.records)
	})

	t.Run("invalid status is rejected before any write", func(t *testing.T) {
		store := &fakeStore{}
		svc := newTestService(store)

		err := svc.Mark(ctx, MarkInput{
			Date:      date("2024-02-01"),
			ClassID:   classA,
			SubjectID: subjMath,
			Records:   []MarkRecord{{StudentID: s1, Status: "Late"}},
		})
		require.Error(t, err)
		assert.Equal(t, apperr.Validation, apperr.KindOf(err))
		assert.Empty(t, store.records)
	})

	t.Run("session defaults and date truncates to midnight", func(t *testing.T) {
		store := &fakeStore{}
		svc := newTestService(store)

		noon := time.Date(2024, 2, 1, 12, 30, 45, 0, time.UTC)
		err := svc.Mark(ctx, MarkInput{
			Date:      noon,
			ClassID:   classA,
			SubjectID: subjMath,
			Records:   []MarkRecord{{StudentID: s1, Status: StatusPresent}},
		})
		require.NoError(t, err)
		require.Len(t, store.records, 1)
		assert.Equal(t, DefaultSession, store.records[0].Session)
		assert.Equal(t, date("2024-02-01"), store.records[0].Date)
	})

	t.Run("marking the same key twice keeps one record with the latest status", func(t *testing.T) {
		store := &fakeStore{}
		svc := newTestService(store)

		in := MarkInput{
			Date:      date("2024-02-01"),
			ClassID:   classA,
			SubjectID: subjMath,
			Records:   []MarkRecord{{StudentID: s1, Status: StatusPresent}},
		}
		require.NoError(t, svc.Mark(ctx, in))

		in.Records[0].Status = StatusAbsent
		require.NoError(t, svc.Mark(ctx, in))

		require.Len(t, store.records, 1)
		assert.Equal(t, StatusAbsent, store.records[0].Status)
	})

	t.Run("distinct sessions create distinct records", func(t *testing.T) {
		store := &fakeStore{}
		svc := newTestService(store)

		in := MarkInput{
			Date:      date("2024-02-01"),
			ClassID:   classA,
			SubjectID: subjMath,
			Records:   []MarkRecord{{StudentID: s1, Status: StatusPresent}},
		}
		require.NoError(t, svc.Mark(ctx, in))
		in.Session = "Period 2"
		require.NoError(t, svc.Mark(ctx, in))

		assert.Len(t, store.records, 2)
	})

	t.Run("store failure surfaces as a persistence error", func(t *testing.T) {
		store := &fakeStore{err: errors.New("connection reset")}
		svc := newTestService(store)

		err := svc.Mark(ctx, MarkInput{
			Date:      date("2024-02-01"),
			ClassID:   classA,
			SubjectID: subjMath,
			Records:   []MarkRecord{{StudentID: s1, Status: StatusPresent}},
		})
		require.Error(t, err)
		assert.Equal(t, apperr.Internal, apperr.KindOf(err))
	})
}

func TestGetAttendance(t *testing.T) {
	ctx := context.Background()

	t.Run("missing date or class is rejected", func(t *testing.T) {
		svc := newTestService(&fakeStore{})
		_, err := svc.GetAttendance(ctx, time.Time{}, classA, "")
		assert.Equal(t, apperr.Validation, apperr.KindOf(err))
		_, err = svc.GetAttendance(ctx, date("2024-02-01"), "", "")
		assert.Equal(t, apperr.Validation, apperr.KindOf(err))
	})

	t.Run("every roster student appears, unmarked students default to Absent", func(t *testing.T) {
		store := &fakeStore{records: []Record{
			{ClassID: classA, StudentID: s1, SubjectID: subjMath, Date: date("2024-02-01"), Session: DefaultSession, Status: StatusPresent},
		}}
		svc := newTestService(store)

		out, err := svc.GetAttendance(ctx, date("2024-02-01"), classA, "")
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, StudentStatus{StudentID: s1, Name: "Asha", RollNo: "01", Status: StatusPresent}, out[0])
		assert.Equal(t, StudentStatus{StudentID: s2, Name: "Bilal", RollNo: "02", Status: StatusAbsent}, out[1])
	})

	t.Run("records on other days do not leak in", func(t *testing.T) {
		store := &fakeStore{records: []Record{
			{ClassID: classA, StudentID: s1, SubjectID: subjMath, Date: date("2024-02-02"), Session: DefaultSession, Status: StatusPresent},
		}}
		svc := newTestService(store)

		out, err := svc.GetAttendance(ctx, date("2024-02-01"), classA, "")
		require.NoError(t, err)
		for _, row := range out {
			assert.Equal(t, StatusAbsent, row.Status)
		}
	})

	t.Run("subject filter narrows the lookup", func(t *testing.T) {
		store := &fakeStore{records: []Record{
			{ClassID: classA, StudentID: s1, SubjectID: subjMath, Date: date("2024-02-01"), Session: DefaultSession, Status: StatusPresent},
			{ClassID: classA, StudentID: s2, SubjectID: subjPhys, Date: date("2024-02-01"), Session: DefaultSession, Status: StatusPresent},
		}}
		svc := newTestService(store)

		out, err := svc.GetAttendance(ctx, date("2024-02-01"), classA, subjMath)
		require.NoError(t, err)
		assert.Equal(t, StatusPresent, out[0].Status)
		assert.Equal(t, StatusAbsent, out[1].Status)
	})
}

func TestClassReport(t *testing.T) {
	ctx := context.Background()

	t.Run("present and total counts with percentage", func(t *testing.T) {
		store := &fakeStore{records: []Record{
			{ClassID: classA, StudentID: s1, SubjectID: subjMath, Date: date("2024-02-01"), Session: DefaultSession, Status: StatusPresent},
			{ClassID: classA, StudentID: s1, SubjectID: subjMath, Date: date("2024-02-02"), Session: DefaultSession, Status: StatusPresent},
			{ClassID: classA, StudentID: s1, SubjectID: subjMath, Date: date("2024-02-03"), Session: DefaultSession, Status: StatusAbsent},
		}}
		svc := newTestService(store)

		report, err := svc.ClassReport(ctx, classA, "", date("2024-02-01"), date("2024-02-29"))
		require.NoError(t, err)
		require.Len(t, report, 2)

		assert.Equal(t, "Asha", report[0].Name)
		assert.Equal(t, 2, report[0].Present)
		assert.Equal(t, 3, report[0].Total)
		assert.InDelta(t, 66.67, report[0].Percentage, 0.01)
	})

	t.Run("students with no records report zero percentage, not an error", func(t *testing.T) {
		svc := newTestService(&fakeStore{})

		report, err := svc.ClassReport(ctx, classA, "", date("2024-02-01"), date("2024-02-29"))
		require.NoError(t, err)
		require.Len(t, report, 2)
		for _, row := range report {
			assert.Zero(t, row.Present)
			assert.Zero(t, row.Total)
			assert.Zero(t, row.Percentage)
		}
	})

	t.Run("missing range is rejected", func(t *testing.T) {
		svc := newTestService(&fakeStore{})
		_, err := svc.ClassReport(ctx, classA, "", time.Time{}, date("2024-02-29"))
		assert.Equal(t, apperr.Validation, apperr.KindOf(err))
	})
}

func TestTrends(t *testing.T) {
	ctx := context.Background()

	t.Run("dense axis on an empty store", func(t *testing.T) {
		svc := newTestService(&fakeStore{})

		points, err := svc.Trends(ctx, classA, "", date("2024-01-01"), date("2024-01-05"))
		require.NoError(t, err)
		require.Len(t, points, 5)
		for i, p := range points {
			assert.Equal(t, date("2024-01-01").AddDate(0, 0, i).Format("2006-01-02"), p.Date)
			assert.Zero(t, p.PresentCount)
			assert.Equal(t, 2, p.Total)
		}
	})

	t.Run("present counts land on their day, absences do not count", func(t *testing.T) {
		store := &fakeStore{records: []Record{
			{ClassID: classA, StudentID: s1, SubjectID: subjMath, Date: date("2024-01-02"), Session: DefaultSession, Status: StatusPresent},
			{ClassID: classA, StudentID: s2, SubjectID: subjMath, Date: date("2024-01-02"), Session: DefaultSession, Status: StatusPresent},
			{ClassID: classA, StudentID: s1, SubjectID: subjMath, Date: date("2024-01-03"), Session: DefaultSession, Status: StatusAbsent},
		}}
		svc := newTestService(store)

		points, err := svc.Trends(ctx, classA, "", date("2024-01-01"), date("2024-01-03"))
		require.NoError(t, err)
		require.Len(t, points, 3)
		assert.Equal(t, 0, points[0].PresentCount)
		assert.Equal(t, 2, points[1].PresentCount)
		assert.Equal(t, 0, points[2].PresentCount)
	})
}

func TestDailyReport(t *testing.T) {
	ctx := context.Background()

	t.Run("percentage normalizes against records taken, not roster size", func(t *testing.T) {
		// Only one of two roster students was marked that day.
		store := &fakeStore{records: []Record{
			{ClassID: classA, StudentID: s1, SubjectID: subjMath, Date: date("2024-01-02"), Session: DefaultSession, Status: StatusPresent},
		}}
		svc := newTestService(store)

		rows, err := svc.DailyReport(ctx, classA, "", date("2024-01-01"), date("2024-01-03"))
		require.NoError(t, err)
		require.Len(t, rows, 3)

		assert.Equal(t, "2024-01-02", rows[1].Date)
		assert.Equal(t, 2, rows[1].Day)
		assert.Equal(t, 1, rows[1].PresentCount)
		assert.Equal(t, 1, rows[1].TotalMarked)
		assert.Equal(t, 2, rows[1].ClassStrength)
		assert.InDelta(t, 100.0, rows[1].Percentage, 0.001)
	})

	t.Run("days without records report zero percentage", func(t *testing.T) {
		svc := newTestService(&fakeStore{})

		rows, err := svc.DailyReport(ctx, classA, "", date("2024-01-01"), date("2024-01-05"))
		require.NoError(t, err)
		require.Len(t, rows, 5)
		for _, row := range rows {
			assert.Zero(t, row.TotalMarked)
			assert.Zero(t, row.Percentage)
		}
	})
}

func TestDebug(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{records: []Record{
		{ClassID: classA, StudentID: s1, SubjectID: subjMath, Date: date("2024-01-02"), Session: DefaultSession, Status: StatusPresent},
		{ClassID: classA, StudentID: s1, SubjectID: subjPhys, Date: date("2024-01-09"), Session: DefaultSession, Status: StatusAbsent},
	}}
	svc := newTestService(store)

	t.Run("no filters returns everything", func(t *testing.T) {
		recs, err := svc.Debug(ctx, Filter{})
		require.NoError(t, err)
		assert.Len(t, recs, 2)
	})

	t.Run("open-ended from bound", func(t *testing.T) {
		recs, err := svc.Debug(ctx, Filter{From: date("2024-01-05")})
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, subjPhys, recs[0].SubjectID)
	})

	t.Run("empty result is a list, not null", func(t *testing.T) {
		recs, err := svc.Debug(ctx, Filter{SubjectID: "99999999-9999-9999-9999-999999999999"})
		require.NoError(t, err)
		assert.NotNil(t, recs)
		assert.Empty(t, recs)
	})
}

func TestReportForStudent(t *testing.T) {
	ctx := context.Background()

	t.Run("groups by subject and buckets unresolved subjects under Unknown", func(t *testing.T) {
		store := &fakeStore{
			subjectNames: map[string]string{subjMath: "Mathematics"},
			records: []Record{
				{ClassID: classA, StudentID: s1, SubjectID: subjMath, Date: date("2024-01-02"), Session: DefaultSession, Status: StatusPresent},
				{ClassID: classA, StudentID: s1, SubjectID: subjMath, Date: date("2024-01-03"), Session: DefaultSession, Status: StatusAbsent},
				{ClassID: classA, StudentID: s1, SubjectID: subjPhys, Date: date("2024-01-02"), Session: DefaultSession, Status: StatusPresent},
			},
		}
		svc := newTestService(store)

		report, err := svc.ReportForStudent(ctx, s1)
		require.NoError(t, err)
		require.Len(t, report.BySubject, 2)

		assert.Equal(t, "Mathematics", report.BySubject[0].Name)
		assert.InDelta(t, 50.0, report.BySubject[0].Percentage, 0.001)
		assert.Equal(t, "Unknown", report.BySubject[1].Name)
		assert.InDelta(t, 100.0, report.BySubject[1].Percentage, 0.001)
		assert.InDelta(t, 66.67, report.Overall, 0.01)
	})

	t.Run("student with no records reports zero overall", func(t *testing.T) {
		svc := newTestService(&fakeStore{})

		report, err := svc.ReportForStudent(ctx, s1)
		require.NoError(t, err)
		assert.Zero(t, report.Overall)
		assert.Empty(t, report.BySubject)
		assert.NotNil(t, report.BySubject)
	})
}

func TestDayHelpers(t *testing.T) {
	t.Run("Day truncates to midnight UTC", func(t *testing.T) {
		noon := time.Date(2024, 3, 15, 13, 45, 12, 999, time.FixedZone("X", 3600))
		assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), Day(noon))
	})

	t.Run("dayKeys is inclusive on both ends", func(t *testing.T) {
		keys := dayKeys(date("2024-01-30"), date("2024-02-02"))
		assert.Equal(t, []string{"2024-01-30", "2024-01-31", "2024-02-01", "2024-02-02"}, keys)
	})

	t.Run("single-day range yields one key", func(t *testing.T) {
		keys := dayKeys(date("2024-01-01"), date("2024-01-01"))
		assert.Equal(t, []string{"2024-01-01"}, keys)
	})
}
