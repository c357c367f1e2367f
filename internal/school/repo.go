package school

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// Repository persists school entities in Postgres. Lookup methods return
// (nil, nil) when the row does not exist.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// -------- Classes --------

// InsertClass writes a new class.
func (r *Repository) InsertClass(ctx context.Context, name string) (Class, error) {
	c := Class{ID: uuid.NewString(), Name: name}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO classes (id, name) VALUES ($1, $2)
		RETURNING created_at, updated_at
	`, c.ID, c.Name)
	if err := row.Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return Class{}, err
	}
	return c, nil
}

// ClassByID returns a class or nil.
func (r *Repository) ClassByID(ctx context.Context, id string) (*Class, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, created_at, updated_at FROM classes WHERE id = $1`, id)
	var c Class
	if err := row.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// ClassByName returns a class or nil.
func (r *Repository) ClassByName(ctx context.Context, name string) (*Class, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, created_at, updated_at FROM classes WHERE name = $1`, name)
	var c Class
	if err := row.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// ListClasses returns all classes.
func (r *Repository) ListClasses(ctx context.Context) ([]Class, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at, updated_at FROM classes ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []Class
	for rows.Next() {
		var c Class
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

// UpdateClassName renames a class; returns nil when the class does not exist.
func (r *Repository) UpdateClassName(ctx context.Context, id, name string) (*Class, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE classes SET name = $2, updated_at = NOW() WHERE id = $1
		RETURNING id, name, created_at, updated_at
	`, id, name)
	var c Class
	if err := row.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// DeleteClass removes a class; returns false when it did not exist.
func (r *Repository) DeleteClass(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// -------- Students --------

const studentCols = `s.id, s.name, s.roll_no, s.class_id, COALESCE(c.name, ''), s.created_at, s.updated_at`

func scanStudent(row interface{ Scan(...any) error }) (Student, error) {
	var st Student
	err := row.Scan(&st.ID, &st.Name, &st.RollNo, &st.ClassID, &st.ClassName, &st.CreatedAt, &st.UpdatedAt)
	return st, err
}

// InsertStudent writes a new student.
func (r *Repository) InsertStudent(ctx context.Context, name, rollNo, classID string) (Student, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO students (id, name, roll_no, class_id) VALUES ($1, $2, $3, $4)
	`, id, name, rollNo, classID)
	if err != nil {
		return Student{}, err
	}
	st, err := r.StudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	return *st, nil
}

// StudentByID returns a student or nil.
func (r *Repository) StudentByID(ctx context.Context, id string) (*Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+studentCols+` FROM students s LEFT JOIN classes c ON c.id = s.class_id WHERE s.id = $1
	`, id)
	st, err := scanStudent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &st, nil
}

// StudentByRollNo returns a student or nil.
func (r *Repository) StudentByRollNo(ctx context.Context, rollNo string) (*Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+studentCols+` FROM students s LEFT JOIN classes c ON c.id = s.class_id WHERE s.roll_no = $1
	`, rollNo)
	st, err := scanStudent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &st, nil
}

// ListStudents returns all students with their class names.
func (r *Repository) ListStudents(ctx context.Context) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+studentCols+` FROM students s LEFT JOIN classes c ON c.id = s.class_id ORDER BY s.roll_no
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

// StudentsByClass returns the class roster ordered by roll number.
func (r *Repository) StudentsByClass(ctx context.Context, classID string) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+studentCols+` FROM students s LEFT JOIN classes c ON c.id = s.class_id
		WHERE s.class_id = $1 ORDER BY s.roll_no
	`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

// UpdateStudent overwrites the provided fields; empty strings keep the stored
// value. Returns nil when the student does not exist.
func (r *Repository) UpdateStudent(ctx context.Context, id, name, rollNo, classID string) (*Student, error) {
	_, err := r.db.ExecContext(ctx, `
		UPDATE students SET
			name       = COALESCE(NULLIF($2, ''), name),
			roll_no    = COALESCE(NULLIF($3, ''), roll_no),
			class_id   = COALESCE(NULLIF($4, '')::uuid, class_id),
			updated_at = NOW()
		WHERE id = $1
	`, id, name, rollNo, classID)
	if err != nil {
		return nil, err
	}
	return r.StudentByID(ctx, id)
}

// DeleteStudent removes a student; returns false when absent. Attendance
// records are intentionally left in place.
func (r *Repository) DeleteStudent(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// -------- Subjects --------

// InsertSubject writes a subject linked to one teacher and one class.
func (r *Repository) InsertSubject(ctx context.Context, name, code, teacherID, classID string) (Subject, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Subject{}, err
	}
	defer tx.Rollback()

	sub := Subject{ID: uuid.NewString(), Name: name, Code: code, TeacherIDs: []string{teacherID}, ClassIDs: []string{classID}}
	row := tx.QueryRowContext(ctx, `
		INSERT INTO subjects (id, name, code) VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`, sub.ID, sub.Name, sub.Code)
	if err := row.Scan(&sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return Subject{}, err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO subject_teachers (subject_id, teacher_id) VALUES ($1, $2)`, sub.ID, teacherID); err != nil {
		return Subject{}, err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO subject_classes (subject_id, class_id) VALUES ($1, $2)`, sub.ID, classID); err != nil {
		return Subject{}, err
	}
	return sub, tx.Commit()
}

// SubjectByID returns a subject with its teacher and class links, or nil.
func (r *Repository) SubjectByID(ctx context.Context, id string) (*Subject, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, code, created_at, updated_at FROM subjects WHERE id = $1`, id)
	var sub Subject
	if err := row.Scan(&sub.ID, &sub.Name, &sub.Code, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadSubjectLinks(ctx, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// SubjectByCode returns a subject or nil. Links are not loaded.
func (r *Repository) SubjectByCode(ctx context.Context, code string) (*Subject, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, code, created_at, updated_at FROM subjects WHERE code = $1`, code)
	var sub Subject
	if err := row.Scan(&sub.ID, &sub.Name, &sub.Code, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// ListSubjects returns all subjects with links.
func (r *Repository) ListSubjects(ctx context.Context) ([]Subject, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, code, created_at, updated_at FROM subjects ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []Subject
	for rows.Next() {
		var sub Subject
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.Code, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
			return nil, err
		}
		subjects = append(subjects, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range subjects {
		if err := r.loadSubjectLinks(ctx, &subjects[i]); err != nil {
			return nil, err
		}
	}
	return subjects, nil
}

func (r *Repository) loadSubjectLinks(ctx context.Context, sub *Subject) error {
	teacherIDs, err := r.listIDs(ctx, `SELECT teacher_id FROM subject_teachers WHERE subject_id = $1 ORDER BY teacher_id`, sub.ID)
	if err != nil {
		return err
	}
	classIDs, err := r.listIDs(ctx, `SELECT class_id FROM subject_classes WHERE subject_id = $1 ORDER BY class_id`, sub.ID)
	if err != nil {
		return err
	}
	sub.TeacherIDs, sub.ClassIDs = teacherIDs, classIDs
	return nil
}

// UpdateSubject overwrites the provided fields; empty strings keep stored
// values. A non-empty teacherID or classID replaces the whole link set.
// Returns nil when the subject does not exist.
func (r *Repository) UpdateSubject(ctx context.Context, id, name, code, teacherID, classID string) (*Subject, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE subjects SET
			name       = COALESCE(NULLIF($2, ''), name),
			code       = COALESCE(NULLIF($3, ''), code),
			updated_at = NOW()
		WHERE id = $1
	`, id, name, code)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, nil
	}
	if teacherID != "" {
		if _, err := tx.ExecContext(ctx, `DELETE FROM subject_teachers WHERE subject_id = $1`, id); err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO subject_teachers (subject_id, teacher_id) VALUES ($1, $2)`, id, teacherID); err != nil {
			return nil, err
		}
	}
	if classID != "" {
		if _, err := tx.ExecContext(ctx, `DELETE FROM subject_classes WHERE subject_id = $1`, id); err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO subject_classes (subject_id, class_id) VALUES ($1, $2)`, id, classID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.SubjectByID(ctx, id)
}

// DeleteSubject removes a subject and its links; returns false when absent.
func (r *Repository) DeleteSubject(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// -------- Teachers --------

// InsertTeacher writes a new teacher with the default role.
func (r *Repository) InsertTeacher(ctx context.Context, name, email, passwordHash string) (Teacher, error) {
	t := Teacher{ID: uuid.NewString(), Name: name, Email: email, PasswordHash: passwordHash, Role: RoleTeacher}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO teachers (id, name, email, password_hash) VALUES ($1, $2, $3, $4)
		RETURNING role, created_at, updated_at
	`, t.ID, t.Name, t.Email, t.PasswordHash)
	if err := row.Scan(&t.Role, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return Teacher{}, err
	}
	return t, nil
}

// TeacherByEmail returns a teacher or nil. Links are not loaded.
func (r *Repository) TeacherByEmail(ctx context.Context, email string) (*Teacher, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, created_at, updated_at FROM teachers WHERE email = $1
	`, email)
	var t Teacher
	if err := row.Scan(&t.ID, &t.Name, &t.Email, &t.PasswordHash, &t.Role, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// TeacherByID returns a teacher with class and subject links, or nil.
func (r *Repository) TeacherByID(ctx context.Context, id string) (*Teacher, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, created_at, updated_at FROM teachers WHERE id = $1
	`, id)
	var t Teacher
	if err := row.Scan(&t.ID, &t.Name, &t.Email, &t.PasswordHash, &t.Role, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	classIDs, err := r.listIDs(ctx, `SELECT class_id FROM teacher_classes WHERE teacher_id = $1 ORDER BY class_id`, id)
	if err != nil {
		return nil, err
	}
	subjectIDs, err := r.listIDs(ctx, `SELECT subject_id FROM subject_teachers WHERE teacher_id = $1 ORDER BY subject_id`, id)
	if err != nil {
		return nil, err
	}
	t.ClassIDs, t.SubjectIDs = classIDs, subjectIDs
	return &t, nil
}

// UpdateTeacher overwrites the provided fields; empty strings keep stored
// values. Returns nil when the teacher does not exist.
func (r *Repository) UpdateTeacher(ctx context.Context, id, name, email, passwordHash string) (*Teacher, error) {
	_, err := r.db.ExecContext(ctx, `
		UPDATE teachers SET
			name          = COALESCE(NULLIF($2, ''), name),
			email         = COALESCE(NULLIF($3, ''), email),
			password_hash = COALESCE(NULLIF($4, ''), password_hash),
			updated_at    = NOW()
		WHERE id = $1
	`, id, name, email, passwordHash)
	if err != nil {
		return nil, err
	}
	return r.TeacherByID(ctx, id)
}

// DeleteTeacher removes a teacher; returns false when absent.
func (r *Repository) DeleteTeacher(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM teachers WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// -------- Relationships --------

// LinkTeacherClass adds a teacher↔class link; linking twice is a no-op.
func (r *Repository) LinkTeacherClass(ctx context.Context, teacherID, classID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO teacher_classes (teacher_id, class_id) VALUES ($1, $2)
		ON CONFLICT (teacher_id, class_id) DO NOTHING
	`, teacherID, classID)
	return err
}

// UnlinkTeacherClass removes a teacher↔class link.
func (r *Repository) UnlinkTeacherClass(ctx context.Context, teacherID, classID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM teacher_classes WHERE teacher_id = $1 AND class_id = $2`, teacherID, classID)
	return err
}

// LinkTeacherSubject adds a teacher↔subject link; linking twice is a no-op.
func (r *Repository) LinkTeacherSubject(ctx context.Context, teacherID, subjectID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subject_teachers (subject_id, teacher_id) VALUES ($1, $2)
		ON CONFLICT (subject_id, teacher_id) DO NOTHING
	`, subjectID, teacherID)
	return err
}

// UnlinkTeacherSubject removes a teacher↔subject link.
func (r *Repository) UnlinkTeacherSubject(ctx context.Context, teacherID, subjectID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM subject_teachers WHERE subject_id = $1 AND teacher_id = $2`, subjectID, teacherID)
	return err
}

func (r *Repository) listIDs(ctx context.Context, query string, arg any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
