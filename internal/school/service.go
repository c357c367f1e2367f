package school

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"classledger/internal/apperr"
)

// Store is the persistence surface the service needs. *Repository implements it.
type Store interface {
	InsertClass(ctx context.Context, name string) (Class, error)
	ClassByID(ctx context.Context, id string) (*Class, error)
	ClassByName(ctx context.Context, name string) (*Class, error)
	ListClasses(ctx context.Context) ([]Class, error)
	UpdateClassName(ctx context.Context, id, name string) (*Class, error)
	DeleteClass(ctx context.Context, id string) (bool, error)

	InsertStudent(ctx context.Context, name, rollNo, classID string) (Student, error)
	StudentByID(ctx context.Context, id string) (*Student, error)
	StudentByRollNo(ctx context.Context, rollNo string) (*Student, error)
	ListStudents(ctx context.Context) ([]Student, error)
	StudentsByClass(ctx context.Context, classID string) ([]Student, error)
	UpdateStudent(ctx context.Context, id, name, rollNo, classID string) (*Student, error)
	DeleteStudent(ctx context.Context, id string) (bool, error)

	InsertSubject(ctx context.Context, name, code, teacherID, classID string) (Subject, error)
	SubjectByID(ctx context.Context, id string) (*Subject, error)
	SubjectByCode(ctx context.Context, code string) (*Subject, error)
	ListSubjects(ctx context.Context) ([]Subject, error)
	UpdateSubject(ctx context.Context, id, name, code, teacherID, classID string) (*Subject, error)
	DeleteSubject(ctx context.Context, id string) (bool, error)

	InsertTeacher(ctx context.Context, name, email, passwordHash string) (Teacher, error)
	TeacherByEmail(ctx context.Context, email string) (*Teacher, error)
	TeacherByID(ctx context.Context, id string) (*Teacher, error)
	UpdateTeacher(ctx context.Context, id, name, email, passwordHash string) (*Teacher, error)
	DeleteTeacher(ctx context.Context, id string) (bool, error)

	LinkTeacherClass(ctx context.Context, teacherID, classID string) error
	UnlinkTeacherClass(ctx context.Context, teacherID, classID string) error
	LinkTeacherSubject(ctx context.Context, teacherID, subjectID string) error
	UnlinkTeacherSubject(ctx context.Context, teacherID, subjectID string) error
}

var _ Store = (*Repository)(nil)

// Service validates inputs and enforces entity relationships on top of a Store.
type Service struct {
	repo  Store
	cache *RosterCache
}

// NewService creates a service; cache may be nil.
func NewService(repo Store, cache *RosterCache) *Service {
	return &Service{repo: repo, cache: cache}
}

// -------- Classes --------

// CreateClass adds a class with a unique name.
func (s *Service) CreateClass(ctx context.Context, name string) (Class, error) {
	if name == "" {
		return Class{}, apperr.Validationf("name is required")
	}
	existing, err := s.repo.ClassByName(ctx, name)
	if err != nil {
		return Class{}, apperr.Persistence("error creating class", err)
	}
	if existing != nil {
		return Class{}, apperr.Conflictf("class already exists")
	}
	c, err := s.repo.InsertClass(ctx, name)
	if err != nil {
		return Class{}, apperr.Persistence("error creating class", err)
	}
	return c, nil
}

// Classes lists all classes.
func (s *Service) Classes(ctx context.Context) ([]Class, error) {
	classes, err := s.repo.ListClasses(ctx)
	if err != nil {
		return nil, apperr.Persistence("error fetching classes", err)
	}
	if classes == nil {
		classes = []Class{}
	}
	return classes, nil
}

// Class returns one class by id.
func (s *Service) Class(ctx context.Context, id string) (Class, error) {
	c, err := s.repo.ClassByID(ctx, id)
	if err != nil {
		return Class{}, apperr.Persistence("error fetching class", err)
	}
	if c == nil {
		return Class{}, apperr.NotFoundf("class not found")
	}
	return *c, nil
}

// UpdateClass renames a class.
func (s *Service) UpdateClass(ctx context.Context, id, name string) (Class, error) {
	if name == "" {
		return Class{}, apperr.Validationf("name is required")
	}
	c, err := s.repo.UpdateClassName(ctx, id, name)
	if err != nil {
		return Class{}, apperr.Persistence("error updating class", err)
	}
	if c == nil {
		return Class{}, apperr.NotFoundf("class not found")
	}
	return *c, nil
}

// DeleteClass removes an empty class.
func (s *Service) DeleteClass(ctx context.Context, id string) error {
	roster, err := s.repo.StudentsByClass(ctx, id)
	if err != nil {
		return apperr.Persistence("error deleting class", err)
	}
	if len(roster) > 0 {
		return apperr.Conflictf("class has enrolled students")
	}
	ok, err := s.repo.DeleteClass(ctx, id)
	if err != nil {
		return apperr.Persistence("error deleting class", err)
	}
	if !ok {
		return apperr.NotFoundf("class not found")
	}
	s.cache.Invalidate(ctx, id)
	return nil
}

// -------- Students --------

// CreateStudent enrolls a student into an existing class.
func (s *Service) CreateStudent(ctx context.Context, name, rollNo, classID string) (Student, error) {
	if name == "" || rollNo == "" || classID == "" {
		return Student{}, apperr.Validationf("name, rollNo and classId are required")
	}
	class, err := s.repo.ClassByID(ctx, classID)
	if err != nil {
		return Student{}, apperr.Persistence("error creating student", err)
	}
	if class == nil {
		return Student{}, apperr.NotFoundf("class not found")
	}
	existing, err := s.repo.StudentByRollNo(ctx, rollNo)
	if err != nil {
		return Student{}, apperr.Persistence("error creating student", err)
	}
	if existing != nil {
		return Student{}, apperr.Conflictf("roll number already taken")
	}
	st, err := s.repo.InsertStudent(ctx, name, rollNo, classID)
	if err != nil {
		return Student{}, apperr.Persistence("error creating student", err)
	}
	s.cache.Invalidate(ctx, classID)
	return st, nil
}

// Students lists all students.
func (s *Service) Students(ctx context.Context) ([]Student, error) {
	students, err := s.repo.ListStudents(ctx)
	if err != nil {
		return nil, apperr.Persistence("error fetching students", err)
	}
	if students == nil {
		students = []Student{}
	}
	return students, nil
}

// Student returns one student by id.
func (s *Service) Student(ctx context.Context, id string) (Student, error) {
	st, err := s.repo.StudentByID(ctx, id)
	if err != nil {
		return Student{}, apperr.Persistence("error fetching student", err)
	}
	if st == nil {
		return Student{}, apperr.NotFoundf("student not found")
	}
	return *st, nil
}

// Roster returns the students enrolled in a class in roster (roll number)
// order, independent of attendance history. Served from cache when possible.
func (s *Service) Roster(ctx context.Context, classID string) ([]Student, error) {
	if roster, ok := s.cache.Get(ctx, classID); ok {
		return roster, nil
	}
	roster, err := s.repo.StudentsByClass(ctx, classID)
	if err != nil {
		return nil, apperr.Persistence("error fetching roster", err)
	}
	if roster == nil {
		roster = []Student{}
	}
	s.cache.Set(ctx, classID, roster)
	return roster, nil
}

// UpdateStudent overwrites the provided fields; empty strings keep stored values.
func (s *Service) UpdateStudent(ctx context.Context, id, name, rollNo, classID string) (Student, error) {
	current, err := s.repo.StudentByID(ctx, id)
	if err != nil {
		return Student{}, apperr.Persistence("error updating student", err)
	}
	if current == nil {
		return Student{}, apperr.NotFoundf("student not found")
	}
	if classID != "" {
		class, err := s.repo.ClassByID(ctx, classID)
		if err != nil {
			return Student{}, apperr.Persistence("error updating student", err)
		}
		if class == nil {
			return Student{}, apperr.NotFoundf("class not found")
		}
	}
	if rollNo != "" && rollNo != current.RollNo {
		existing, err := s.repo.StudentByRollNo(ctx, rollNo)
		if err != nil {
			return Student{}, apperr.Persistence("error updating student", err)
		}
		if existing != nil {
			return Student{}, apperr.Conflictf("roll number already taken")
		}
	}
	st, err := s.repo.UpdateStudent(ctx, id, name, rollNo, classID)
	if err != nil {
		return Student{}, apperr.Persistence("error updating student", err)
	}
	if st == nil {
		return Student{}, apperr.NotFoundf("student not found")
	}
	s.cache.Invalidate(ctx, current.ClassID, st.ClassID)
	return *st, nil
}

// DeleteStudent removes a student. Attendance history is kept.
func (s *Service) DeleteStudent(ctx context.Context, id string) error {
	current, err := s.repo.StudentByID(ctx, id)
	if err != nil {
		return apperr.Persistence("error deleting student", err)
	}
	if current == nil {
		return apperr.NotFoundf("student not found")
	}
	ok, err := s.repo.DeleteStudent(ctx, id)
	if err != nil {
		return apperr.Persistence("error deleting student", err)
	}
	if !ok {
		return apperr.NotFoundf("student not found")
	}
	s.cache.Invalidate(ctx, current.ClassID)
	return nil
}

// -------- Subjects --------

// CreateSubject adds a subject with a unique code, linked to an existing
// teacher and class.
func (s *Service) CreateSubject(ctx context.Context, name, code, teacherID, classID string) (Subject, error) {
	if name == "" || code == "" || teacherID == "" || classID == "" {
		return Subject{}, apperr.Validationf("name, code, teacherId and classId are required")
	}
	teacher, err := s.repo.TeacherByID(ctx, teacherID)
	if err != nil {
		return Subject{}, apperr.Persistence("error creating subject", err)
	}
	if teacher == nil {
		return Subject{}, apperr.NotFoundf("teacher not found")
	}
	class, err := s.repo.ClassByID(ctx, classID)
	if err != nil {
		return Subject{}, apperr.Persistence("error creating subject", err)
	}
	if class == nil {
		return Subject{}, apperr.NotFoundf("class not found")
	}
	existing, err := s.repo.SubjectByCode(ctx, code)
	if err != nil {
		return Subject{}, apperr.Persistence("error creating subject", err)
	}
	if existing != nil {
		return Subject{}, apperr.Conflictf("subject code already taken")
	}
	sub, err := s.repo.InsertSubject(ctx, name, code, teacherID, classID)
	if err != nil {
		return Subject{}, apperr.Persistence("error creating subject", err)
	}
	return sub, nil
}

// Subjects lists all subjects with their links.
func (s *Service) Subjects(ctx context.Context) ([]Subject, error) {
	subjects, err := s.repo.ListSubjects(ctx)
	if err != nil {
		return nil, apperr.Persistence("error fetching subjects", err)
	}
	if subjects == nil {
		subjects = []Subject{}
	}
	return subjects, nil
}

// Subject returns one subject by id.
func (s *Service) Subject(ctx context.Context, id string) (Subject, error) {
	sub, err := s.repo.SubjectByID(ctx, id)
	if err != nil {
		return Subject{}, apperr.Persistence("error fetching subject", err)
	}
	if sub == nil {
		return Subject{}, apperr.NotFoundf("subject not found")
	}
	return *sub, nil
}

// UpdateSubject overwrites the provided fields; a non-empty teacherId or
// classId replaces the whole link set.
func (s *Service) UpdateSubject(ctx context.Context, id, name, code, teacherID, classID string) (Subject, error) {
	if teacherID != "" {
		teacher, err := s.repo.TeacherByID(ctx, teacherID)
		if err != nil {
			return Subject{}, apperr.Persistence("error updating subject", err)
		}
		if teacher == nil {
			return Subject{}, apperr.NotFoundf("teacher not found")
		}
	}
	if classID != "" {
		class, err := s.repo.ClassByID(ctx, classID)
		if err != nil {
			return Subject{}, apperr.Persistence("error updating subject", err)
		}
		if class == nil {
			return Subject{}, apperr.NotFoundf("class not found")
		}
	}
	if code != "" {
		existing, err := s.repo.SubjectByCode(ctx, code)
		if err != nil {
			return Subject{}, apperr.Persistence("error updating subject", err)
		}
		if existing != nil && existing.ID != id {
			return Subject{}, apperr.Conflictf("subject code already taken")
		}
	}
	sub, err := s.repo.UpdateSubject(ctx, id, name, code, teacherID, classID)
	if err != nil {
		return Subject{}, apperr.Persistence("error updating subject", err)
	}
	if sub == nil {
		return Subject{}, apperr.NotFoundf("subject not found")
	}
	return *sub, nil
}

// DeleteSubject removes a subject and its links. Attendance history is kept;
// records pointing at the deleted subject report under "Unknown".
func (s *Service) DeleteSubject(ctx context.Context, id string) error {
	ok, err := s.repo.DeleteSubject(ctx, id)
	if err != nil {
		return apperr.Persistence("error deleting subject", err)
	}
	if !ok {
		return apperr.NotFoundf("subject not found")
	}
	return nil
}

// -------- Teachers --------

// Register creates a teacher account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, name, email, password string) (Teacher, error) {
	if name == "" || email == "" || password == "" {
		return Teacher{}, apperr.Validationf("name, email and password are required")
	}
	existing, err := s.repo.TeacherByEmail(ctx, email)
	if err != nil {
		return Teacher{}, apperr.Persistence("error registering teacher", err)
	}
	if existing != nil {
		return Teacher{}, apperr.Conflictf("teacher already exists")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Teacher{}, apperr.Persistence("error registering teacher", err)
	}
	t, err := s.repo.InsertTeacher(ctx, name, email, string(hash))
	if err != nil {
		return Teacher{}, apperr.Persistence("error registering teacher", err)
	}
	return t, nil
}

// Authenticate checks credentials and returns the teacher on success.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Teacher, error) {
	if email == "" || password == "" {
		return Teacher{}, apperr.Validationf("email and password are required")
	}
	t, err := s.repo.TeacherByEmail(ctx, email)
	if err != nil {
		return Teacher{}, apperr.Persistence("error logging in", err)
	}
	if t == nil {
		return Teacher{}, apperr.Unauthorizedf("invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(t.PasswordHash), []byte(password)) != nil {
		return Teacher{}, apperr.Unauthorizedf("invalid credentials")
	}
	return *t, nil
}

// Profile returns a teacher with class and subject links.
func (s *Service) Profile(ctx context.Context, id string) (Teacher, error) {
	t, err := s.repo.TeacherByID(ctx, id)
	if err != nil {
		return Teacher{}, apperr.Persistence("error fetching profile", err)
	}
	if t == nil {
		return Teacher{}, apperr.NotFoundf("teacher not found")
	}
	return *t, nil
}

// UpdateProfile overwrites the provided fields; a non-empty password is
// re-hashed.
func (s *Service) UpdateProfile(ctx context.Context, id, name, email, password string) (Teacher, error) {
	hash := ""
	if password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return Teacher{}, apperr.Persistence("error updating profile", err)
		}
		hash = string(h)
	}
	if email != "" {
		existing, err := s.repo.TeacherByEmail(ctx, email)
		if err != nil {
			return Teacher{}, apperr.Persistence("error updating profile", err)
		}
		if existing != nil && existing.ID != id {
			return Teacher{}, apperr.Conflictf("email already taken")
		}
	}
	t, err := s.repo.UpdateTeacher(ctx, id, name, email, hash)
	if err != nil {
		return Teacher{}, apperr.Persistence("error updating profile", err)
	}
	if t == nil {
		return Teacher{}, apperr.NotFoundf("teacher not found")
	}
	return *t, nil
}

// DeleteTeacher removes a teacher account and their links.
func (s *Service) DeleteTeacher(ctx context.Context, id string) error {
	ok, err := s.repo.DeleteTeacher(ctx, id)
	if err != nil {
		return apperr.Persistence("error deleting teacher", err)
	}
	if !ok {
		return apperr.NotFoundf("teacher not found")
	}
	return nil
}

// -------- Relationships --------

// LinkTeacherClass links a teacher to a class; linking twice is a no-op.
func (s *Service) LinkTeacherClass(ctx context.Context, teacherID, classID string) error {
	if err := s.checkTeacherAndClass(ctx, teacherID, classID); err != nil {
		return err
	}
	if err := s.repo.LinkTeacherClass(ctx, teacherID, classID); err != nil {
		return apperr.Persistence("error linking class", err)
	}
	return nil
}

// UnlinkTeacherClass removes a teacher↔class link.
func (s *Service) UnlinkTeacherClass(ctx context.Context, teacherID, classID string) error {
	if teacherID == "" || classID == "" {
		return apperr.Validationf("teacherId and classId are required")
	}
	if err := s.repo.UnlinkTeacherClass(ctx, teacherID, classID); err != nil {
		return apperr.Persistence("error unlinking class", err)
	}
	return nil
}

// LinkTeacherSubject links a teacher to a subject; linking twice is a no-op.
func (s *Service) LinkTeacherSubject(ctx context.Context, teacherID, subjectID string) error {
	if teacherID == "" || subjectID == "" {
		return apperr.Validationf("teacherId and subjectId are required")
	}
	teacher, err := s.repo.TeacherByID(ctx, teacherID)
	if err != nil {
		return apperr.Persistence("error linking subject", err)
	}
	if teacher == nil {
		return apperr.NotFoundf("teacher not found")
	}
	sub, err := s.repo.SubjectByID(ctx, subjectID)
	if err != nil {
		return apperr.Persistence("error linking subject", err)
	}
	if sub == nil {
		return apperr.NotFoundf("subject not found")
	}
	if err := s.repo.LinkTeacherSubject(ctx, teacherID, subjectID); err != nil {
		return apperr.Persistence("error linking subject", err)
	}
	return nil
}

// UnlinkTeacherSubject removes a teacher↔subject link.
func (s *Service) UnlinkTeacherSubject(ctx context.Context, teacherID, subjectID string) error {
	if teacherID == "" || subjectID == "" {
		return apperr.Validationf("teacherId and subjectId are required")
	}
	if err := s.repo.UnlinkTeacherSubject(ctx, teacherID, subjectID); err != nil {
		return apperr.Persistence("error unlinking subject", err)
	}
	return nil
}

func (s *Service) checkTeacherAndClass(ctx context.Context, teacherID, classID string) error {
	if teacherID == "" || classID == "" {
		return apperr.Validationf("teacherId and classId are required")
	}
	teacher, err := s.repo.TeacherByID(ctx, teacherID)
	if err != nil {
		return apperr.Persistence("error linking class", err)
	}
	if teacher == nil {
		return apperr.NotFoundf("teacher not found")
	}
	class, err := s.repo.ClassByID(ctx, classID)
	if err != nil {
		return apperr.Persistence("error linking class", err)
	}
	if class == nil {
		return apperr.NotFoundf("class not found")
	}
	return nil
}
