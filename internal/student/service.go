package student

import (
	"context"
	"errors"
	"fmt"

	"student-sandbox/internal/metrics"

	"github.com/go-playground/validator/v10"
)

var (
	ErrStudentNotFound = errors.New("student not found")
	ErrInvalidInput    = errors.New("invalid input")
)

type Service interface {
	CreateStudents(ctx context.Context, students []*Student) error
	GetAllStudents(ctx context.Context) ([]Student, error)
	GetNames(ctx context.Context, order Order) ([]string, error)
	GetNameGrades(ctx context.Context, order Order) ([]NameGrade, error)
	GetNameBirthdays(ctx context.Context, order Order, limit int) ([]NameBirthday, error)
	GetFirstNameBirthday(ctx context.Context, order Order) (*NameBirthday, error)
	CountStudents(ctx context.Context) (int, error)
	FindStudents(ctx context.Context, filter Filter) ([]Student, error)
	FindFirstStudent(ctx context.Context, filter Filter) (*Student, error)
	UpdateStudents(ctx context.Context, students []*Student) error
	IncrementGrades(ctx context.Context, filter Filter, delta int) (int64, error)
	DeleteStudent(ctx context.Context, student *Student) error
	DeleteStudents(ctx context.Context, filter Filter) (int64, error)
}

type service struct {
	repo     Repository
	validate *validator.Validate
	metrics  *metrics.Metrics
}

func NewService(repo Repository, m *metrics.Metrics) Service {
	return &service{
		repo:     repo,
		validate: validator.New(),
		metrics:  m,
	}
}

func (s *service) CreateStudents(ctx context.Context, students []*Student) error {
	for i, student := range students {
		if student == nil {
			return fmt.Errorf("%w: student %d is nil", ErrInvalidInput, i)
		}
		if student.ID != 0 {
			return fmt.Errorf("%w: student %d already has id %d", ErrInvalidInput, i, student.ID)
		}
		if err := s.validate.Struct(student); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	if err := s.repo.BulkInsert(ctx, students); err != nil {
		return err
	}
	s.metrics.Students.RecordCreated(ctx, int64(len(students)))
	return nil
}

func (s *service) GetAllStudents(ctx context.Context) ([]Student, error) {
	return s.repo.All(ctx)
}

func (s *service) GetNames(ctx context.Context, order Order) ([]string, error) {
	return s.repo.Names(ctx, order)
}

func (s *service) GetNameGrades(ctx context.Context, order Order) ([]NameGrade, error) {
	return s.repo.NameGrades(ctx, order)
}

func (s *service) GetNameBirthdays(ctx context.Context, order Order, limit int) ([]NameBirthday, error) {
	return s.repo.NameBirthdays(ctx, order, limit)
}

func (s *service) GetFirstNameBirthday(ctx context.Context, order Order) (*NameBirthday, error) {
	return s.repo.FirstNameBirthday(ctx, order)
}

func (s *service) CountStudents(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *service) FindStudents(ctx context.Context, filter Filter) ([]Student, error) {
	return s.repo.Find(ctx, filter)
}

func (s *service) FindFirstStudent(ctx context.Context, filter Filter) (*Student, error) {
	return s.repo.First(ctx, filter)
}

func (s *service) UpdateStudents(ctx context.Context, students []*Student) error {
	for _, student := range students {
		if student.ID <= 0 {
			return ErrInvalidInput
		}
	}
	return s.repo.SaveAll(ctx, students)
}

func (s *service) IncrementGrades(ctx context.Context, filter Filter, delta int) (int64, error) {
	n, err := s.repo.IncrementGrade(ctx, filter, delta)
	if err != nil {
		return 0, err
	}
	s.metrics.Students.RecordGradesRaised(ctx, n)
	return n, nil
}

func (s *service) DeleteStudent(ctx context.Context, student *Student) error {
	if student == nil || student.ID <= 0 {
		return ErrInvalidInput
	}
	if err := s.repo.Delete(ctx, student); err != nil {
		return err
	}
	s.metrics.Students.RecordDeleted(ctx, 1)
	return nil
}

func (s *service) DeleteStudents(ctx context.Context, filter Filter) (int64, error) {
	n, err := s.repo.DeleteWhere(ctx, filter)
	if err != nil {
		return 0, err
	}
	s.metrics.Students.RecordDeleted(ctx, n)
	return n, nil
}
