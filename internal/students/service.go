package students

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/oklog/ulid/v2"
)

type Code string

// 共通エラーコード（entries/books と同型）
const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func ErrInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrConflict(msg string) *APIError { return &APIError{Code: CodeConflict, Message: msg} }
func ErrInternal(msg string) *APIError { return &APIError{Code: CodeInternal, Message: msg} }

func toHTTPStatus(err error) int {
	if api, ok := err.(*APIError); ok {
		switch api.Code {
		case CodeInvalidArgument:
			return 400
		case CodeNotFound:
			return 404
		case CodeConflict:
			return 409
		}
	}
	return 500
}

type Service struct {
	db    *sql.DB
	store *Store
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db, store: NewStore(db)}
}

func (s *Service) AddStudent(ctx context.Context, req AddStudentRequest) (*StudentResponse, error) {
	if strings.TrimSpace(req.StudentNumber) == "" || strings.TrimSpace(req.Name) == "" {
		return nil, ErrInvalid("student_number and name are required")
	}

	st := &Student{
		StudentULID:   ulid.Make().String(),
		StudentNumber: strings.TrimSpace(req.StudentNumber),
		Name:          strings.TrimSpace(req.Name),
		Email:         req.Email,
		Pronouns:      req.Pronouns,
		PhotoURL:      req.PhotoURL,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.Insert(ctx, st); err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 { // duplicate key
			return nil, ErrConflict("student_number already exists")
		}
		log.Printf("[ERROR] insert student: %v", err)
		return nil, ErrInternal("failed to add student")
	}
	resp := st.toDTO()
	return &resp, nil
}

func (s *Service) GetStudent(ctx context.Context, studentNumber string) (*StudentResponse, error) {
	if strings.TrimSpace(studentNumber) == "" {
		return nil, ErrInvalid("student_number is required")
	}
	st, err := s.store.GetByNumber(ctx, studentNumber)
	if err != nil {
		return nil, err
	}
	resp := st.toDTO()
	return &resp, nil
}

func (s *Service) ListStudents(ctx context.Context) ([]StudentResponse, error) {
	items, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]StudentResponse, 0, len(items))
	for i := range items {
		out = append(out, items[i].toDTO())
	}
	return out, nil
}
