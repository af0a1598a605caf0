package categories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	mysql "github.com/go-sql-driver/mysql"
)

// ===== Error model =====
type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code
	Message string
}

func (e *APIError) Error() string      { return fmt.Sprintf("%s: %s", e.Code, e.Message) }
func ErrInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrConflict(msg string) *APIError { return &APIError{Code: CodeConflict, Message: msg} }
func ErrInternal(msg string) *APIError { return &APIError{Code: CodeInternal, Message: msg} }

func toHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return 400
		case CodeNotFound:
			return 404
		case CodeConflict:
			return 409
		default:
			return 500
		}
	}
	return 500
}

type Service struct {
	db    *sql.DB
	store *Store
}

func NewService(db *sql.DB) *Service { return &Service{db: db, store: NewStore(db)} }

func parseBoolish(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	return s == "1" || s == "true" || s == "yes" || s == "all"
}

func normalizeCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", ErrInvalid("code is required")
	}
	return code, nil
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalid("name is required")
	}
	return name, nil
}

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return false
}

// ===== categories =====

func (s *Service) List(ctx context.Context, all string) ([]BookCategory, error) {
	includeDisabled := parseBoolish(all)
	return s.store.List(ctx, includeDisabled)
}

func (s *Service) Get(ctx context.Context, id uint) (*BookCategory, error) {
	bc, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound("category not found")
		}
		return nil, ErrInternal("failed to get category")
	}
	return bc, nil
}

func (s *Service) Create(ctx context.Context, name string, code string) (*BookCategory, error) {
	n, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	c, err := normalizeCode(code)
	if err != nil {
		return nil, err
	}

	bc, err := s.store.Create(ctx, n, c)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrConflict("code already exists")
		}
		return nil, ErrInternal("failed to create category")
	}
	return bc, nil
}

func (s *Service) Update(ctx context.Context, id uint, name string, code string, disabled bool) (*BookCategory, error) {
	n, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	c, err := normalizeCode(code)
	if err != nil {
		return nil, err
	}

	err = s.store.Update(ctx, id, n, c, disabled)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound("category not found")
		}
		if isDuplicateKey(err) {
			return nil, ErrConflict("code already exists")
		}
		return nil, ErrInternal("failed to update category")
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	err := s.store.Disable(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound("category not found")
		}
		return ErrInternal("failed to delete category")
	}
	return nil
}
