package books

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	ulid "github.com/oklog/ulid/v2"
)

// ===== Error model (entries/borrows と同型) =====
type Code string

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

func validateCopies(available, total int) error {
	if total <= 0 {
		return ErrInvalid("total_copies must be > 0")
	}
	if available < 0 || available > total {
		return ErrInvalid("available_copies must be between 0 and total_copies")
	}
	return nil
}

// ===== Service =====

type Service struct {
	db    *sql.DB
	store *Store
}

func NewService(db *sql.DB) *Service { return &Service{db: db, store: NewStore(db)} }

func nowUTC() time.Time { return time.Now().UTC() }

func (s *Service) CreateBook(ctx context.Context, in CreateBookRequest) (BookResponse, error) {
	title := strings.TrimSpace(in.Title)
	author := strings.TrimSpace(in.Author)
	category := strings.TrimSpace(in.Category)
	if title == "" || author == "" || category == "" {
		return BookResponse{}, ErrInvalid("title, author, category are required")
	}

	available := in.TotalCopies
	if in.AvailableCopies != nil {
		available = *in.AvailableCopies
	}
	if err := validateCopies(available, in.TotalCopies); err != nil {
		return BookResponse{}, err
	}

	b := &Book{
		BookULID:        ulid.Make().String(),
		Title:           title,
		Author:          author,
		Category:        category,
		ISBN:            in.ISBN,
		Description:     in.Description,
		CoverURL:        in.CoverURL,
		AvailableCopies: available,
		TotalCopies:     in.TotalCopies,
		AddedAt:         nowUTC(),
	}
	if err := s.store.Insert(ctx, b); err != nil {
		return BookResponse{}, err
	}
	return b.toDTO(), nil
}

func (s *Service) GetBook(ctx context.Context, bookULID string) (BookResponse, error) {
	b, err := s.store.GetByULID(ctx, bookULID)
	if err != nil {
		return BookResponse{}, err
	}
	return b.toDTO(), nil
}

func (s *Service) ListBooks(ctx context.Context, q SearchQuery, p Page) ([]BookResponse, int64, error) {
	items, total, err := s.store.List(ctx, q, p)
	if err != nil {
		return nil, 0, err
	}
	out := make([]BookResponse, 0, len(items))
	for i := range items {
		out = append(out, items[i].toDTO())
	}
	return out, total, nil
}

func (s *Service) UpdateBook(ctx context.Context, bookULID string, in UpdateBookRequest) (BookResponse, error) {
	// 事前バリデーション（両方指定時のみここで判定できる。片方のみは現在行と合成後にstoreで判定）
	if in.TotalCopies != nil && in.AvailableCopies != nil {
		if err := validateCopies(*in.AvailableCopies, *in.TotalCopies); err != nil {
			return BookResponse{}, err
		}
	}
	b, err := s.store.ExecUpdate(ctx, bookULID, in)
	if err != nil {
		return BookResponse{}, err
	}
	return b.toDTO(), nil
}

func (s *Service) DeleteBook(ctx context.Context, bookULID string) error {
	return s.store.SoftDelete(ctx, bookULID)
}
