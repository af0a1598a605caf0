package entries

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	ulid "github.com/oklog/ulid/v2"
)

// ===== Error model (books/borrows と同型) =====
type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeAlreadyClosed   Code = "ALREADY_CLOSED"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string           { return fmt.Sprintf("%s: %s", e.Code, e.Message) }
func ErrInvalid(msg string) *APIError       { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError      { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrAlreadyClosed(msg string) *APIError { return &APIError{Code: CodeAlreadyClosed, Message: msg} }
func ErrInternal(msg string) *APIError      { return &APIError{Code: CodeInternal, Message: msg} }

func toHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return 400
		case CodeNotFound:
			return 404
		case CodeAlreadyClosed:
			return 409
		default:
			return 500
		}
	}
	return 500
}

// ===== インターフェース群 =====

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type IDGen interface {
	New() (string, error)
}

type ulidGen struct{}

func (ulidGen) New() (string, error) {
	t := time.Now().UTC()
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ===== Service =====

type Service struct {
	db    *sql.DB
	store *Store
	clock Clock
	id    IDGen
}

func NewService(db *sql.DB) *Service {
	return &Service{
		db:    db,
		store: NewStore(db),
		clock: realClock{},
		id:    ulidGen{},
	}
}

// POST /entries（入館）
func (s *Service) CheckIn(ctx context.Context, req CheckInRequest) (EntryResponse, error) {
	if strings.TrimSpace(req.StudentNumber) == "" {
		return EntryResponse{}, ErrInvalid("student_number is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return EntryResponse{}, ErrInvalid("name is required")
	}
	purpose := DefaultPurpose
	if req.Purpose != nil && strings.TrimSpace(*req.Purpose) != "" {
		purpose = strings.TrimSpace(*req.Purpose)
	}

	idStr, err := s.id.New()
	if err != nil {
		return EntryResponse{}, err
	}

	e := &Entry{
		EntryULID:     idStr,
		StudentNumber: strings.TrimSpace(req.StudentNumber),
		Name:          strings.TrimSpace(req.Name),
		Purpose:       purpose,
		CheckedInAt:   s.clock.Now(),
	}
	if err := s.store.Insert(ctx, e); err != nil {
		return EntryResponse{}, err
	}
	return e.toDTO(), nil
}

// POST /entries/checkout（退館）
// 2回連続で呼ばれたら2回目は ALREADY_CLOSED（冪等ガード）。
func (s *Service) CheckOut(ctx context.Context, studentNumber string) (EntryResponse, error) {
	if strings.TrimSpace(studentNumber) == "" {
		return EntryResponse{}, ErrInvalid("student_number is required")
	}
	e, err := s.store.ExecCheckOut(ctx, strings.TrimSpace(studentNumber), s.clock.Now())
	if err != nil {
		return EntryResponse{}, err
	}
	return e.toDTO(), nil
}

// POST /entries/scan（キオスクトグル）
func (s *Service) Scan(ctx context.Context, req ScanRequest) (ScanResponse, error) {
	code := strings.TrimSpace(req.StudentNumber)
	if code == "" {
		return ScanResponse{}, ErrInvalid("student_number is required")
	}
	idStr, err := s.id.New()
	if err != nil {
		return ScanResponse{}, err
	}
	action, e, err := s.store.ExecScan(ctx, code, idStr, s.clock.Now())
	if err != nil {
		return ScanResponse{}, err
	}
	return ScanResponse{Action: action, Entry: e.toDTO()}, nil
}

// GET /entries/latest?student_number=
// 見つからない場合は (nil, nil)。ハンドラ側で 204 を返す。
func (s *Service) Latest(ctx context.Context, studentNumber string) (*EntryResponse, error) {
	if strings.TrimSpace(studentNumber) == "" {
		return nil, ErrInvalid("student_number is required")
	}
	e, err := s.store.Latest(ctx, strings.TrimSpace(studentNumber))
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, nil
	}
	dto := e.toDTO()
	return &dto, nil
}

// GET /entries
func (s *Service) List(ctx context.Context, q ListQuery) ([]EntryResponse, int64, error) {
	rows, total, err := s.store.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	out := make([]EntryResponse, 0, len(rows))
	for i := 0; i < len(rows); i++ {
		out = append(out, rows[i].toDTO())
	}
	return out, total, nil
}

// GET /entries/stats
func (s *Service) Stats(ctx context.Context, req StatsRequest) ([]StatsRow, error) {
	from, err := time.ParseInLocation(DateLayout, req.From, time.UTC)
	if err != nil {
		return nil, ErrInvalid("from must be YYYY-MM-DD")
	}
	to, err := time.ParseInLocation(DateLayout, req.To, time.UTC)
	if err != nil {
		return nil, ErrInvalid("to must be YYYY-MM-DD")
	}
	if to.Before(from) {
		return nil, ErrInvalid("to must be >= from")
	}
	return s.store.Stats(ctx, from, to, req.Limit)
}
