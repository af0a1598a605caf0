package notifications

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"LIBRIS-backend/internal/lending/borrows"
)

type Code string

// 共通エラーコード（entries/books と同型）
const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func ErrInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrInternal(msg string) *APIError { return &APIError{Code: CodeInternal, Message: msg} }

func toHTTPStatus(err error) int {
	if api, ok := err.(*APIError); ok {
		switch api.Code {
		case CodeInvalidArgument:
			return 400
		case CodeNotFound:
			return 404
		}
	}
	return 500
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type IDGen interface {
	NewULID() string
}

type ulidGen struct{}

func (ulidGen) NewULID() string { return ulid.Make().String() }

type Service struct {
	db    *sql.DB
	store *Store
	clock Clock
	id    IDGen
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db, store: NewStore(db), clock: realClock{}, id: ulidGen{}}
}

func (s *Service) Add(ctx context.Context, req AddRequest) (*NotificationResponse, error) {
	if strings.TrimSpace(req.StudentNumber) == "" {
		return nil, ErrInvalid("student_number is required")
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Message) == "" {
		return nil, ErrInvalid("title and message are required")
	}
	t := req.Type
	if t == "" {
		t = TypeInfo
	}
	if !validType(t) {
		return nil, ErrInvalid("type must be one of info/success/warning/error")
	}

	n := &Notification{
		NotificationULID: s.id.NewULID(),
		StudentNumber:    strings.TrimSpace(req.StudentNumber),
		Title:            req.Title,
		Message:          req.Message,
		Type:             t,
		RelatedBookULID:  req.RelatedBookULID,
		CreatedAt:        s.clock.Now(),
	}
	if err := s.store.Insert(ctx, n); err != nil {
		log.Printf("[ERROR] insert notification: %v", err)
		return nil, ErrInternal("failed to add notification")
	}
	resp := n.toDTO()
	return &resp, nil
}

func (s *Service) List(ctx context.Context, studentNumber string, limit int) ([]NotificationResponse, error) {
	if strings.TrimSpace(studentNumber) == "" {
		return nil, ErrInvalid("student_number is required")
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	items, err := s.store.ListByStudent(ctx, studentNumber, limit)
	if err != nil {
		return nil, err
	}
	out := make([]NotificationResponse, 0, len(items))
	for i := range items {
		out = append(out, items[i].toDTO())
	}
	return out, nil
}

func (s *Service) MarkRead(ctx context.Context, notificationULID string) error {
	return s.store.MarkRead(ctx, notificationULID)
}

func (s *Service) MarkAllRead(ctx context.Context, studentNumber string) (int64, error) {
	if strings.TrimSpace(studentNumber) == "" {
		return 0, ErrInvalid("student_number is required")
	}
	return s.store.MarkAllRead(ctx, studentNumber)
}

// BorrowNotifier は貸出台帳からの通知を受けて保存するアダプタ。
// 失敗はログに残すだけで呼び元へは返さない。
type BorrowNotifier struct {
	svc *Service
}

func NewBorrowNotifier(svc *Service) *BorrowNotifier { return &BorrowNotifier{svc: svc} }

func (b *BorrowNotifier) Notify(ctx context.Context, n borrows.Notification) {
	var related *string
	if n.BookULID != "" {
		v := n.BookULID
		related = &v
	}
	if _, err := b.svc.Add(ctx, AddRequest{
		StudentNumber:   n.StudentNumber,
		Title:           n.Title,
		Message:         n.Message,
		Type:            n.Type,
		RelatedBookULID: related,
	}); err != nil {
		log.Printf("[WARN] notify %s (%s): %v", n.StudentNumber, n.Title, err)
	}
}
