package borrows

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Notifier は状態遷移の通知先。実装は notifications パッケージ側。
// 通知失敗は台帳の更新を巻き戻さない（fire-and-forget）。
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

type Notification struct {
	StudentNumber string
	Title         string
	Message       string
	Type          string // info / success / warning / error
	BookULID      string
}

// Policy は運用パラメータ。config.yaml から注入される。
type Policy struct {
	BorrowPeriodDays int
	FinePerDay       float64
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
	db       *sql.DB
	store    *Store
	notifier Notifier
	policy   Policy
	clock    Clock
	id       IDGen
}

func NewService(db *sql.DB, notifier Notifier, policy Policy) *Service {
	return &Service{
		db:       db,
		store:    NewStore(db),
		notifier: notifier,
		policy:   policy,
		clock:    realClock{},
		id:       ulidGen{},
	}
}

func (s *Service) notify(ctx context.Context, n Notification) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, n)
}

// Request は貸出申請を pending で登録する。
// 在庫チェックも罰金チェックもここでは行わない。申請は常に受け付け、
// 在庫の引当は承認時、罰金の扱いは運用判断（can-borrow は参考値）。
func (s *Service) Request(ctx context.Context, req CreateBorrowRequest) (*BorrowResponse, error) {
	if strings.TrimSpace(req.BookULID) == "" {
		return nil, ErrInvalid("book_ulid is required")
	}
	if strings.TrimSpace(req.StudentNumber) == "" {
		return nil, ErrInvalid("student_number is required")
	}
	if strings.TrimSpace(req.StudentName) == "" {
		return nil, ErrInvalid("student_name is required")
	}

	bookID, title, err := s.store.ResolveBook(ctx, req.BookULID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	r := &BorrowRecord{
		BorrowULID:    s.id.NewULID(),
		BookID:        bookID,
		BookULID:      req.BookULID,
		BookTitle:     title,
		StudentNumber: strings.TrimSpace(req.StudentNumber),
		StudentName:   strings.TrimSpace(req.StudentName),
		BorrowDate:    now,
		DueDate:       now.AddDate(0, 0, s.policy.BorrowPeriodDays),
		Status:        StatusPending,
	}
	if err := s.store.Insert(ctx, r); err != nil {
		log.Printf("[ERROR] insert borrow request: %v", err)
		return nil, ErrInternal("failed to create borrow request")
	}
	resp := r.toDTO(now, s.policy.FinePerDay)
	return &resp, nil
}

// Approve: pending → approved。在庫引当込み。
func (s *Service) Approve(ctx context.Context, borrowULID string) (*BorrowResponse, error) {
	r, err := s.store.ExecApprove(ctx, borrowULID)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, Notification{
		StudentNumber: r.StudentNumber,
		Title:         "Borrow Request Approved",
		Message:       fmt.Sprintf("Your request for %q has been approved. Please collect your book.", r.BookTitle),
		Type:          "success",
		BookULID:      r.BookULID,
	})
	resp := r.toDTO(s.clock.Now(), s.policy.FinePerDay)
	return &resp, nil
}

// Reject: pending → rejected。理由未指定時はデフォルト文言。
func (s *Service) Reject(ctx context.Context, borrowULID string, reason *string) (*BorrowResponse, error) {
	rs := DefaultRejectionReason
	if reason != nil && strings.TrimSpace(*reason) != "" {
		rs = strings.TrimSpace(*reason)
	}
	r, err := s.store.ExecReject(ctx, borrowULID, rs)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, Notification{
		StudentNumber: r.StudentNumber,
		Title:         "Borrow Request Rejected",
		Message:       fmt.Sprintf("Your request for %q was rejected. Reason: %s", r.BookTitle, rs),
		Type:          "error",
		BookULID:      r.BookULID,
	})
	resp := r.toDTO(s.clock.Now(), s.policy.FinePerDay)
	return &resp, nil
}

// Return: approved → returned。在庫戻し込み。
func (s *Service) Return(ctx context.Context, borrowULID string) (*BorrowResponse, error) {
	r, err := s.store.ExecReturn(ctx, borrowULID, s.clock.Now())
	if err != nil {
		return nil, err
	}
	s.notify(ctx, Notification{
		StudentNumber: r.StudentNumber,
		Title:         "Book Returned",
		Message:       fmt.Sprintf("You have successfully returned %q. Thank you!", r.BookTitle),
		Type:          "info",
		BookULID:      r.BookULID,
	})
	resp := r.toDTO(s.clock.Now(), s.policy.FinePerDay)
	return &resp, nil
}

// MarkLost: 紛失確定。ペナルティは正の額のみ。
func (s *Service) MarkLost(ctx context.Context, borrowULID string, penalty float64) (*BorrowResponse, error) {
	if penalty <= 0 {
		return nil, ErrInvalid("penalty must be a positive amount")
	}
	r, err := s.store.ExecMarkLost(ctx, borrowULID, penalty)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, Notification{
		StudentNumber: r.StudentNumber,
		Title:         "Book Marked as Lost",
		Message: fmt.Sprintf(
			"The book %q has been marked as lost. You have been charged a penalty of ₱%.2f. Please visit the library office to settle this.",
			r.BookTitle, penalty),
		Type:     "error",
		BookULID: r.BookULID,
	})
	resp := r.toDTO(s.clock.Now(), s.policy.FinePerDay)
	return &resp, nil
}

// MarkFinePaid: 罰金支払いの確定。通知額は更新前の実効未払額。
func (s *Service) MarkFinePaid(ctx context.Context, borrowULID string) (*BorrowResponse, error) {
	now := s.clock.Now()
	prev, err := s.store.ExecMarkFinePaid(ctx, borrowULID, now)
	if err != nil {
		return nil, err
	}
	amount := UnpaidAmount(prev, now, s.policy.FinePerDay)
	s.notify(ctx, Notification{
		StudentNumber: prev.StudentNumber,
		Title:         "Fine Payment Confirmed",
		Message: fmt.Sprintf(
			"Your fine of ₱%.2f for %q has been recorded as paid. Thank you!",
			amount, prev.BookTitle),
		Type:     "success",
		BookULID: prev.BookULID,
	})

	paid := *prev
	fs := FinePaid
	paid.FineStatus = &fs
	t := now
	paid.FinePaidDate = &t
	resp := paid.toDTO(now, s.policy.FinePerDay)
	return &resp, nil
}

// Remind は延滞中の学生へ督促通知を送る。台帳は変更しない。
func (s *Service) Remind(ctx context.Context, borrowULID string) error {
	r, err := s.store.GetByULID(ctx, borrowULID)
	if err != nil {
		return err
	}
	f := AssessFine(r, s.clock.Now(), s.policy.FinePerDay)
	if !f.IsOverdue {
		return ErrPrecondition("borrow record is not overdue")
	}
	s.notify(ctx, Notification{
		StudentNumber: r.StudentNumber,
		Title:         "Overdue Book Reminder",
		Message:       fmt.Sprintf("Please return %q as soon as possible. It is overdue.", r.BookTitle),
		Type:          "warning",
		BookULID:      r.BookULID,
	})
	return nil
}

func (s *Service) Get(ctx context.Context, borrowULID string) (*BorrowResponse, error) {
	r, err := s.store.GetByULID(ctx, borrowULID)
	if err != nil {
		return nil, err
	}
	resp := r.toDTO(s.clock.Now(), s.policy.FinePerDay)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]BorrowResponse, int64, error) {
	records, total, err := s.store.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	now := s.clock.Now()
	out := make([]BorrowResponse, 0, len(records))
	for i := range records {
		out = append(out, records[i].toDTO(now, s.policy.FinePerDay))
	}
	return out, total, nil
}

func (s *Service) ListByStudent(ctx context.Context, studentNumber string) ([]BorrowResponse, error) {
	if strings.TrimSpace(studentNumber) == "" {
		return nil, ErrInvalid("student_number is required")
	}
	records, err := s.store.ListAllByStudent(ctx, studentNumber)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	out := make([]BorrowResponse, 0, len(records))
	for i := range records {
		out = append(out, records[i].toDTO(now, s.policy.FinePerDay))
	}
	return out, nil
}

// TotalUnpaidFines は実効ステータスが unpaid の請求額合計。
// 保存値ではなく導出後の実効値で数える。fine_status 未設定のまま
// 延滞しているレコードも取りこぼさない。
func (s *Service) TotalUnpaidFines(ctx context.Context, studentNumber string) (*FineSummaryResponse, error) {
	if strings.TrimSpace(studentNumber) == "" {
		return nil, ErrInvalid("student_number is required")
	}
	records, err := s.store.ListAllByStudent(ctx, studentNumber)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	var total float64
	for i := range records {
		total += UnpaidAmount(&records[i], now, s.policy.FinePerDay)
	}
	return &FineSummaryResponse{
		StudentNumber:    studentNumber,
		TotalUnpaidFines: total,
		CanBorrow:        total == 0,
	}, nil
}
