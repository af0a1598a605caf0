package borrows

import "time"

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

type CreateBorrowRequest struct {
	BookULID      string `json:"book_ulid" binding:"required"`
	StudentNumber string `json:"student_number" binding:"required"`
	StudentName   string `json:"student_name" binding:"required"`
}

type RejectRequest struct {
	Reason *string `json:"reason,omitempty"`
}

type MarkLostRequest struct {
	Penalty float64 `json:"penalty" binding:"required"`
}

type BorrowResponse struct {
	BorrowULID      string     `json:"borrow_ulid"`
	BookULID        string     `json:"book_ulid"`
	BookTitle       string     `json:"book_title"`
	StudentNumber   string     `json:"student_number"`
	StudentName     string     `json:"student_name"`
	BorrowDate      time.Time  `json:"borrow_date"`
	DueDate         time.Time  `json:"due_date"`
	ReturnDate      *time.Time `json:"return_date,omitempty"`
	Status          string     `json:"status"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`

	// 導出値（保存しない）
	IsOverdue   bool    `json:"is_overdue"`
	DaysOverdue int     `json:"days_overdue"`
	FineAmount  float64 `json:"fine_amount"`

	// 保存される罰金系フィールド
	LostPenalty  *float64   `json:"lost_penalty,omitempty"`
	FineStatus   *string    `json:"fine_status,omitempty"` // 実効値（未設定時は unpaid 扱い）
	FinePaidDate *time.Time `json:"fine_paid_date,omitempty"`
}

type FineSummaryResponse struct {
	StudentNumber    string  `json:"student_number"`
	TotalUnpaidFines float64 `json:"total_unpaid_fines"`
	CanBorrow        bool    `json:"can_borrow"`
}
