package borrows

import "time"

// 貸出ステータス。pending → {approved, rejected}、approved → {returned, lost}。
// rejected / returned / lost は終端。
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusReturned = "returned"
	StatusLost     = "lost"
)

const (
	FineUnpaid = "unpaid"
	FinePaid   = "paid"
)

const DefaultRejectionReason = "Request rejected"

// BorrowRecord は borrow_records テーブルの1行を表す。
// 延滞情報（is_overdue / days_overdue / fine_amount）は保存しない。
// 読み出しのたびに fine.go で導出する。
type BorrowRecord struct {
	BorrowID        uint64
	BorrowULID      string
	BookID          uint64
	BookULID        string
	BookTitle       string
	StudentNumber   string
	StudentName     string
	BorrowDate      time.Time
	DueDate         time.Time
	ReturnDate      *time.Time
	Status          string
	RejectionReason *string
	LostPenalty     *float64
	FineStatus      *string
	FinePaidDate    *time.Time
}

func (r *BorrowRecord) toDTO(now time.Time, finePerDay float64) BorrowResponse {
	f := AssessFine(r, now, finePerDay)
	resp := BorrowResponse{
		BorrowULID:      r.BorrowULID,
		BookULID:        r.BookULID,
		BookTitle:       r.BookTitle,
		StudentNumber:   r.StudentNumber,
		StudentName:     r.StudentName,
		BorrowDate:      r.BorrowDate,
		DueDate:         r.DueDate,
		ReturnDate:      r.ReturnDate,
		Status:          r.Status,
		RejectionReason: r.RejectionReason,
		IsOverdue:       f.IsOverdue,
		DaysOverdue:     f.DaysOverdue,
		FineAmount:      f.FineAmount,
		LostPenalty:     r.LostPenalty,
		FinePaidDate:    r.FinePaidDate,
	}
	if f.EffectiveFineStatus != "" {
		fs := f.EffectiveFineStatus
		resp.FineStatus = &fs
	}
	return resp
}

// 貸出リスト取得用の検索条件
type ListFilter struct {
	StudentNumber *string
	BookULID      *string
	Status        *string
	Limit         int
	Offset        int
}
