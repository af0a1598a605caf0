package entries

import "time"

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 200
	DateLayout       = "2006-01-02"

	DefaultPurpose = "Study"

	ActionCheckedIn  = "checked_in"
	ActionCheckedOut = "checked_out"
)

type CheckInRequest struct {
	StudentNumber string  `json:"student_number" binding:"required"`
	Name          string  `json:"name" binding:"required"`
	Purpose       *string `json:"purpose,omitempty"`
}

type CheckOutRequest struct {
	StudentNumber string `json:"student_number" binding:"required"`
}

// キオスクのQRスキャン用。IDだけ来て入退館をトグルする。
type ScanRequest struct {
	StudentNumber string `json:"student_number" binding:"required"`
}

type EntryResponse struct {
	EntryID       uint64     `json:"entry_id"`
	EntryULID     string     `json:"entry_ulid"`
	StudentNumber string     `json:"student_number"`
	Name          string     `json:"name"`
	Purpose       string     `json:"purpose"`
	CheckedInAt   time.Time  `json:"checked_in_at"`
	CheckedOutAt  *time.Time `json:"checked_out_at,omitempty"`
}

type ScanResponse struct {
	Action string        `json:"action"` // checked_in / checked_out
	Entry  EntryResponse `json:"entry"`
}

type ListQuery struct {
	StudentNumber *string
	OpenOnly      bool
	Limit         int
	Offset        int
}

type StatsRequest struct {
	From  string // YYYY-MM-DD
	To    string // YYYY-MM-DD
	Limit int
}

type StatsRow struct {
	StudentNumber string `json:"student_number"`
	Count         int64  `json:"count"`
}
