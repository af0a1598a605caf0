package entries

import "time"

// DB行に対応（スキャン用）
type entryRow struct {
	EntryID       uint64
	EntryULID     string
	StudentNumber string
	Name          string
	Purpose       string
	CheckedInAt   time.Time
	CheckedOutAt  *time.Time
}

// Service ↔ Store で使うモデル
type Entry struct {
	EntryID       uint64
	EntryULID     string
	StudentNumber string
	Name          string
	Purpose       string
	CheckedInAt   time.Time
	CheckedOutAt  *time.Time
}

func (r entryRow) toModel() Entry {
	e := Entry{
		EntryID:       r.EntryID,
		EntryULID:     r.EntryULID,
		StudentNumber: r.StudentNumber,
		Name:          r.Name,
		Purpose:       r.Purpose,
		CheckedInAt:   r.CheckedInAt.UTC(),
	}
	if r.CheckedOutAt != nil {
		t := r.CheckedOutAt.UTC()
		e.CheckedOutAt = &t
	}
	return e
}

// 開館中セッション = checked_out_at が未設定の行
func (e Entry) Open() bool { return e.CheckedOutAt == nil }

func (e Entry) toDTO() EntryResponse {
	return EntryResponse{
		EntryID:       e.EntryID,
		EntryULID:     e.EntryULID,
		StudentNumber: e.StudentNumber,
		Name:          e.Name,
		Purpose:       e.Purpose,
		CheckedInAt:   e.CheckedInAt,
		CheckedOutAt:  e.CheckedOutAt,
	}
}
