package borrows

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"LIBRIS-backend/internal/lending/books"
	"LIBRIS-backend/internal/platform/db"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

const borrowColumns = `borrow_id, borrow_ulid, book_id, book_ulid, book_title, student_number, student_name,
	borrow_date, due_date, return_date, status, rejection_reason, lost_penalty, fine_status, fine_paid_date`

func scanBorrow(row interface{ Scan(...any) error }) (*BorrowRecord, error) {
	var r BorrowRecord
	err := row.Scan(
		&r.BorrowID, &r.BorrowULID, &r.BookID, &r.BookULID, &r.BookTitle,
		&r.StudentNumber, &r.StudentName,
		&r.BorrowDate, &r.DueDate, &r.ReturnDate,
		&r.Status, &r.RejectionReason, &r.LostPenalty, &r.FineStatus, &r.FinePaidDate,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ResolveBook: book_ulid → (book_id, title)。削除済みは貸出対象外。
func (s *Store) ResolveBook(ctx context.Context, bookULID string) (uint64, string, error) {
	const q = `SELECT book_id, title FROM books WHERE book_ulid = ? AND is_deleted = 0`
	var id uint64
	var title string
	if err := s.db.QueryRowContext(ctx, q, bookULID).Scan(&id, &title); err != nil {
		if err == sql.ErrNoRows {
			return 0, "", ErrNotFound("book not found")
		}
		return 0, "", err
	}
	return id, title, nil
}

func (s *Store) Insert(ctx context.Context, r *BorrowRecord) error {
	const q = `
	INSERT INTO borrow_records
	(borrow_ulid, book_id, book_ulid, book_title, student_number, student_name, borrow_date, due_date, status, rejection_reason)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`
	res, err := s.db.ExecContext(ctx, q,
		r.BorrowULID, r.BookID, r.BookULID, r.BookTitle,
		r.StudentNumber, r.StudentName, r.BorrowDate, r.DueDate, r.Status,
	)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	r.BorrowID = uint64(id)
	return nil
}

func (s *Store) GetByULID(ctx context.Context, borrowULID string) (*BorrowRecord, error) {
	q := `SELECT ` + borrowColumns + ` FROM borrow_records WHERE borrow_ulid = ?`
	r, err := scanBorrow(s.db.QueryRowContext(ctx, q, borrowULID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound("borrow record not found")
		}
		return nil, err
	}
	return r, nil
}

func (s *Store) lockByULID(ctx context.Context, tx *sql.Tx, borrowULID string) (*BorrowRecord, error) {
	q := `SELECT ` + borrowColumns + ` FROM borrow_records WHERE borrow_ulid = ? FOR UPDATE`
	r, err := scanBorrow(tx.QueryRowContext(ctx, q, borrowULID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound("borrow record not found")
		}
		return nil, err
	}
	return r, nil
}

// ---- Transactional Methods ----

// ExecApprove: pending → approved と在庫引当を1トランザクションで行う。
// WHERE status='pending' 付きUPDATEで遷移元を固定し、並行承認の後勝ちを防ぐ。
// 在庫が 0（または書籍行が消えている）場合、引当はスキップされるが
// ステータス遷移自体はコミットされる。
func (s *Store) ExecApprove(ctx context.Context, borrowULID string) (*BorrowRecord, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	r, err := s.lockByULID(ctx, tx, borrowULID)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusPending {
		err = ErrPrecondition("borrow record is not pending")
		return nil, err
	}

	const uq = `UPDATE borrow_records SET status = ? WHERE borrow_id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, uq, StatusApproved, r.BorrowID, StatusPending)
	if err != nil {
		return nil, err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		err = ErrPrecondition("borrow record is not pending")
		return nil, err
	}

	applied, err := books.DecrementAvailableTx(ctx, tx, r.BookID)
	if err != nil {
		return nil, err
	}
	if !applied {
		// 在庫0のガード（源流システムの挙動をそのまま保存）。過剰承認は起こり得る。
		log.Printf("[WARN] approve without stock: borrow=%s book_id=%d", r.BorrowULID, r.BookID)
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	r.Status = StatusApproved
	return r, nil
}

// ExecReject: pending → rejected
func (s *Store) ExecReject(ctx context.Context, borrowULID, reason string) (*BorrowRecord, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	r, err := s.lockByULID(ctx, tx, borrowULID)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusPending {
		err = ErrPrecondition("borrow record is not pending")
		return nil, err
	}

	const uq = `UPDATE borrow_records SET status = ?, rejection_reason = ? WHERE borrow_id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, uq, StatusRejected, reason, r.BorrowID, StatusPending)
	if err != nil {
		return nil, err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		err = ErrPrecondition("borrow record is not pending")
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	r.Status = StatusRejected
	r.RejectionReason = &reason
	return r, nil
}

// ExecReturn: approved → returned と在庫戻しを1トランザクションで行う。
func (s *Store) ExecReturn(ctx context.Context, borrowULID string, now time.Time) (*BorrowRecord, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	r, err := s.lockByULID(ctx, tx, borrowULID)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusApproved {
		err = ErrPrecondition("borrow record is not approved")
		return nil, err
	}

	const uq = `UPDATE borrow_records SET status = ?, return_date = ? WHERE borrow_id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, uq, StatusReturned, now, r.BorrowID, StatusApproved)
	if err != nil {
		return nil, err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		err = ErrPrecondition("borrow record is not approved")
		return nil, err
	}

	applied, err := books.IncrementAvailableTx(ctx, tx, r.BookID)
	if err != nil {
		return nil, err
	}
	if !applied {
		log.Printf("[WARN] return without book row: borrow=%s book_id=%d", r.BorrowULID, r.BookID)
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	r.Status = StatusReturned
	t := now.UTC()
	r.ReturnDate = &t
	return r, nil
}

// ExecMarkLost: status → lost。在庫は戻さない（本が消えたので当然）。
// 遷移元のステータスは運用上 approved の想定だが、源流システム同様に
// ハードには強制しない。
func (s *Store) ExecMarkLost(ctx context.Context, borrowULID string, penalty float64) (*BorrowRecord, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	r, err := s.lockByULID(ctx, tx, borrowULID)
	if err != nil {
		return nil, err
	}

	const uq = `UPDATE borrow_records SET status = ?, lost_penalty = ?, fine_status = ? WHERE borrow_id = ?`
	if _, err = tx.ExecContext(ctx, uq, StatusLost, penalty, FineUnpaid, r.BorrowID); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	r.Status = StatusLost
	r.LostPenalty = &penalty
	fs := FineUnpaid
	r.FineStatus = &fs
	return r, nil
}

// ExecMarkFinePaid: fine_status を paid に確定する。
// 返り値は更新前のレコード（支払額の通知用に更新前の実効値が要る）。
func (s *Store) ExecMarkFinePaid(ctx context.Context, borrowULID string, now time.Time) (*BorrowRecord, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	r, err := s.lockByULID(ctx, tx, borrowULID)
	if err != nil {
		return nil, err
	}

	const uq = `UPDATE borrow_records SET fine_status = ?, fine_paid_date = ? WHERE borrow_id = ?`
	if _, err = tx.ExecContext(ctx, uq, FinePaid, now, r.BorrowID); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return r, nil
}

// ---- Queries ----

func (s *Store) List(ctx context.Context, f ListFilter) ([]BorrowRecord, int64, error) {
	var (
		sb     strings.Builder
		args   []any
		wheres []string
	)
	sb.WriteString(`SELECT ` + borrowColumns + ` FROM borrow_records`)

	if f.StudentNumber != nil && *f.StudentNumber != "" {
		wheres = append(wheres, "student_number = ?")
		args = append(args, *f.StudentNumber)
	}
	if f.BookULID != nil && *f.BookULID != "" {
		wheres = append(wheres, "book_ulid = ?")
		args = append(args, *f.BookULID)
	}
	if f.Status != nil && *f.Status != "" {
		wheres = append(wheres, "status = ?")
		args = append(args, *f.Status)
	}
	if len(wheres) > 0 {
		sb.WriteString(" WHERE " + strings.Join(wheres, " AND "))
	}
	sb.WriteString(" ORDER BY borrow_date DESC, borrow_id DESC")

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	sb.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []BorrowRecord
	for rows.Next() {
		r, err := scanBorrow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var cb strings.Builder
	cb.WriteString("SELECT COUNT(*) FROM borrow_records")
	if len(wheres) > 0 {
		cb.WriteString(" WHERE " + strings.Join(wheres, " AND "))
	}
	var total int64
	if err := s.db.QueryRowContext(ctx, cb.String(), args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListAllByStudent: 罰金集計用。ページングなしで全件なめる。
// 集計途中に他のコミットが混ざらないよう読み取り専用Txで固定する。
func (s *Store) ListAllByStudent(ctx context.Context, studentNumber string) ([]BorrowRecord, error) {
	q := `SELECT ` + borrowColumns + ` FROM borrow_records WHERE student_number = ? ORDER BY borrow_date DESC, borrow_id DESC`

	var out []BorrowRecord
	err := db.ReadOnly(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		rows, err := tx.QueryContext(ctx, q, studentNumber)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			r, err := scanBorrow(rows)
			if err != nil {
				return err
			}
			out = append(out, *r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
