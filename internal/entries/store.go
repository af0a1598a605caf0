package entries

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

const entryColumns = `entry_id, entry_ulid, student_number, name, purpose, checked_in_at, checked_out_at`

func (s *Store) Insert(ctx context.Context, e *Entry) error {
	const q = `
	INSERT INTO entries (entry_ulid, student_number, name, purpose, checked_in_at, checked_out_at)
	VALUES (?, ?, ?, ?, ?, NULL)`
	res, err := s.db.ExecContext(ctx, q, e.EntryULID, e.StudentNumber, e.Name, e.Purpose, e.CheckedInAt)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	e.EntryID = uint64(id)
	return nil
}

// lockLatest: 当該学生の最新エントリをロック付きで取得する。
// 「最新行だけが退館対象」の判定はこのロック行に対して行うこと。
func (s *Store) lockLatest(ctx context.Context, tx *sql.Tx, studentNumber string) (*Entry, error) {
	q := `
	SELECT ` + entryColumns + `
	FROM entries
	WHERE student_number = ?
	ORDER BY checked_in_at DESC, entry_id DESC
	LIMIT 1
	FOR UPDATE`
	var r entryRow
	err := tx.QueryRowContext(ctx, q, studentNumber).Scan(
		&r.EntryID, &r.EntryULID, &r.StudentNumber, &r.Name, &r.Purpose, &r.CheckedInAt, &r.CheckedOutAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	e := r.toModel()
	return &e, nil
}

func (s *Store) closeEntry(ctx context.Context, tx *sql.Tx, entryID uint64, now time.Time) error {
	const q = `UPDATE entries SET checked_out_at = ? WHERE entry_id = ? AND checked_out_at IS NULL`
	res, err := tx.ExecContext(ctx, q, now, entryID)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff != 1 {
		// ロック取得済みなので通常は起こらない
		return ErrInternal("failed to close entry")
	}
	return nil
}

// ExecCheckOut: 最新エントリの退館をトランザクションで確定する。
// 同一学生の並行チェックインと競合しても、ロックした最新行以外は触らない。
func (s *Store) ExecCheckOut(ctx context.Context, studentNumber string, now time.Time) (*Entry, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	latest, err := s.lockLatest(ctx, tx, studentNumber)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		err = ErrNotFound("no check-in record found for this ID")
		return nil, err
	}
	if !latest.Open() {
		err = ErrAlreadyClosed("user is already checked out")
		return nil, err
	}

	if err = s.closeEntry(ctx, tx, latest.EntryID, now); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	t := now.UTC()
	latest.CheckedOutAt = &t
	return latest, nil
}

// ExecScan: キオスクのトグル。開セッションがあれば退館、なければ入館。
// 入館時は直近エントリの氏名/目的を引き継ぐ（なければ既定値）。
func (s *Store) ExecScan(ctx context.Context, studentNumber, entryULID string, now time.Time) (string, *Entry, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return "", nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	latest, err := s.lockLatest(ctx, tx, studentNumber)
	if err != nil {
		return "", nil, err
	}

	if latest != nil && latest.Open() {
		if err = s.closeEntry(ctx, tx, latest.EntryID, now); err != nil {
			return "", nil, err
		}
		if err = tx.Commit(); err != nil {
			return "", nil, err
		}
		t := now.UTC()
		latest.CheckedOutAt = &t
		return ActionCheckedOut, latest, nil
	}

	name := "Student " + studentNumber
	purpose := DefaultPurpose
	if latest != nil {
		name = latest.Name
		purpose = latest.Purpose
	}

	e := &Entry{
		EntryULID:     entryULID,
		StudentNumber: studentNumber,
		Name:          name,
		Purpose:       purpose,
		CheckedInAt:   now.UTC(),
	}
	const q = `
	INSERT INTO entries (entry_ulid, student_number, name, purpose, checked_in_at, checked_out_at)
	VALUES (?, ?, ?, ?, ?, NULL)`
	res, err := tx.ExecContext(ctx, q, e.EntryULID, e.StudentNumber, e.Name, e.Purpose, e.CheckedInAt)
	if err != nil {
		return "", nil, err
	}
	id, _ := res.LastInsertId()
	e.EntryID = uint64(id)

	if err = tx.Commit(); err != nil {
		return "", nil, err
	}
	return ActionCheckedIn, e, nil
}

func (s *Store) Latest(ctx context.Context, studentNumber string) (*Entry, error) {
	q := `
	SELECT ` + entryColumns + `
	FROM entries
	WHERE student_number = ?
	ORDER BY checked_in_at DESC, entry_id DESC
	LIMIT 1`
	var r entryRow
	err := s.db.QueryRowContext(ctx, q, studentNumber).Scan(
		&r.EntryID, &r.EntryULID, &r.StudentNumber, &r.Name, &r.Purpose, &r.CheckedInAt, &r.CheckedOutAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	e := r.toModel()
	return &e, nil
}

// List: 条件に応じて動的WHERE + ORDER + LIMIT/OFFSET
func (s *Store) List(ctx context.Context, q ListQuery) ([]Entry, int64, error) {
	var (
		sb     strings.Builder
		args   []any
		wheres []string
	)

	sb.WriteString(`SELECT ` + entryColumns + ` FROM entries`)
	if q.StudentNumber != nil && *q.StudentNumber != "" {
		wheres = append(wheres, "student_number = ?")
		args = append(args, *q.StudentNumber)
	}
	if q.OpenOnly {
		wheres = append(wheres, "checked_out_at IS NULL")
	}
	if len(wheres) > 0 {
		sb.WriteString(" WHERE " + strings.Join(wheres, " AND "))
	}
	sb.WriteString(" ORDER BY checked_in_at DESC, entry_id DESC")

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	sb.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var r entryRow
		if err := rows.Scan(&r.EntryID, &r.EntryULID, &r.StudentNumber, &r.Name, &r.Purpose, &r.CheckedInAt, &r.CheckedOutAt); err != nil {
			return nil, 0, err
		}
		out = append(out, r.toModel())
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	// COUNT（ORDER BY より前までを再構築）
	var cb strings.Builder
	cb.WriteString("SELECT COUNT(*) FROM entries")
	if len(wheres) > 0 {
		cb.WriteString(" WHERE " + strings.Join(wheres, " AND "))
	}
	var total int64
	if err := s.db.QueryRowContext(ctx, cb.String(), args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Stats: 期間の来館数を学生別合計（TOP N）
func (s *Store) Stats(ctx context.Context, from, to time.Time, limit int) ([]StatsRow, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
	SELECT student_number, COUNT(*) AS cnt
	FROM entries
	WHERE checked_in_at >= ? AND checked_in_at < ?
	GROUP BY student_number
	ORDER BY cnt DESC, student_number ASC
	LIMIT ?`, from, to.AddDate(0, 0, 1), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatsRow
	for rows.Next() {
		var row StatsRow
		if err := rows.Scan(&row.StudentNumber, &row.Count); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
