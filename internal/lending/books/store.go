package books

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

const bookColumns = `book_id, book_ulid, title, author, category, isbn, description, cover_url, available_copies, total_copies, is_deleted, added_at`

func scanBook(row interface{ Scan(...any) error }) (*Book, error) {
	var b Book
	var deleted int
	err := row.Scan(
		&b.BookID, &b.BookULID, &b.Title, &b.Author, &b.Category,
		&b.ISBN, &b.Description, &b.CoverURL,
		&b.AvailableCopies, &b.TotalCopies, &deleted, &b.AddedAt,
	)
	if err != nil {
		return nil, err
	}
	b.IsDeleted = deleted != 0
	return &b, nil
}

func (s *Store) Insert(ctx context.Context, b *Book) error {
	const q = `
	INSERT INTO books
	(book_ulid, title, author, category, isbn, description, cover_url, available_copies, total_copies, is_deleted, added_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`
	res, err := s.db.ExecContext(ctx, q,
		b.BookULID, b.Title, b.Author, b.Category,
		b.ISBN, b.Description, b.CoverURL,
		b.AvailableCopies, b.TotalCopies, b.AddedAt,
	)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	b.BookID = uint64(id)
	return nil
}

func (s *Store) GetByULID(ctx context.Context, bookULID string) (*Book, error) {
	q := `SELECT ` + bookColumns + ` FROM books WHERE book_ulid = ?`
	b, err := scanBook(s.db.QueryRowContext(ctx, q, bookULID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound("book not found")
		}
		return nil, err
	}
	return b, nil
}

func (s *Store) List(ctx context.Context, q SearchQuery, p Page) ([]Book, int64, error) {
	var (
		sb     strings.Builder
		args   []any
		wheres []string
	)
	sb.WriteString(`SELECT ` + bookColumns + ` FROM books`)

	if !q.IncludeDeleted {
		wheres = append(wheres, "is_deleted = 0")
	}
	if q.Keyword != "" {
		kw := "%" + q.Keyword + "%"
		wheres = append(wheres, "(title LIKE ? OR author LIKE ? OR COALESCE(isbn,'') LIKE ? OR category LIKE ?)")
		args = append(args, kw, kw, kw, kw)
	}
	if q.Category != "" {
		wheres = append(wheres, "category = ?")
		args = append(args, q.Category)
	}
	if q.AvailableOnly {
		wheres = append(wheres, "available_copies > 0")
	}
	if len(wheres) > 0 {
		sb.WriteString(" WHERE " + strings.Join(wheres, " AND "))
	}
	sb.WriteString(" ORDER BY added_at DESC, book_id DESC")

	limit := p.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	sb.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var cb strings.Builder
	cb.WriteString("SELECT COUNT(*) FROM books")
	if len(wheres) > 0 {
		cb.WriteString(" WHERE " + strings.Join(wheres, " AND "))
	}
	var total int64
	if err := s.db.QueryRowContext(ctx, cb.String(), args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ExecUpdate: 部分更新。冊数の境界チェックはロックした現在行と合成してから行う。
func (s *Store) ExecUpdate(ctx context.Context, bookULID string, in UpdateBookRequest) (*Book, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	q := `SELECT ` + bookColumns + ` FROM books WHERE book_ulid = ? FOR UPDATE`
	b, err := scanBook(tx.QueryRowContext(ctx, q, bookULID))
	if err != nil {
		if err == sql.ErrNoRows {
			err = ErrNotFound("book not found")
		}
		return nil, err
	}

	if in.Title != nil {
		b.Title = strings.TrimSpace(*in.Title)
	}
	if in.Author != nil {
		b.Author = strings.TrimSpace(*in.Author)
	}
	if in.Category != nil {
		b.Category = strings.TrimSpace(*in.Category)
	}
	if in.ISBN != nil {
		b.ISBN = in.ISBN
	}
	if in.Description != nil {
		b.Description = in.Description
	}
	if in.CoverURL != nil {
		b.CoverURL = in.CoverURL
	}
	if in.TotalCopies != nil {
		b.TotalCopies = *in.TotalCopies
	}
	if in.AvailableCopies != nil {
		b.AvailableCopies = *in.AvailableCopies
	}

	if err = validateCopies(b.AvailableCopies, b.TotalCopies); err != nil {
		return nil, err
	}
	if b.Title == "" || b.Author == "" || b.Category == "" {
		err = ErrInvalid("title, author, category must not be empty")
		return nil, err
	}

	const uq = `
	UPDATE books
	SET title=?, author=?, category=?, isbn=?, description=?, cover_url=?, available_copies=?, total_copies=?
	WHERE book_id=?`
	if _, err = tx.ExecContext(ctx, uq,
		b.Title, b.Author, b.Category, b.ISBN, b.Description, b.CoverURL,
		b.AvailableCopies, b.TotalCopies, b.BookID,
	); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return b, nil
}

// SoftDelete: 貸出履歴の参照整合性を守るため物理削除はしない
func (s *Store) SoftDelete(ctx context.Context, bookULID string) error {
	const q = `UPDATE books SET is_deleted = 1 WHERE book_ulid = ?`
	res, err := s.db.ExecContext(ctx, q, bookULID)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return ErrNotFound("book not found")
	}
	return nil
}

// ---- 貸出トランザクション用の在庫操作（borrows のTx内から呼ばれる） ----

// DecrementAvailableTx は在庫を1冊引き当てる。available_copies が 0 の行や
// 行自体が無い場合は適用せず (false, nil) を返す。0未満には絶対に落とさない。
func DecrementAvailableTx(ctx context.Context, tx *sql.Tx, bookID uint64) (bool, error) {
	const q = `
	UPDATE books
	SET available_copies = available_copies - 1
	WHERE book_id = ? AND available_copies > 0`
	res, err := tx.ExecContext(ctx, q, bookID)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff == 1, nil
}

// IncrementAvailableTx は返却時の在庫戻し。行が無い場合のみ (false, nil)。
func IncrementAvailableTx(ctx context.Context, tx *sql.Tx, bookID uint64) (bool, error) {
	const q = `
	UPDATE books
	SET available_copies = available_copies + 1
	WHERE book_id = ?`
	res, err := tx.ExecContext(ctx, q, bookID)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff == 1, nil
}
