package labels

import (
	"context"
	"database/sql"
	"strings"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// ResolveBooks は蔵書ULIDからラベル行を作る。削除済みは対象外。
// バーコード値はISBNがあればISBN、無ければ book_ulid。
func (s *Store) ResolveBooks(ctx context.Context, bookULIDs []string) ([]LabelRow, error) {
	if len(bookULIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(bookULIDs))
	placeholders = placeholders[:len(placeholders)-1]
	q := `SELECT title, author, category, isbn, book_ulid FROM books
	WHERE is_deleted = 0 AND book_ulid IN (` + placeholders + `)`

	args := make([]any, 0, len(bookULIDs))
	for _, u := range bookULIDs {
		args = append(args, u)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LabelRow
	for rows.Next() {
		var (
			r    LabelRow
			isbn *string
			ulid string
		)
		if err := rows.Scan(&r.Title, &r.Author, &r.Category, &isbn, &ulid); err != nil {
			return nil, err
		}
		if isbn != nil && *isbn != "" {
			r.Barcode = *isbn
		} else {
			r.Barcode = ulid
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
