package categories

import (
	"context"
	"database/sql"
)

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// GET /categories?all=1
func (s *Store) List(ctx context.Context, includeDisabled bool) ([]BookCategory, error) {
	q := `
		SELECT category_id, name, code, is_disabled
		FROM book_categories
	`
	if !includeDisabled {
		q += ` WHERE is_disabled = 0`
	}
	q += ` ORDER BY category_id`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]BookCategory, 0, 16)
	for rows.Next() {
		var bc BookCategory
		if err := rows.Scan(&bc.CategoryID, &bc.Name, &bc.Code, &bc.IsDisabled); err != nil {
			return nil, err
		}
		res = append(res, bc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) GetByID(ctx context.Context, id uint) (*BookCategory, error) {
	const q = `
		SELECT category_id, name, code, is_disabled
		FROM book_categories
		WHERE category_id = ?
	`
	var bc BookCategory
	err := s.db.QueryRowContext(ctx, q, id).Scan(&bc.CategoryID, &bc.Name, &bc.Code, &bc.IsDisabled)
	if err != nil {
		return nil, err
	}
	return &bc, nil
}

func (s *Store) Create(ctx context.Context, name string, code string) (*BookCategory, error) {
	const q = `
		INSERT INTO book_categories (name, code, is_disabled)
		VALUES (?, ?, 0)
	`
	r, err := s.db.ExecContext(ctx, q, name, code)
	if err != nil {
		return nil, err
	}
	lastID, err := r.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &BookCategory{
		CategoryID: uint(lastID),
		Name:       name,
		Code:       code,
		IsDisabled: false,
	}, nil
}

func (s *Store) Update(ctx context.Context, id uint, name string, code string, disabled bool) error {
	const q = `
		UPDATE book_categories
		SET name = ?, code = ?, is_disabled = ?
		WHERE category_id = ?
	`
	r, err := s.db.ExecContext(ctx, q, name, code, disabled, id)
	if err != nil {
		return err
	}
	aff, err := r.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DELETE: is_disabled=1 にする
func (s *Store) Disable(ctx context.Context, id uint) error {
	const q = `
		UPDATE book_categories
		SET is_disabled = 1
		WHERE category_id = ?
	`
	r, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	aff, err := r.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}
