package students

import (
	"context"
	"database/sql"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Insert(ctx context.Context, st *Student) error {
	const q = `
	INSERT INTO students (student_ulid, student_number, name, email, pronouns, photo_url, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q,
		st.StudentULID, st.StudentNumber, st.Name, st.Email, st.Pronouns, st.PhotoURL, st.CreatedAt,
	)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	st.StudentID = uint64(id)
	return nil
}

func (s *Store) GetByNumber(ctx context.Context, studentNumber string) (*Student, error) {
	const q = `
	SELECT student_id, student_ulid, student_number, name, email, pronouns, photo_url, created_at
	FROM students WHERE student_number = ?`
	var st Student
	err := s.db.QueryRowContext(ctx, q, studentNumber).Scan(
		&st.StudentID, &st.StudentULID, &st.StudentNumber, &st.Name,
		&st.Email, &st.Pronouns, &st.PhotoURL, &st.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound("student not found")
		}
		return nil, err
	}
	return &st, nil
}

func (s *Store) List(ctx context.Context) ([]Student, error) {
	const q = `
	SELECT student_id, student_ulid, student_number, name, email, pronouns, photo_url, created_at
	FROM students ORDER BY student_number ASC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Student
	for rows.Next() {
		var st Student
		if err := rows.Scan(
			&st.StudentID, &st.StudentULID, &st.StudentNumber, &st.Name,
			&st.Email, &st.Pronouns, &st.PhotoURL, &st.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
