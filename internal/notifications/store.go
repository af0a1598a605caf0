package notifications

import (
	"context"
	"database/sql"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Insert(ctx context.Context, n *Notification) error {
	const q = `
	INSERT INTO notifications
	(notification_ulid, student_number, title, message, type, related_book_ulid, is_read, created_at)
	VALUES (?, ?, ?, ?, ?, ?, 0, ?)`
	res, err := s.db.ExecContext(ctx, q,
		n.NotificationULID, n.StudentNumber, n.Title, n.Message, n.Type, n.RelatedBookULID, n.CreatedAt,
	)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	n.NotificationID = uint64(id)
	return nil
}

func (s *Store) ListByStudent(ctx context.Context, studentNumber string, limit int) ([]Notification, error) {
	const q = `
	SELECT notification_id, notification_ulid, student_number, title, message, type, related_book_ulid, is_read, created_at
	FROM notifications
	WHERE student_number = ?
	ORDER BY created_at DESC, notification_id DESC
	LIMIT ?`
	rows, err := s.db.QueryContext(ctx, q, studentNumber, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(
			&n.NotificationID, &n.NotificationULID, &n.StudentNumber,
			&n.Title, &n.Message, &n.Type, &n.RelatedBookULID, &n.IsRead, &n.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) MarkRead(ctx context.Context, notificationULID string) error {
	const q = `UPDATE notifications SET is_read = 1 WHERE notification_ulid = ?`
	res, err := s.db.ExecContext(ctx, q, notificationULID)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return ErrNotFound("notification not found")
	}
	return nil
}

// MarkAllRead は対象0件でも成功扱い（冪等）。
func (s *Store) MarkAllRead(ctx context.Context, studentNumber string) (int64, error) {
	const q = `UPDATE notifications SET is_read = 1 WHERE student_number = ? AND is_read = 0`
	res, err := s.db.ExecContext(ctx, q, studentNumber)
	if err != nil {
		return 0, err
	}
	aff, _ := res.RowsAffected()
	return aff, nil
}
