package notifications

import "time"

type AddRequest struct {
	StudentNumber   string  `json:"student_number" binding:"required"`
	Title           string  `json:"title" binding:"required"`
	Message         string  `json:"message" binding:"required"`
	Type            string  `json:"type"`
	RelatedBookULID *string `json:"related_book_ulid,omitempty"`
}

type NotificationResponse struct {
	NotificationULID string    `json:"notification_ulid"`
	StudentNumber    string    `json:"student_number"`
	Title            string    `json:"title"`
	Message          string    `json:"message"`
	Type             string    `json:"type"`
	RelatedBookULID  *string   `json:"related_book_ulid,omitempty"`
	IsRead           bool      `json:"is_read"`
	CreatedAt        time.Time `json:"created_at"`
}
