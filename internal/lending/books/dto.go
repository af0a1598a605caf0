package books

import "time"

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

type CreateBookRequest struct {
	Title       string  `json:"title" binding:"required"`
	Author      string  `json:"author" binding:"required"`
	Category    string  `json:"category" binding:"required"`
	ISBN        *string `json:"isbn,omitempty"`
	Description *string `json:"description,omitempty"`
	CoverURL    *string `json:"cover_url,omitempty"`
	// available_copies 未指定時は total_copies と同数で初期化
	AvailableCopies *int `json:"available_copies,omitempty"`
	TotalCopies     int  `json:"total_copies" binding:"required"`
}

type UpdateBookRequest struct {
	Title           *string `json:"title,omitempty"`
	Author          *string `json:"author,omitempty"`
	Category        *string `json:"category,omitempty"`
	ISBN            *string `json:"isbn,omitempty"`
	Description     *string `json:"description,omitempty"`
	CoverURL        *string `json:"cover_url,omitempty"`
	AvailableCopies *int    `json:"available_copies,omitempty"`
	TotalCopies     *int    `json:"total_copies,omitempty"`
}

type BookResponse struct {
	BookID          uint64    `json:"book_id"`
	BookULID        string    `json:"book_ulid"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Category        string    `json:"category"`
	ISBN            *string   `json:"isbn,omitempty"`
	Description     *string   `json:"description,omitempty"`
	CoverURL        *string   `json:"cover_url,omitempty"`
	AvailableCopies int       `json:"available_copies"`
	TotalCopies     int       `json:"total_copies"`
	IsDeleted       bool      `json:"is_deleted"`
	AddedAt         time.Time `json:"added_at"`
}
