package students

import "time"

type AddStudentRequest struct {
	StudentNumber string  `json:"student_number" binding:"required"`
	Name          string  `json:"name" binding:"required"`
	Email         *string `json:"email,omitempty"`
	Pronouns      *string `json:"pronouns,omitempty"`
	PhotoURL      *string `json:"photo_url,omitempty"`
}

type StudentResponse struct {
	StudentULID   string    `json:"student_ulid"`
	StudentNumber string    `json:"student_number"`
	Name          string    `json:"name"`
	Email         *string   `json:"email,omitempty"`
	Pronouns      *string   `json:"pronouns,omitempty"`
	PhotoURL      *string   `json:"photo_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
