package students

import "time"

type Student struct {
	StudentID     uint64
	StudentULID   string
	StudentNumber string
	Name          string
	Email         *string
	Pronouns      *string
	PhotoURL      *string
	CreatedAt     time.Time
}

func (s *Student) toDTO() StudentResponse {
	return StudentResponse{
		StudentULID:   s.StudentULID,
		StudentNumber: s.StudentNumber,
		Name:          s.Name,
		Email:         s.Email,
		Pronouns:      s.Pronouns,
		PhotoURL:      s.PhotoURL,
		CreatedAt:     s.CreatedAt,
	}
}
