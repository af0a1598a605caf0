package notifications

import "time"

// 通知種別。フロント側のトースト色に対応する。
const (
	TypeInfo    = "info"
	TypeSuccess = "success"
	TypeWarning = "warning"
	TypeError   = "error"
)

const DefaultListLimit = 20

type Notification struct {
	NotificationID   uint64
	NotificationULID string
	StudentNumber    string
	Title            string
	Message          string
	Type             string
	RelatedBookULID  *string
	IsRead           bool
	CreatedAt        time.Time
}

func (n *Notification) toDTO() NotificationResponse {
	return NotificationResponse{
		NotificationULID: n.NotificationULID,
		StudentNumber:    n.StudentNumber,
		Title:            n.Title,
		Message:          n.Message,
		Type:             n.Type,
		RelatedBookULID:  n.RelatedBookULID,
		IsRead:           n.IsRead,
		CreatedAt:        n.CreatedAt,
	}
}

func validType(t string) bool {
	switch t {
	case TypeInfo, TypeSuccess, TypeWarning, TypeError:
		return true
	}
	return false
}
