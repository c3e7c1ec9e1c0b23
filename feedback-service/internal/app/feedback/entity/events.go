package entity

import (
	"time"

	"github.com/google/uuid"
)

type ReviewEventType string

// Имя типа события совпадает с именем Kafka топика
const (
	ReviewCreated ReviewEventType = "review.created"
	ReviewUpdated ReviewEventType = "review.updated"
	ReviewDeleted ReviewEventType = "review.deleted"
)

// ReviewEventTypes все типы событий отзывов
var ReviewEventTypes = []ReviewEventType{ReviewCreated, ReviewUpdated, ReviewDeleted}

// ReviewEvent неизменяемый факт о переходе состояния отзыва.
// Timestamp - время отправки события, а не время изменения записи.
type ReviewEvent struct {
	EventID   uuid.UUID          `json:"eventId"`
	Type      ReviewEventType    `json:"type"`
	Timestamp time.Time          `json:"timestamp"`
	Payload   ReviewEventPayload `json:"payload"`
}

// ReviewEventPayload содержит текущие userId и score.
// OldUserID и OldScore бывают только у review.updated.
type ReviewEventPayload struct {
	UserID    uuid.UUID  `json:"userId"`
	Score     int        `json:"score"`
	OldUserID *uuid.UUID `json:"oldUserId,omitempty"`
	OldScore  *int       `json:"oldScore,omitempty"`
}
