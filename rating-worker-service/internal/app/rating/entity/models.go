package entity

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidEvent сообщение нельзя применить ни при какой повторной попытке
var ErrInvalidEvent = errors.New("invalid review event")

type ReviewEventType string

const (
	ReviewCreated ReviewEventType = "review.created"
	ReviewUpdated ReviewEventType = "review.updated"
	ReviewDeleted ReviewEventType = "review.deleted"
)

// ReviewEvent событие из feedback-service
type ReviewEvent struct {
	EventID   uuid.UUID          `json:"eventId"`
	Type      ReviewEventType    `json:"type"`
	Timestamp time.Time          `json:"timestamp"`
	Payload   ReviewEventPayload `json:"payload"`
}

type ReviewEventPayload struct {
	UserID    uuid.UUID  `json:"userId"`
	Score     int        `json:"score"`
	OldUserID *uuid.UUID `json:"oldUserId,omitempty"`
	OldScore  *int       `json:"oldScore,omitempty"`
}

func (e *ReviewEvent) Validate() error {
	switch e.Type {
	case ReviewCreated, ReviewUpdated, ReviewDeleted:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}
	if e.EventID == uuid.Nil {
		return fmt.Errorf("%w: empty eventId", ErrInvalidEvent)
	}
	if e.Payload.UserID == uuid.Nil {
		return fmt.Errorf("%w: empty userId", ErrInvalidEvent)
	}
	if !validScore(e.Payload.Score) {
		return fmt.Errorf("%w: score %d out of range", ErrInvalidEvent, e.Payload.Score)
	}
	if e.Payload.OldScore != nil && !validScore(*e.Payload.OldScore) {
		return fmt.Errorf("%w: oldScore %d out of range", ErrInvalidEvent, *e.Payload.OldScore)
	}
	return nil
}

func validScore(score int) bool {
	return score >= 1 && score <= 5
}

// RatingDelta изменение агрегата одного пользователя
type RatingDelta struct {
	UserID uuid.UUID
	Count  int64
	Sum    int64
}

// UserRating агрегат оценок пользователя
type UserRating struct {
	UserID      uuid.UUID `json:"userId"`
	ReviewCount int64     `json:"reviewCount"`
	ScoreSum    int64     `json:"scoreSum"`
	Average     float64   `json:"average"`
}

// NewUserRating считает среднее; при count <= 0 среднее равно 0
func NewUserRating(userID uuid.UUID, count, sum int64) *UserRating {
	rating := &UserRating{UserID: userID, ReviewCount: count, ScoreSum: sum}
	if count > 0 {
		rating.Average = float64(sum) / float64(count)
	}
	return rating
}

// ReviewStat строка агрегирующего запроса по таблице reviews
type ReviewStat struct {
	UserID      uuid.UUID
	ReviewCount int64
	ScoreSum    int64
}

// ApplyResult итог применения события к агрегатам
type ApplyResult int

const (
	EventApplied ApplyResult = iota + 1
	EventDuplicate
	// EventCovered событие отправлено до последней сверки и уже учтено в снимке
	EventCovered
)

// Ключи Redis
const (
	RatingKeyPrefix = "rating:user:"
	EventKeyPrefix  = "rating:event:"
	// SnapshotKey время (unix ms), на которое построены агрегаты последней сверки
	SnapshotKey = "rating:snapshot_at"
)

func GetRedisKeyForRating(userID uuid.UUID) string {
	return RatingKeyPrefix + userID.String()
}

func GetRedisKeyForEvent(eventID uuid.UUID) string {
	return EventKeyPrefix + eventID.String()
}
