package entity

import (
	"time"

	"github.com/google/uuid"
)

// User владелец отзывов; email уникален
type User struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Email     string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Reviews   []Review  `json:"reviews,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (User) TableName() string {
	return "users"
}

// Review оценка от 1 до 5 с необязательным комментарием
type Review struct {
	ID        uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID    `json:"userId" gorm:"type:uuid;not null;index"`
	Score     int          `json:"score" gorm:"not null;check:score >= 1 AND score <= 5"`
	Comment   *string      `json:"comment" gorm:"type:varchar(1000)"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	User      *UserSummary `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Review) TableName() string {
	return "reviews"
}

// UserSummary денормализованный автор отзыва в ответах
type UserSummary struct {
	ID    uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

func (UserSummary) TableName() string {
	return "users"
}

// NewReview входные данные для создания отзыва
type NewReview struct {
	UserID  uuid.UUID
	Score   int
	Comment *string
}

// ReviewPatch частичное обновление; nil означает "поле не передано"
type ReviewPatch struct {
	UserID  *uuid.UUID
	Score   *int
	Comment *string
}

// Columns возвращает только переданные поля в виде колонок таблицы reviews
func (p ReviewPatch) Columns() map[string]interface{} {
	columns := make(map[string]interface{}, 3)
	if p.UserID != nil {
		columns["user_id"] = *p.UserID
	}
	if p.Score != nil {
		columns["score"] = *p.Score
	}
	if p.Comment != nil {
		columns["comment"] = *p.Comment
	}
	return columns
}

type NewUser struct {
	Name  string
	Email string
}

type UserPatch struct {
	Name  *string
	Email *string
}

func (p UserPatch) Columns() map[string]interface{} {
	columns := make(map[string]interface{}, 2)
	if p.Name != nil {
		columns["name"] = *p.Name
	}
	if p.Email != nil {
		columns["email"] = *p.Email
	}
	return columns
}
