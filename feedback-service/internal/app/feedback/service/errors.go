package service

import (
	"errors"
	"fmt"
	"strings"
)

// Сентинелы для errors.Is; конкретные ошибки ниже разворачиваются в них
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidReference = errors.New("invalid reference")
	ErrConflict         = errors.New("conflict")
)

const (
	EntityUser   = "User"
	EntityReview = "Review"
)

// NotFoundError сущность с указанным id не существует
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// InvalidReferenceError запись отклонена ограничением внешнего ключа.
// id в этот момент уже неизвестен.
type InvalidReferenceError struct {
	Entity string
}

func (e *InvalidReferenceError) Error() string {
	return "invalid " + strings.ToLower(e.Entity)
}

func (e *InvalidReferenceError) Unwrap() error {
	return ErrInvalidReference
}

// ConflictError нарушение уникальности поля
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already in use", e.Field)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindNotFound
	KindInvalidReference
	KindConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindInvalidReference:
		return "InvalidReference"
	case KindConflict:
		return "Conflict"
	default:
		return "Unexpected"
	}
}

// KindOf классифицирует ошибку сервиса. nil тоже KindUnexpected.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidReference):
		return KindInvalidReference
	case errors.Is(err, ErrConflict):
		return KindConflict
	default:
		return KindUnexpected
	}
}

func notFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}
