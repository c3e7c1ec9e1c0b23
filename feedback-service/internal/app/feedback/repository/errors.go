package repository

import (
	"errors"
	"fmt"

	"feedback/pkg/metrics"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const serviceName = "feedback-service"

// Сигналы хранилища, которые сервисный слой переводит в доменные ошибки
var (
	ErrNotFound     = errors.New("record not found")
	ErrForeignKey   = errors.New("foreign key violation")
	ErrDuplicateKey = errors.New("duplicate key")
)

// Коды ошибок PostgreSQL
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// mapError приводит ошибку gorm/pgx к сигналу хранилища.
// Остальные ошибки оборачиваются с контекстом операции и считаются в метриках.
func mapError(err error, op metrics.DbOperation, action string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return ErrForeignKey
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrForeignKey, pgErr.ConstraintName)
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrDuplicateKey, pgErr.ConstraintName)
		}
	}

	metrics.RecordDbError(serviceName, op)
	return fmt.Errorf("failed to %s: %w", action, err)
}
