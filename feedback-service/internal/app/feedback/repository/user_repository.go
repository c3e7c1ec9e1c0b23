package repository

import (
	"context"
	"time"

	"feedback/feedback-service/internal/app/feedback/entity"
	"feedback/pkg/metrics"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const usersTable = "users"

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create сохраняет пользователя; занятый email - ErrDuplicateKey
func (r *userRepository) Create(ctx context.Context, input entity.NewUser) (*entity.User, error) {
	user := &entity.User{
		ID:    uuid.New(),
		Name:  input.Name,
		Email: input.Email,
	}

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, usersTable)
	err := r.db.WithContext(ctx).Create(user).Error
	timer.ObserveDuration()
	if err != nil {
		return nil, mapError(err, metrics.DbOpInsert, "create user")
	}

	return user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, usersTable)
	defer timer.ObserveDuration()

	var user entity.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, mapError(err, metrics.DbOpSelect, "get user")
	}

	return &user, nil
}

// GetWithReviews пользователь с отзывами, новые первыми
func (r *userRepository) GetWithReviews(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, usersTable)
	defer timer.ObserveDuration()

	var user entity.User
	err := r.db.WithContext(ctx).
		Preload("Reviews", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		First(&user, "id = ?", id).Error
	if err != nil {
		return nil, mapError(err, metrics.DbOpSelect, "get user")
	}

	return &user, nil
}

// List пользователи по имени
func (r *userRepository) List(ctx context.Context) ([]entity.User, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, usersTable)
	defer timer.ObserveDuration()

	users := make([]entity.User, 0)
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&users).Error; err != nil {
		return nil, mapError(err, metrics.DbOpSelect, "list users")
	}

	return users, nil
}

func (r *userRepository) Update(ctx context.Context, id uuid.UUID, patch entity.UserPatch) (*entity.User, error) {
	columns := patch.Columns()
	columns["updated_at"] = time.Now()

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, usersTable)
	result := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", id).
		Updates(columns)
	timer.ObserveDuration()

	if result.Error != nil {
		return nil, mapError(result.Error, metrics.DbOpUpdate, "update user")
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.GetByID(ctx, id)
}

// Delete удаляет пользователя; отзывы удаляются каскадом в БД
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpDelete, usersTable)
	result := r.db.WithContext(ctx).Delete(&entity.User{}, "id = ?", id)
	timer.ObserveDuration()

	if result.Error != nil {
		return mapError(result.Error, metrics.DbOpDelete, "delete user")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
