package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emedica/emedica-api/internal/domain"
	"github.com/emedica/emedica-api/internal/domain/directory"
)

type DirectoryRepository struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

func (r *DirectoryRepository) Create(ctx context.Context, u *directory.User) error {
	err := r.db.WithContext(ctx).Create(u).Error
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			if strings.Contains(err.Error(), "phone") {
				return directory.ErrPhoneTaken
			}
			return directory.ErrEmailTaken
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (r *DirectoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*directory.User, error) {
	var u directory.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, directory.ErrUserNotFound
		}
		return nil, fmt.Errorf("querying user by id: %w", err)
	}
	return &u, nil
}

func (r *DirectoryRepository) GetByEmail(ctx context.Context, email string) (*directory.User, error) {
	var u directory.User
	err := r.db.WithContext(ctx).
		Where("lower(email) = ? AND deleted_at IS NULL", directory.NormalizeEmail(email)).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, directory.ErrUserNotFound
		}
		return nil, fmt.Errorf("querying user by email: %w", err)
	}
	return &u, nil
}

func (r *DirectoryRepository) GetByPhone(ctx context.Context, phone string) (*directory.User, error) {
	var u directory.User
	err := r.db.WithContext(ctx).
		Where("phone = ? AND deleted_at IS NULL", directory.NormalizePhone(phone)).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, directory.ErrUserNotFound
		}
		return nil, fmt.Errorf("querying user by phone: %w", err)
	}
	return &u, nil
}

func (r *DirectoryRepository) List(ctx context.Context, q *directory.ListUsersQuery) (*directory.PagedUsers, error) {
	tx := r.db.WithContext(ctx).Model(&directory.User{}).Where("deleted_at IS NULL")

	if q.Search != "" {
		pattern := "%" + strings.ToLower(q.Search) + "%"
		tx = tx.Where("lower(name) LIKE ? OR lower(email) LIKE ?", pattern, pattern)
	}
	if q.Role != nil {
		tx = tx.Where("role = ?", *q.Role)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting users: %w", err)
	}

	var users []*directory.User
	err := tx.Order("name ASC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	return &directory.PagedUsers{
		Users:      users,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(q.PageSize))),
	}, nil
}

func (r *DirectoryRepository) CountByRole(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Role  domain.Role
		Count int64
	}
	err := r.db.WithContext(ctx).Model(&directory.User{}).
		Select("role, count(*) as count").
		Where("deleted_at IS NULL AND is_active").
		Group("role").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("counting users by role: %w", err)
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[string(row.Role)] = row.Count
	}
	return out, nil
}

func (r *DirectoryRepository) RecordLogin(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&directory.User{}).
		Where("id = ?", id).
		Update("last_login_at", &now).Error
}
