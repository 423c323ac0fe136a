package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("database: record not found")

// Repository maps one model type to its table.
//
//	posts := database.NewRepository[models.Post](db)
//	post, err := posts.Find(ctx, 7)
type Repository[T any] struct {
	db *gorm.DB
}

func NewRepository[T any](db *gorm.DB) *Repository[T] {
	return &Repository[T]{db: db}
}

// DB returns the underlying handle for queries the repository does not cover.
func (r *Repository[T]) DB(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

// Find loads the record with primary key id.
func (r *Repository[T]) Find(ctx context.Context, id any) (*T, error) {
	var out T
	if err := r.db.WithContext(ctx).First(&out, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %v", ErrNotFound, id)
		}
		return nil, err
	}
	return &out, nil
}

// FirstWhere loads the first record matching query.
func (r *Repository[T]) FirstWhere(ctx context.Context, query string, args ...any) (*T, error) {
	var out T
	if err := r.db.WithContext(ctx).Where(query, args...).First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

// All loads every record ordered by primary key.
func (r *Repository[T]) All(ctx context.Context) ([]T, error) {
	var out []T
	err := r.db.WithContext(ctx).Order(clausePrimary).Find(&out).Error
	return out, err
}

// Where loads the records matching query.
func (r *Repository[T]) Where(ctx context.Context, query string, args ...any) ([]T, error) {
	var out []T
	err := r.db.WithContext(ctx).Where(query, args...).Order(clausePrimary).Find(&out).Error
	return out, err
}

// Page is one page of records.
type Page[T any] struct {
	Items   []T   `json:"items"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
}

// LastPage returns the number of the last page, at least 1.
func (p Page[T]) LastPage() int {
	if p.PerPage <= 0 || p.Total == 0 {
		return 1
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

// Paginate loads page (1-based) of perPage records, newest first.
func (r *Repository[T]) Paginate(ctx context.Context, page, perPage int) (Page[T], error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 15
	}
	out := Page[T]{Page: page, PerPage: perPage}
	db := r.db.WithContext(ctx).Model(new(T))
	if err := db.Count(&out.Total).Error; err != nil {
		return out, err
	}
	err := r.db.WithContext(ctx).
		Order(clausePrimary + " DESC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&out.Items).Error
	return out, err
}

func (r *Repository[T]) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(new(T)).Count(&n).Error
	return n, err
}

func (r *Repository[T]) Create(ctx context.Context, record *T) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// Save inserts or updates every field of record.
func (r *Repository[T]) Save(ctx context.Context, record *T) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// Delete removes the record with primary key id.
func (r *Repository[T]) Delete(ctx context.Context, id any) error {
	res := r.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id %v", ErrNotFound, id)
	}
	return nil
}

// DeleteWhere removes the records matching query and returns how many went.
func (r *Repository[T]) DeleteWhere(ctx context.Context, query string, args ...any) (int64, error) {
	res := r.db.WithContext(ctx).Where(query, args...).Delete(new(T))
	return res.RowsAffected, res.Error
}

const clausePrimary = "id"
