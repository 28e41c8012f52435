// Package orm is a small chainable query helper over the shared gorm.DB,
// with optional read-through caching and offset pagination.
package orm

import (
	"math"
	"time"

	"github.com/tradeyard/tradeyard/pkg/cache"
	"github.com/tradeyard/tradeyard/pkg/database"
	"gorm.io/gorm"
)

// Pagination describes one page of a list result.
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	PerPage     int   `json:"perPage"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
}

type Query struct {
	db *gorm.DB
}

func DB() *Query {
	return &Query{db: database.DB}
}

// Use wraps an explicit *gorm.DB, e.g. a test database.
func Use(db *gorm.DB) *Query {
	return &Query{db: db}
}

func (q *Query) Model(v interface{}) *Query {
	return &Query{db: q.db.Model(v)}
}

func (q *Query) Where(query string, args ...interface{}) *Query {
	return &Query{db: q.db.Where(query, args...)}
}

func (q *Query) Order(value interface{}) *Query {
	return &Query{db: q.db.Order(value)}
}

func (q *Query) Preload(relation string, args ...interface{}) *Query {
	return &Query{db: q.db.Preload(relation, args...)}
}

func (q *Query) Get(dest interface{}) error {
	return q.db.Find(dest).Error
}

func (q *Query) First(dest interface{}) error {
	return q.db.First(dest).Error
}

func (q *Query) Count() (int64, error) {
	var n int64
	err := q.db.Count(&n).Error
	return n, err
}

func (q *Query) Create(v interface{}) error {
	return q.db.Create(v).Error
}

func (q *Query) Save(v interface{}) error {
	return q.db.Save(v).Error
}

func (q *Query) Delete(v interface{}, conds ...interface{}) error {
	return q.db.Delete(v, conds...).Error
}

// Gorm exposes the underlying *gorm.DB for operations the chain does not
// cover, such as association replacement.
func (q *Query) Gorm() *gorm.DB {
	return q.db
}

// GetWithPagination fills dest with one page of results and reports the
// page bookkeeping. Pages are 1-based; out-of-range input is clamped.
func (q *Query) GetWithPagination(page, perPage int, dest interface{}) (Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	var total int64
	if err := q.db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Pagination{}, err
	}

	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	offset := (page - 1) * perPage
	if err := q.db.Offset(offset).Limit(perPage).Find(dest).Error; err != nil {
		return Pagination{}, err
	}

	return Pagination{
		CurrentPage: page,
		PerPage:     perPage,
		TotalPages:  totalPages,
		TotalItems:  total,
	}, nil
}

// Cache reads dest through the Redis cache, falling back to the database
// and storing the result for ttl on a miss.
func (q *Query) Cache(key string, ttl time.Duration, dest interface{}) error {
	if cache.Get(key, dest) {
		return nil
	}

	err := q.db.Find(dest).Error
	if err != nil {
		return err
	}

	cache.Set(key, dest, ttl)
	return nil
}
