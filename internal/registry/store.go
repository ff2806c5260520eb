// Package registry реализует общий CRUD над одной таблицей. Все справочники портала
// (транспорт, организации, аутсорсинг, оргтехника, ...) работают через Store.
package registry

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("record not found")

// Store даёт типизированный доступ к таблице модели T.
type Store[T any] struct {
	db       *gorm.DB
	order    string
	preloads []string
}

type Option func(*options)

type options struct {
	order    string
	preloads []string
}

// OrderBy задаёт сортировку списка, например "name asc".
func OrderBy(order string) Option {
	return func(o *options) { o.order = order }
}

// Preload задаёт связи, которые подгружаются в List и Get.
func Preload(assocs ...string) Option {
	return func(o *options) { o.preloads = append(o.preloads, assocs...) }
}

func NewStore[T any](db *gorm.DB, opts ...Option) *Store[T] {
	o := options{order: "id asc"}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T]{db: db, order: o.order, preloads: o.preloads}
}

func (s *Store[T]) query() *gorm.DB {
	q := s.db
	for _, p := range s.preloads {
		q = q.Preload(p)
	}
	return q
}

// Create и Update пишут только саму запись: связи меняются через внешние ключи.
func (s *Store[T]) Create(rec *T) error {
	if err := s.db.Omit(clause.Associations).Create(rec).Error; err != nil {
		return fmt.Errorf("create: %w", err)
	}
	return nil
}

// List возвращает все записи; фильтр задаёт условие и аргументы.
func (s *Store[T]) List(where ...Filter) ([]T, error) {
	q := s.query().Order(s.order)
	for _, f := range where {
		q = q.Where(f.Cond, f.Args...)
	}
	var out []T
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return out, nil
}

func (s *Store[T]) Get(id uint) (*T, error) {
	var rec T
	err := s.query().First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %d: %w", id, err)
	}
	return &rec, nil
}

// Update сохраняет все поля записи (last writer wins).
func (s *Store[T]) Update(rec *T) error {
	if err := s.db.Omit(clause.Associations).Save(rec).Error; err != nil {
		return fmt.Errorf("update: %w", err)
	}
	return nil
}

// Delete удаляет запись безвозвратно; зависимые записи не трогаем.
func (s *Store[T]) Delete(id uint) error {
	var rec T
	res := s.db.Unscoped().Delete(&rec, id)
	if res.Error != nil {
		return fmt.Errorf("delete %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store[T]) Count() (int64, error) {
	var n int64
	var rec T
	if err := s.db.Model(&rec).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

type Filter struct {
	Cond string
	Args []any
}

func Where(cond string, args ...any) Filter {
	return Filter{Cond: cond, Args: args}
}
