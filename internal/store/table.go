package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Dakshesh-max/society-man/internal/changefeed"
)

// table is the generic GORM repository shared by every entity.
type table[T any, I any] struct {
	s       *gormStore
	name    string
	orderBy string
	preload []string

	id    func(*T) string
	build func(I, time.Time) T
	apply func(*T, I)
}

func (t *table[T, I]) query(ctx context.Context) *gorm.DB {
	q := t.s.db.WithContext(ctx)
	for _, assoc := range t.preload {
		q = q.Preload(assoc)
	}
	return q
}

// newest orders by the recency column, newest first, with the id breaking ties.
func (t *table[T, I]) newest() clause.OrderBy {
	return clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: t.orderBy}, Desc: true},
		{Column: clause.Column{Name: "id"}, Desc: true},
	}}
}

// List returns every row ordered by the recency column, newest first.
func (t *table[T, I]) List(ctx context.Context) ([]T, error) {
	items := []T{}
	if err := t.query(ctx).Order(t.newest()).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", t.name, err)
	}
	return items, nil
}

// Get returns one row by id.
func (t *table[T, I]) Get(ctx context.Context, id string) (T, error) {
	var rec T
	err := t.query(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rec, fmt.Errorf("%s %s: %w", t.name, id, ErrNotFound)
	}
	if err != nil {
		return rec, fmt.Errorf("failed to fetch %s %s: %w", t.name, id, err)
	}
	return rec, nil
}

// Create inserts a new row built from in.
func (t *table[T, I]) Create(ctx context.Context, in I) (T, error) {
	rec := t.build(in, t.s.now())
	if err := t.s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		var zero T
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return zero, fmt.Errorf("%s refers to a missing record: %w", t.name, ErrReferenced)
		}
		return zero, fmt.Errorf("failed to add %s: %w", t.name, err)
	}
	id := t.id(&rec)
	t.publish(ctx, changefeed.OpInsert, id)

	if len(t.preload) > 0 {
		return t.Get(ctx, id)
	}
	return rec, nil
}

// Update overwrites the writable fields of an existing row.
func (t *table[T, I]) Update(ctx context.Context, id string, in I) (T, error) {
	return t.mutate(ctx, id, func(rec *T) error {
		t.apply(rec, in)
		return nil
	})
}

// Delete removes a row by id.
func (t *table[T, I]) Delete(ctx context.Context, id string) error {
	res := t.s.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if errors.Is(res.Error, gorm.ErrForeignKeyViolated) {
		return fmt.Errorf("%s %s is still referenced: %w", t.name, id, ErrReferenced)
	}
	if res.Error != nil {
		return fmt.Errorf("failed to delete %s %s: %w", t.name, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s %s: %w", t.name, id, ErrNotFound)
	}
	t.publish(ctx, changefeed.OpDelete, id)
	return nil
}

// mutate loads a row, applies fn and saves it in one transaction.
func (t *table[T, I]) mutate(ctx context.Context, id string, fn func(*T) error) (T, error) {
	var rec T
	err := t.s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%s %s: %w", t.name, id, ErrNotFound)
			}
			return err
		}
		if err := fn(&rec); err != nil {
			return err
		}
		return tx.Save(&rec).Error
	})
	if err != nil {
		var zero T
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidState) {
			return zero, err
		}
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return zero, fmt.Errorf("%s %s refers to a missing record: %w", t.name, id, ErrReferenced)
		}
		return zero, fmt.Errorf("failed to update %s %s: %w", t.name, id, err)
	}
	t.publish(ctx, changefeed.OpUpdate, id)

	if len(t.preload) > 0 {
		return t.Get(ctx, id)
	}
	return rec, nil
}

// publish announces a committed write. The write already happened, so a
// failure here is only logged.
func (t *table[T, I]) publish(ctx context.Context, op changefeed.Op, id string) {
	ev := changefeed.Event{Table: t.name, Op: op, ID: id, At: t.s.now()}
	if err := t.s.pub.Publish(ctx, ev); err != nil {
		log.Printf("Warning: failed to publish %s on %s for %s: %v", op, t.name, id, err)
	}
}
