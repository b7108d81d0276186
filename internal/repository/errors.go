package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hotelbooking/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// translateError maps driver level failures onto the domain error kinds.
func translateError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, entity)
	}
	if isUniqueConstraintError(err) {
		return fmt.Errorf("%w: %s already exists", domain.ErrConflict, entity)
	}
	return err
}

func isUniqueConstraintError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

func staleVersion(entity string, id int64) error {
	return fmt.Errorf("%w: %s %d was modified concurrently", domain.ErrConflict, entity, id)
}

// missingOrStale tells a deleted row from a lost version race after a
// compare-and-swap matched nothing.
func missingOrStale(ctx context.Context, db *gorm.DB, model interface{}, entity string, id int64) error {
	var cnt int64
	if err := conn(ctx, db).Model(model).Where("id = ?", id).Count(&cnt).Error; err != nil {
		return err
	}
	if cnt == 0 {
		return translateError(gorm.ErrRecordNotFound, entity)
	}
	return staleVersion(entity, id)
}
