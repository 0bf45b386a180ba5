package persistence

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/procurement"
	"github.com/procurement/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// translateError maps driver errors onto domain sentinels
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrAlreadyExists
	}
	return err
}

// forUpdate locks the selected rows until the surrounding transaction ends.
// Drivers without row locks (sqlite) ignore the clause.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// applyEquals adds an equality condition for each filter key found in columns
func applyEquals(query *gorm.DB, filters map[string]interface{}, columns map[string]string) *gorm.DB {
	keys := make([]string, 0, len(columns))
	for key := range columns {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		column := columns[key]
		value, ok := filters[key]
		if !ok || value == nil {
			continue
		}
		if s, isString := value.(string); isString && s == "" {
			continue
		}
		query = query.Where(column+" = ?", value)
	}
	return query
}

// applySearch matches the term case-insensitively against any of the columns
func applySearch(query *gorm.DB, term string, columns ...string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return query
	}
	pattern := "%" + strings.ToLower(term) + "%"
	conds := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, column := range columns {
		conds[i] = "LOWER(" + column + ") LIKE ?"
		args[i] = pattern
	}
	return query.Where("("+strings.Join(conds, " OR ")+")", args...)
}

// applyPage orders by a whitelisted field and limits to the requested page
func applyPage(query *gorm.DB, filter shared.Filter, allowed map[string]bool) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, "created_at")
	order := ValidateSortOrder(filter.OrderDir)
	return query.Order(field + " " + order).Order("id " + order).
		Offset(filter.Offset()).
		Limit(filter.Limit())
}

// saveVersioned writes every column of model guarded by expectedVersion. The
// model's Version must already carry the next version.
func saveVersioned(db *gorm.DB, model interface{}, tenantID uuid.UUID, expectedVersion int) error {
	result := db.Model(model).
		Select("*").
		Omit(clause.Associations, "id", "tenant_id", "created_at", "created_by").
		Where("tenant_id = ? AND version = ?", tenantID, expectedVersion).
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// nextDocumentNumber finds the highest sequence issued for the month of at
// and formats the next one
func nextDocumentNumber(db *gorm.DB, table, column, prefix string, tenantID uuid.UUID, at time.Time) (string, error) {
	period := procurement.DocumentNumberPeriod(prefix, at)
	var last string
	err := db.Table(table).
		Select(column).
		Where("tenant_id = ? AND "+column+" LIKE ?", tenantID, period+"%").
		Order("LENGTH(" + column + ") DESC").
		Order(column + " DESC").
		Limit(1).
		Scan(&last).Error
	if err != nil {
		return "", fmt.Errorf("failed to read last %s number: %w", prefix, err)
	}
	seq := 0
	if last != "" {
		if n, ok := procurement.ParseDocumentSequence(last); ok {
			seq = n
		}
	}
	return procurement.FormatDocumentNumber(prefix, at, seq+1), nil
}

// excludeIDs adds "id NOT IN" for a non-empty list
func excludeIDs(query *gorm.DB, column string, ids []uuid.UUID) *gorm.DB {
	if len(ids) == 0 {
		return query
	}
	return query.Where(column+" NOT IN ?", ids)
}
