// Package repository provides a small tagged filter type used to drive
// list and export queries. Each Filter names a column, an operator, and a
// value, so storage code can apply conditions exhaustively instead of
// string-parsing dynamic filter maps.
package repository

import "gorm.io/gorm"

// Op enumerates the supported comparison operators.
type Op int

const (
	Eq Op = iota
	Gte
	Lte
	Like
	IsNull
)

// Filter is one query condition over a named column.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Filters is an ordered set of conditions combined with AND.
type Filters []Filter

// Where appends an equality condition.
func (f Filters) Where(field string, value any) Filters {
	return append(f, Filter{Field: field, Op: Eq, Value: value})
}

// From appends a greater-or-equal condition.
func (f Filters) From(field string, value any) Filters {
	return append(f, Filter{Field: field, Op: Gte, Value: value})
}

// To appends a less-or-equal condition.
func (f Filters) To(field string, value any) Filters {
	return append(f, Filter{Field: field, Op: Lte, Value: value})
}

// Apply returns a GORM scope that applies every condition in order.
func Apply(filters Filters) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, filter := range filters {
			switch filter.Op {
			case Eq:
				db = db.Where(filter.Field+" = ?", filter.Value)
			case Gte:
				db = db.Where(filter.Field+" >= ?", filter.Value)
			case Lte:
				db = db.Where(filter.Field+" <= ?", filter.Value)
			case Like:
				db = db.Where(filter.Field+" LIKE ?", filter.Value)
			case IsNull:
				db = db.Where(filter.Field + " IS NULL")
			}
		}
		return db
	}
}
