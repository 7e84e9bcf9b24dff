package types

import "time"

// Kind is the semantic type of an entity field.
type Kind int

const (
	KindInt Kind = iota
	KindString
	KindTime
)

// Field describes a single entity field. The same table drives the GraphQL
// object definition and the SQL column mapping, so the two never drift apart.
type Field[T any] struct {
	// Name is the field name exposed over GraphQL.
	Name string

	// Kind is the semantic type used to pick the GraphQL scalar.
	Kind Kind

	// NonNull marks the field as always present.
	NonNull bool

	// Column is the storage column backing the field.
	Column string

	// Hidden fields are persisted but never exposed to clients.
	Hidden bool

	// Ref returns a pointer to the field inside the entity.
	Ref func(*T) any
}

// Value dereferences the field of entity.
func (f Field[T]) Value(entity *T) any {
	switch v := f.Ref(entity).(type) {
	case *int:
		return *v
	case *string:
		return *v
	case *time.Time:
		return *v
	default:
		return nil
	}
}

// Columns lists the storage columns of fields in table order.
func Columns[T any](fields []Field[T]) []string {
	columns := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.Column != "" {
			columns = append(columns, f.Column)
		}
	}
	return columns
}

// Exposed returns the fields visible to clients.
func Exposed[T any](fields []Field[T]) []Field[T] {
	exposed := make([]Field[T], 0, len(fields))
	for _, f := range fields {
		if !f.Hidden {
			exposed = append(exposed, f)
		}
	}
	return exposed
}
