package app

import (
	"fmt"
	"strings"
)

// Operation tracks a CLI operation that may mutate the database.
// Operations are created in memory with ID=0. Only DB-mutating commands
// persist them (giving them an auto-increment ID from the database).
type Operation struct {
	ID         int64
	Operation  string
	Parameters string
	Status     string // "success" or "error"
}

// NewOperation creates a new in-memory operation.
func NewOperation(operation, parameters string) *Operation {
	return &Operation{
		Operation:  operation,
		Parameters: parameters,
		Status:     "success",
	}
}

// Persisted returns true if this operation has been saved to the database.
func (op *Operation) Persisted() bool {
	return op.ID != 0
}

// Fail marks the operation as failed when err is non-nil and returns err.
func (op *Operation) Fail(err error) error {
	if err != nil {
		op.Status = "error"
	}
	return err
}

// formatParams renders alternating key/value pairs as "k1=v1 k2=v2".
// Strings are quoted, nil pointers print as "root".
func formatParams(kv ...any) string {
	parts := make([]string, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		var v string
		switch val := kv[i+1].(type) {
		case string:
			v = fmt.Sprintf("%q", val)
		case *int64:
			if val == nil {
				v = "root"
			} else {
				v = fmt.Sprint(*val)
			}
		default:
			v = fmt.Sprint(val)
		}
		parts = append(parts, fmt.Sprintf("%v=%s", kv[i], v))
	}
	return strings.Join(parts, " ")
}
