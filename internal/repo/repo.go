package repo

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Repo wraps raw SQL access to the relational state model.
type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

// keyInt flattens an optional id for columns inside a uniqueness key, where a
// NULL would defeat the constraint (SQLite treats NULLs as distinct).
func keyInt(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

// idPtr is keyInt's inverse for reads.
func idPtr(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

func intPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func strVal(v sql.NullString) string {
	if v.Valid {
		return v.String
	}
	return ""
}

// blob serializes a typed JSON column value; nil pointers become NULL.
func blob[T any](p *T) (any, error) {
	if p == nil {
		return nil, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal blob: %w", err)
	}
	return string(b), nil
}

func mapBlob(m map[string]any) (any, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal blob: %w", err)
	}
	return string(b), nil
}

func sliceBlob(s []string) (any, error) {
	if len(s) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal blob: %w", err)
	}
	return string(b), nil
}

func unmarshalBlob(raw sql.NullString, dst any) error {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw.String), dst)
}
