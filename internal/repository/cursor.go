package repository

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lalith-99/galynx/internal/identity"
)

// Feed listings paginate with an opaque cursor "<created_at_ms>:<id_u128>"
// where id_u128 is the record UUID's 128-bit value in decimal. A page
// contains items strictly older than the cursor position in the
// (created_at, id) descending order.
type Cursor struct {
	CreatedAt int64
	ID        uuid.UUID
}

const (
	// Limits outside [1, MaxPageSize] are clamped, not rejected.
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// ClampLimit normalizes a client-supplied page size.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

// ParseCursor decodes a cursor string. The empty string means "from the
// top" and returns nil.
func ParseCursor(raw string) (*Cursor, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("missing id segment")
	}
	createdAt, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp")
	}
	value, ok := new(big.Int).SetString(parts[1], 10)
	if !ok || value.Sign() < 0 {
		return nil, fmt.Errorf("invalid id")
	}
	id, ok := identity.FromU128(value)
	if !ok {
		return nil, fmt.Errorf("invalid id")
	}
	return &Cursor{CreatedAt: createdAt, ID: id}, nil
}

// EncodeCursor renders the cursor for a record's sort key.
func EncodeCursor(createdAt int64, id uuid.UUID) string {
	return fmt.Sprintf("%d:%s", createdAt, identity.U128(id).String())
}

// Before reports whether the record key (createdAt, id) sorts strictly
// before the cursor position, i.e. belongs on pages after it.
func (c *Cursor) Before(createdAt int64, id uuid.UUID) bool {
	if c == nil {
		return true
	}
	return identity.Less(createdAt, id, c.CreatedAt, c.ID)
}
