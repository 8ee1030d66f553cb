// Package identity issues time-ordered IDs and timestamps for every record
// the service creates. Feed ordering everywhere is (created_at_ms, id), so
// both primitives live together here.
package identity

import (
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
)

var mu sync.Mutex

// NewID returns a UUIDv7. Creation is serialized so IDs minted by this
// process are non-decreasing in their timestamp component.
func NewID() uuid.UUID {
	mu.Lock()
	defer mu.Unlock()
	id, err := uuid.NewV7()
	if err != nil {
		// crypto/rand failure; nothing sensible to return.
		panic(err)
	}
	return id
}

// NowMS is the wall clock in Unix milliseconds.
func NowMS() int64 {
	return time.Now().UnixMilli()
}

// U128 interprets the ID's 16 bytes as a big-endian unsigned integer.
// Cursors carry this value in decimal.
func U128(id uuid.UUID) *big.Int {
	return new(big.Int).SetBytes(id[:])
}

// FromU128 converts a cursor integer back to a UUID. Values wider than
// 128 bits report ok=false.
func FromU128(value *big.Int) (uuid.UUID, bool) {
	var id uuid.UUID
	bytes := value.Bytes()
	if len(bytes) > len(id) {
		return uuid.Nil, false
	}
	copy(id[len(id)-len(bytes):], bytes)
	return id, true
}

// Less orders two (timestamp, id) keys. The ID tiebreak compares the raw
// bytes, which for canonical UUID strings matches lexicographic order.
func Less(aTS int64, aID uuid.UUID, bTS int64, bID uuid.UUID) bool {
	if aTS != bTS {
		return aTS < bTS
	}
	return compareIDs(aID, bID) < 0
}

func compareIDs(a, b uuid.UUID) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
