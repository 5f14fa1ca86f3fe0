package database

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultProductPrefix is the prefix used for generated product ids.
const DefaultProductPrefix = "AGR"

// NewTxID generates a 16 character hex transaction id.
func NewTxID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:16]
}

// NewProductID generates a product id of the form PREFIX-YYYY-NNNN.
func NewProductID(prefix string, now time.Time) string {
	if prefix == "" {
		prefix = DefaultProductPrefix
	}

	var n int64
	if nBig, err := rand.Int(rand.Reader, big.NewInt(10_000)); err == nil {
		n = nBig.Int64()
	}

	return fmt.Sprintf("%s-%d-%04d", prefix, now.Year(), n)
}
