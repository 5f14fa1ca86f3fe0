// Package digest provides the hashing support for the ledger. Every value
// that participates in block identity is serialized to JSON and then hashed
// with the configured strategy into a lower case hex string.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/ethereum/go-ethereum/crypto"
)

// Set of strategy names that can be configured.
const (
	StrategySHA256    = "sha256"
	StrategyKeccak256 = "keccak256"
	StrategyLegacy    = "legacy"
)

// Strategy defines a function that takes raw bytes and produces a
// deterministic hex encoded hash.
type Strategy func(data []byte) string

var strategies = map[string]Strategy{
	StrategySHA256:    SHA256,
	StrategyKeccak256: Keccak256,
	StrategyLegacy:    Legacy,
}

// Retrieve returns the specified strategy. An empty name returns the
// default sha256 strategy.
func Retrieve(name string) (Strategy, error) {
	if name == "" {
		return SHA256, nil
	}

	fn, exists := strategies[strings.ToLower(name)]
	if !exists {
		return nil, fmt.Errorf("strategy %q does not exist", name)
	}

	return fn, nil
}

// Value serializes the value with the JSON encoder and hashes the result.
func (s Strategy) Value(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("marshal value: %w", err)
	}

	return s(data), nil
}

// String hashes the specified string.
func (s Strategy) String(str string) string {
	return s([]byte(str))
}

// =============================================================================

// SHA256 returns the hex encoded sha256 digest of the data.
func SHA256(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Keccak256 returns the hex encoded keccak256 digest of the data, the same
// digest Ethereum uses.
func Keccak256(data []byte) string {
	return hex.EncodeToString(crypto.Keccak256(data))
}

// Legacy is a 32 bit string mixing hash rendered as 8 hex characters. It is
// fast and NOT collision resistant, so keep it to demos and low difficulty.
func Legacy(data []byte) string {
	if len(data) == 0 {
		return "0"
	}

	var hash int32
	for _, unit := range utf16.Encode([]rune(string(data))) {
		hash = (hash << 5) - hash + int32(unit)
	}

	abs := int64(hash)
	if abs < 0 {
		abs = -abs
	}

	s := strconv.FormatInt(abs, 16)
	if len(s) < 8 {
		s = strings.Repeat("0", 8-len(s)) + s
	}

	return s
}
