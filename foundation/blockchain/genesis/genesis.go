// Package genesis maintains access to the genesis file.
package genesis

import (
	"errors"
	"fmt"
	"time"

	"github.com/agrochain/ledger/foundation/blockchain/digest"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date          time.Time     `json:"date" mapstructure:"date"`
	ChainID       uint16        `json:"chain_id" mapstructure:"chain_id"`             // The chain id represents an unique id for this running instance.
	TransPerBlock uint16        `json:"trans_per_block" mapstructure:"trans_per_block"` // The maximum number of transactions that can be in a block, 0 is unlimited.
	Difficulty    uint16        `json:"difficulty" mapstructure:"difficulty"`           // Number of leading hex zeros a block hash needs.
	HashStrategy  string        `json:"hash_strategy" mapstructure:"hash_strategy"`     // Name of the digest strategy used for hashing.
	MineInterval  time.Duration `json:"mine_interval" mapstructure:"mine_interval"`     // How often the worker mines pending transactions.
}

// Default returns the genesis used when no genesis file is provided.
func Default() Genesis {
	return Genesis{
		Date:         time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		ChainID:      1,
		Difficulty:   2,
		HashStrategy: "sha256",
		MineInterval: 30 * time.Second,
	}
}

// =============================================================================

// Load opens and consumes the genesis file. The format is taken from the
// file extension (json, yaml, toml). Values missing from the file keep the
// defaults.
func Load(path string) (Genesis, error) {
	def := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("chain_id", def.ChainID)
	v.SetDefault("trans_per_block", def.TransPerBlock)
	v.SetDefault("difficulty", def.Difficulty)
	v.SetDefault("hash_strategy", def.HashStrategy)
	v.SetDefault("mine_interval", def.MineInterval)

	if err := v.ReadInConfig(); err != nil {
		return Genesis{}, fmt.Errorf("reading genesis file: %w", err)
	}

	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeHookFunc(time.RFC3339),
		mapstructure.StringToTimeDurationHookFunc(),
	))

	var gen Genesis
	if err := v.Unmarshal(&gen, hook); err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis file: %w", err)
	}

	if gen.Date.IsZero() {
		gen.Date = def.Date
	}

	if err := gen.Validate(); err != nil {
		return Genesis{}, err
	}

	return gen, nil
}

// Validate checks the genesis values are usable.
func (g Genesis) Validate() error {
	if g.Difficulty > 16 {
		return errors.New("difficulty must be between 0 and 16")
	}

	strategy, err := digest.Retrieve(g.HashStrategy)
	if err != nil {
		return err
	}

	// A hash can't carry more leading zeros than it has characters.
	if size := len(strategy.String("genesis")); int(g.Difficulty) > size {
		return fmt.Errorf("difficulty must be between 0 and %d for the %s strategy", size, g.HashStrategy)
	}

	if g.MineInterval < 0 {
		return errors.New("mine interval can't be negative")
	}

	return nil
}
