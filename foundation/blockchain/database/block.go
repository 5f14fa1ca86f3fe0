package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agrochain/ledger/foundation/blockchain/digest"
	"github.com/agrochain/ledger/foundation/blockchain/genesis"
	"github.com/agrochain/ledger/foundation/blockchain/merkle"
)

// GenesisPrevHash is the previous hash recorded by the genesis block.
const GenesisPrevHash = "0"

// ErrMiningAborted is returned from POW when the context is cancelled or
// times out before a solution is found.
var ErrMiningAborted = errors.New("mining aborted")

// =============================================================================

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	Number        uint64 `json:"index"`        // Position in the chain, 0 is genesis.
	TimeStamp     int64  `json:"timestamp"`    // Unix milliseconds, fixed when mining starts.
	PrevBlockHash string `json:"previousHash"` // Hash of the previous block in the chain.
	Nonce         uint64 `json:"nonce"`        // Value identified to solve the hash solution.
	TransRoot     string `json:"merkleRoot"`   // Merkle root of the transactions in this block.
}

// Block represents a group of transactions sealed together. The hash is
// stored with the block so tampering can be detected by recomputing it.
type Block struct {
	Header BlockHeader
	Hash   string
	Trans  []Tx
}

// GenesisBlock constructs the first block of the chain from the genesis
// settings. It isn't mined.
func GenesisBlock(gen genesis.Genesis, hashStrategy digest.Strategy) (Block, error) {
	b := Block{
		Header: BlockHeader{
			Number:        0,
			TimeStamp:     gen.Date.UnixMilli(),
			PrevBlockHash: GenesisPrevHash,
			Nonce:         0,
			TransRoot:     merkle.EmptyRoot,
		},
		Trans: []Tx{},
	}

	hash, err := b.ComputeHash(hashStrategy)
	if err != nil {
		return Block{}, err
	}
	b.Hash = hash

	return b, nil
}

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	HashStrategy digest.Strategy
	Difficulty   uint16
	PrevBlock    Block
	Trans        []Tx
	TimeStamp    time.Time
	EvHandler    func(v string, args ...any)
}

// POW constructs a new Block and performs the work to find a nonce that
// satisfies the difficulty. The context is checked on every attempt.
func POW(ctx context.Context, args POWArgs) (Block, error) {
	trans := make([]Tx, len(args.Trans))
	for i, tx := range args.Trans {
		trans[i] = tx.Copy()
	}

	// The merkle root is computed once, ahead of the nonce search.
	root, err := merkle.Root(trans, args.HashStrategy)
	if err != nil {
		return Block{}, err
	}

	timeStamp := args.TimeStamp
	if timeStamp.IsZero() {
		timeStamp = time.Now().UTC()
	}

	nb := Block{
		Header: BlockHeader{
			Number:        args.PrevBlock.Header.Number + 1,
			TimeStamp:     timeStamp.UnixMilli(),
			PrevBlockHash: args.PrevBlock.Hash,
			Nonce:         0,
			TransRoot:     root,
		},
		Trans: trans,
	}

	ev := args.EvHandler
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	if err := nb.performPOW(ctx, args.HashStrategy, args.Difficulty, ev); err != nil {
		return Block{}, err
	}

	return nb, nil
}

// performPOW does the work of mining to find a valid hash for a specified
// block. Pointer semantics are being used since a nonce is being discovered.
func (b *Block) performPOW(ctx context.Context, hashStrategy digest.Strategy, difficulty uint16, ev func(v string, args ...any)) error {
	ev("database: PerformPOW: MINING: started: blk[%d]", b.Header.Number)
	defer ev("database: PerformPOW: MINING: completed: blk[%d]", b.Header.Number)

	for _, tx := range b.Trans {
		ev("database: PerformPOW: MINING: tx[%s]", tx)
	}

	// The transactions don't change across attempts so they are only
	// marshaled once.
	trans, err := json.Marshal(b.Trans)
	if err != nil {
		return err
	}

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: PerformPOW: MINING: attempts[%d]", attempts)
		}

		if ctx.Err() != nil {
			ev("database: PerformPOW: MINING: CANCELLED: attempts[%d]", attempts)
			return fmt.Errorf("%w: %w", ErrMiningAborted, ctx.Err())
		}

		hash, err := b.hash(hashStrategy, trans)
		if err != nil {
			return err
		}

		if !isHashSolved(difficulty, hash) {
			b.Header.Nonce++
			continue
		}

		b.Hash = hash

		ev("database: PerformPOW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]", b.Header.PrevBlockHash, hash)
		ev("database: PerformPOW: MINING: attempts[%d]", attempts)

		return nil
	}
}

// ComputeHash recomputes the hash of the block from its fields. The stored
// Hash field is not part of the input.
func (b Block) ComputeHash(hashStrategy digest.Strategy) (string, error) {
	trans := b.Trans
	if trans == nil {
		trans = []Tx{}
	}

	data, err := json.Marshal(trans)
	if err != nil {
		return "", err
	}

	return b.hash(hashStrategy, data)
}

// preimage is the set of fields that participate in a block's hash.
type preimage struct {
	Number        uint64          `json:"index"`
	TimeStamp     int64           `json:"timestamp"`
	Trans         json.RawMessage `json:"transactions"`
	PrevBlockHash string          `json:"previousHash"`
	Nonce         uint64          `json:"nonce"`
	TransRoot     string          `json:"merkleRoot"`
}

func (b Block) hash(hashStrategy digest.Strategy, trans json.RawMessage) (string, error) {
	pi := preimage{
		Number:        b.Header.Number,
		TimeStamp:     b.Header.TimeStamp,
		Trans:         trans,
		PrevBlockHash: b.Header.PrevBlockHash,
		Nonce:         b.Header.Nonce,
		TransRoot:     b.Header.TransRoot,
	}

	return hashStrategy.Value(pi)
}

// ValidateBlock takes a block and validates it against the block that
// precedes it in the chain.
func (b Block) ValidateBlock(previousBlock Block, difficulty uint16, hashStrategy digest.Strategy, evHandler func(v string, args ...any)) error {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block hash matches block contents", b.Header.Number)

	hash, err := b.ComputeHash(hashStrategy)
	if err != nil {
		return fmt.Errorf("block %d: computing hash: %w", b.Header.Number, err)
	}
	if hash != b.Hash {
		return fmt.Errorf("block %d: hash doesn't match contents, got %s, exp %s", b.Header.Number, b.Hash, hash)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: parent hash does match parent block", b.Header.Number)

	if b.Header.PrevBlockHash != previousBlock.Hash {
		return fmt.Errorf("block %d: parent block hash doesn't match our known parent, got %s, exp %s", b.Header.Number, b.Header.PrevBlockHash, previousBlock.Hash)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block hash has been solved", b.Header.Number)

	if !isHashSolved(difficulty, b.Hash) {
		return fmt.Errorf("block %d: %s invalid block hash for difficulty %d", b.Header.Number, b.Hash, difficulty)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block number is the next number", b.Header.Number)

	nextNumber := previousBlock.Header.Number + 1
	if b.Header.Number != nextNumber {
		return fmt.Errorf("block %d: this block is not the next number, exp %d", b.Header.Number, nextNumber)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: merkle root does match transactions", b.Header.Number)

	root, err := merkle.Root(b.Trans, hashStrategy)
	if err != nil {
		return fmt.Errorf("block %d: computing merkle root: %w", b.Header.Number, err)
	}
	if root != b.Header.TransRoot {
		return fmt.Errorf("block %d: merkle root does not match transactions, got %s, exp %s", b.Header.Number, b.Header.TransRoot, root)
	}

	return nil
}

// isHashSolved checks the hash to make sure it complies with the POW rules.
// We need to match a difficulty number of leading 0's.
func isHashSolved(difficulty uint16, hash string) bool {
	if int(difficulty) > len(hash) {
		return false
	}

	return hash[:difficulty] == strings.Repeat("0", int(difficulty))
}

// =============================================================================

// BlockData represents what is written to storage and handed to callers.
type BlockData struct {
	Hash          string `json:"hash"`
	Number        uint64 `json:"index"`
	TimeStamp     int64  `json:"timestamp"`
	Trans         []Tx   `json:"transactions"`
	PrevBlockHash string `json:"previousHash"`
	Nonce         uint64 `json:"nonce"`
	TransRoot     string `json:"merkleRoot"`
}

// NewBlockData constructs the value to serialize.
func NewBlockData(block Block) BlockData {
	trans := block.Trans
	if trans == nil {
		trans = []Tx{}
	}

	return BlockData{
		Hash:          block.Hash,
		Number:        block.Header.Number,
		TimeStamp:     block.Header.TimeStamp,
		Trans:         trans,
		PrevBlockHash: block.Header.PrevBlockHash,
		Nonce:         block.Header.Nonce,
		TransRoot:     block.Header.TransRoot,
	}
}

// ToBlock converts a BlockData into a Block.
func ToBlock(blockData BlockData) Block {
	trans := blockData.Trans
	if trans == nil {
		trans = []Tx{}
	}

	return Block{
		Header: BlockHeader{
			Number:        blockData.Number,
			TimeStamp:     blockData.TimeStamp,
			PrevBlockHash: blockData.PrevBlockHash,
			Nonce:         blockData.Nonce,
			TransRoot:     blockData.TransRoot,
		},
		Hash:  blockData.Hash,
		Trans: trans,
	}
}

// Copy returns a deep copy of the block.
func (b Block) Copy() Block {
	trans := make([]Tx, len(b.Trans))
	for i, tx := range b.Trans {
		trans[i] = tx.Copy()
	}
	b.Trans = trans
	return b
}

// MarshalJSON implements the json.Marshaler interface.
func (b Block) MarshalJSON() ([]byte, error) {
	return json.Marshal(NewBlockData(b))
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (b *Block) UnmarshalJSON(data []byte) error {
	var bd BlockData
	if err := json.Unmarshal(data, &bd); err != nil {
		return err
	}
	*b = ToBlock(bd)
	return nil
}
