// Copyright 2018 The Gringo Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

package chain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dblokhin/etnx/checkpoints"
	"github.com/dblokhin/etnx/consensus"
	"github.com/sirupsen/logrus"
)

// Number of blocks the median block size is taken over
const RewardBlocksWindow = 100

var (
	// ErrUnexpectedHeight the block does not extend the chain tip
	ErrUnexpectedHeight = errors.New("block does not extend the chain")

	// ErrDifficultyTooLow the block claims less work than required
	ErrDifficultyTooLow = errors.New("difficulty is too low")

	// ErrInvalidPoW the proof of work hash does not meet the difficulty
	ErrInvalidPoW = errors.New("proof of work is too weak")

	// ErrCoinbaseTooLarge the coinbase pays more than reward and fees
	ErrCoinbaseTooLarge = errors.New("coinbase spends too much money")
)

// BlockInfo is what the consensus rules need to know about a block
type BlockInfo struct {
	Height  uint64         `json:"height"`
	Version uint8          `json:"version"`
	Hash    consensus.Hash `json:"hash"`

	// PoWHash is the proof of work hash, checked against the difficulty
	PoWHash consensus.Hash `json:"pow_hash"`

	Timestamp uint64 `json:"timestamp"`

	// Difficulty the block was mined at
	Difficulty consensus.Difficulty `json:"difficulty"`

	// CumulativeDifficulty of the chain up to and including the block, set
	// when the block is accepted
	CumulativeDifficulty consensus.Difficulty `json:"cumulative_difficulty"`

	// Size cumulative size of the block and its transactions, in bytes
	Size uint64 `json:"size"`

	// Coinbase the miner transaction pays out
	Coinbase uint64 `json:"coinbase"`

	// Fees of the block transactions
	Fees uint64 `json:"fees"`
}

// Chain validates blocks against the consensus rules and appends them to
// the storage
type Chain struct {
	sync.RWMutex

	params      *consensus.Params
	checkpoints *checkpoints.Registry

	// Storage of blockchain
	storage Storage
}

// New returns a chain of the network defined by params, on top of the
// blocks in storage
func New(params *consensus.Params, reg *checkpoints.Registry, storage Storage) *Chain {
	return &Chain{
		params:      params,
		checkpoints: reg,
		storage:     storage,
	}
}

// Height returns the height of the next block
func (c *Chain) Height() uint64 {
	c.RLock()
	defer c.RUnlock()

	return c.storage.Height()
}

// NextDifficulty returns the difficulty the next block must be mined at
func (c *Chain) NextDifficulty() (consensus.Difficulty, error) {
	c.RLock()
	defer c.RUnlock()

	return c.nextDifficulty()
}

func (c *Chain) nextDifficulty() (consensus.Difficulty, error) {
	height := c.storage.Height()
	algo := c.params.DifficultyAlgorithm(height)

	blocks := c.storage.Tail(consensus.SampleCount(algo))

	// the lagging algorithms ignore the newest blocks once the window is full
	if lag := consensus.Lag(algo); lag > 0 && len(blocks) > consensus.DifficultyWindow {
		blocks = blocks[:consensus.DifficultyWindow]
	}

	timestamps := make([]uint64, len(blocks))
	cumulative := make([]consensus.Difficulty, len(blocks))
	for i, b := range blocks {
		timestamps[i] = b.Timestamp
		cumulative[i] = b.CumulativeDifficulty
	}

	next, err := consensus.NextDifficulty(algo, timestamps, cumulative, c.params.TargetSeconds(height))
	if errors.Is(err, consensus.ErrUnrepresentable) && len(blocks) > 0 {
		// keep the difficulty unchanged
		last := blocks[len(blocks)-1].Difficulty
		logrus.Warnf("next difficulty at height %d is unrepresentable, keeping %d", height, last)
		return last, nil
	}

	return next, err
}

// medianSize returns the median size of the recent blocks
func (c *Chain) medianSize() uint64 {
	blocks := c.storage.Tail(RewardBlocksWindow)
	sizes := make([]uint64, len(blocks))
	for i, b := range blocks {
		sizes[i] = b.Size
	}

	return consensus.Median(sizes)
}

// ProcessBlock validates the block at the chain tip and appends it
func (c *Chain) ProcessBlock(b *BlockInfo) error {
	// before locking storage on change MUST lock the Chain
	c.Lock()
	defer c.Unlock()
	logrus.Infof("processing block (height: %d, difficulty: %d)", b.Height, b.Difficulty)

	if height := c.storage.Height(); b.Height != height {
		return fmt.Errorf("%w: height %d, expected %d", ErrUnexpectedHeight, b.Height, height)
	}

	isCheckpoint, err := c.checkpoints.CheckBlock(b.Height, b.Hash)
	if err != nil {
		return err
	}

	// - check that the difficulty is not less than that calculated by the
	//    	difficulty algorithm based on the previous blocks
	required, err := c.nextDifficulty()
	if err != nil {
		return err
	}
	if b.Difficulty < required {
		return fmt.Errorf("%w: %d, required %d", ErrDifficultyTooLow, b.Difficulty, required)
	}

	// checkpointed blocks are trusted without the proof of work
	if !isCheckpoint && !consensus.CheckHash(b.PoWHash, b.Difficulty) {
		return fmt.Errorf("%w: %s at difficulty %d", ErrInvalidPoW, b.PoWHash, b.Difficulty)
	}

	reward, err := c.params.BlockReward(c.medianSize(), b.Size, c.storage.AlreadyGenerated(), b.Version, b.Height)
	if err != nil {
		return err
	}
	if b.Coinbase > reward+b.Fees {
		logrus.Errorf("coinbase transaction spends too much money (%d), block reward is %d (%d + %d)",
			b.Coinbase, reward+b.Fees, reward, b.Fees)
		return ErrCoinbaseTooLarge
	}

	if tail := c.storage.Tail(1); len(tail) > 0 {
		b.CumulativeDifficulty = tail[0].CumulativeDifficulty + b.Difficulty
	} else {
		b.CumulativeDifficulty = b.Difficulty
	}

	c.storage.AddBlock(b)
	return nil
}

// AllowAlternative reports whether a competing block at height may be
// accepted without rewriting checkpointed history
func (c *Chain) AllowAlternative(height uint64) bool {
	return c.checkpoints.AlternativeBlockAllowed(c.Height(), height)
}
