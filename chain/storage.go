// Copyright 2018 The Gringo Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

package chain

import "sync"

// Storage represents storage methods for backends
// Storage doesnt check consensus rules!
type Storage interface {
	// Adding block to storage
	AddBlock(block *BlockInfo)
	// Returns at most limit most recent blocks, oldest first
	Tail(limit int) []BlockInfo
	// Returns the height of the next block
	Height() uint64
	// Returns coins emitted by the stored blocks
	AlreadyGenerated() uint64
}

// MemoryStorage keeps the blocks in memory
type MemoryStorage struct {
	sync.RWMutex

	// height of the first stored block
	base      uint64
	blocks    []BlockInfo
	generated uint64
}

// NewMemoryStorage returns an empty storage starting at genesis
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// NewMemoryStorageAt returns an empty storage whose first block is at
// height. The emission counts the stored blocks only.
func NewMemoryStorageAt(height uint64) *MemoryStorage {
	return &MemoryStorage{base: height}
}

// AddBlock appends the block. The emission grows by the coinbase minus
// the fees.
func (m *MemoryStorage) AddBlock(block *BlockInfo) {
	m.Lock()
	defer m.Unlock()

	m.blocks = append(m.blocks, *block)
	if block.Coinbase > block.Fees {
		m.generated += block.Coinbase - block.Fees
	}
}

// Tail returns at most limit most recent blocks, oldest first
func (m *MemoryStorage) Tail(limit int) []BlockInfo {
	m.RLock()
	defer m.RUnlock()

	from := 0
	if len(m.blocks) > limit {
		from = len(m.blocks) - limit
	}

	tail := make([]BlockInfo, len(m.blocks)-from)
	copy(tail, m.blocks[from:])

	return tail
}

// Height returns the height of the block after the stored ones
func (m *MemoryStorage) Height() uint64 {
	m.RLock()
	defer m.RUnlock()

	return m.base + uint64(len(m.blocks))
}

// AlreadyGenerated returns the emission of the stored blocks
func (m *MemoryStorage) AlreadyGenerated() uint64 {
	m.RLock()
	defer m.RUnlock()

	return m.generated
}
