// Copyright 2018 The Gringo Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

// Package checkpoints keeps the trusted block hashes a node validates
// its chain against.
package checkpoints

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dblokhin/etnx/consensus"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
)

var (
	// ErrConflict a different hash is already pinned at the height
	ErrConflict = errors.New("checkpoint conflicts with an existing one")

	// ErrInvalidHash the checkpoint hash is not 32 bytes of hex
	ErrInvalidHash = errors.New("invalid checkpoint hash")

	// ErrMismatch the block hash differs from the checkpoint
	ErrMismatch = errors.New("block hash does not match checkpoint")
)

// Checkpoint pins the hash of the block at Height
type Checkpoint struct {
	Height uint64
	Hash   consensus.Hash
}

func (c Checkpoint) String() string {
	return fmt.Sprintf("%d:%s", c.Height, c.Hash)
}

// Registry is an ordered set of checkpoints, safe for concurrent use
type Registry struct {
	sync.RWMutex

	points map[uint64]consensus.Hash

	// heights of points, ascending
	heights []uint64
}

// New returns an empty registry
func New() *Registry {
	return &Registry{
		points: make(map[uint64]consensus.Hash),
	}
}

// Add pins hash at height. Adding the same checkpoint twice is a no-op,
// pinning a different hash at a pinned height fails with ErrConflict and
// leaves the registry unchanged.
func (r *Registry) Add(height uint64, hash consensus.Hash) error {
	r.Lock()
	defer r.Unlock()

	return r.add(height, hash)
}

// AddHex pins the hex encoded hash at height
func (r *Registry) AddHex(height uint64, hexHash string) error {
	hash, err := consensus.HashFromHex(hexHash)
	if err != nil {
		return fmt.Errorf("%w at height %d: %v", ErrInvalidHash, height, err)
	}

	return r.Add(height, hash)
}

// add must be called with the write lock held
func (r *Registry) add(height uint64, hash consensus.Hash) error {
	if pinned, ok := r.points[height]; ok {
		if pinned != hash {
			logrus.Errorf("checkpoint at height %d already exists with hash %s, rejecting %s", height, pinned, hash)
			return fmt.Errorf("%w: height %d", ErrConflict, height)
		}

		return nil
	}

	r.points[height] = hash

	i := sort.Search(len(r.heights), func(i int) bool { return r.heights[i] >= height })
	r.heights = append(r.heights, 0)
	copy(r.heights[i+1:], r.heights[i:])
	r.heights[i] = height

	return nil
}

// InZone reports whether height is at or below the highest checkpoint
func (r *Registry) InZone(height uint64) bool {
	r.RLock()
	defer r.RUnlock()

	return len(r.heights) > 0 && height <= r.heights[len(r.heights)-1]
}

// CheckBlock validates the hash of the block at height. Unpinned heights
// always pass.
func (r *Registry) CheckBlock(height uint64, hash consensus.Hash) (isCheckpoint bool, err error) {
	r.RLock()
	pinned, ok := r.points[height]
	r.RUnlock()

	if !ok {
		return false, nil
	}

	if pinned != hash {
		logrus.Warnf("checkpoint failed for height %d, expected hash: %s, fetched hash: %s", height, pinned, hash)
		return true, fmt.Errorf("%w: height %d", ErrMismatch, height)
	}

	logrus.Infof("checkpoint passed for height %d %s", height, hash)
	return true, nil
}

// AlternativeBlockAllowed reports whether a competing block at
// blockHeight may be accepted while the main chain is chainHeight blocks
// high. A fork never rewrites the genesis block nor any block at or below
// the most recent checkpoint not above chainHeight.
func (r *Registry) AlternativeBlockAllowed(chainHeight, blockHeight uint64) bool {
	if blockHeight == 0 {
		return false
	}

	r.RLock()
	defer r.RUnlock()

	// first checkpoint above the chain height
	i := sort.Search(len(r.heights), func(i int) bool { return r.heights[i] > chainHeight })
	if i == 0 {
		// the chain predates every checkpoint
		return true
	}

	return r.heights[i-1] < blockHeight
}

// MaxHeight returns the highest checkpointed height, zero for an empty
// registry
func (r *Registry) MaxHeight() uint64 {
	r.RLock()
	defer r.RUnlock()

	if len(r.heights) == 0 {
		return 0
	}

	return r.heights[len(r.heights)-1]
}

// Len returns the number of checkpoints
func (r *Registry) Len() int {
	r.RLock()
	defer r.RUnlock()

	return len(r.heights)
}

// Points returns the checkpoints ordered by height
func (r *Registry) Points() []Checkpoint {
	r.RLock()
	defer r.RUnlock()

	points := make([]Checkpoint, len(r.heights))
	for i, height := range r.heights {
		points[i] = Checkpoint{Height: height, Hash: r.points[height]}
	}

	return points
}

// conflicts returns the first point pinned with a different hash, must be
// called with a lock held
func (r *Registry) conflicts(points []Checkpoint) error {
	for _, p := range points {
		if pinned, ok := r.points[p.Height]; ok && pinned != p.Hash {
			logrus.Errorf("checkpoint at height %d already exists with hash %s, other has %s", p.Height, pinned, p.Hash)
			return fmt.Errorf("%w: height %d", ErrConflict, p.Height)
		}
	}

	return nil
}

// CheckConflicts reports ErrConflict if other pins a different hash at
// any height pinned here
func (r *Registry) CheckConflicts(other *Registry) error {
	points := other.Points()

	r.RLock()
	defer r.RUnlock()

	return r.conflicts(points)
}

// Merge adds every checkpoint of other. On conflict nothing is added.
func (r *Registry) Merge(other *Registry) error {
	points := other.Points()

	r.Lock()
	defer r.Unlock()

	if err := r.conflicts(points); err != nil {
		return err
	}

	for _, p := range points {
		// conflicts were ruled out above
		_ = r.add(p.Height, p.Hash)
	}

	return nil
}

// Digest returns the BLAKE2b-256 of the checkpoints in height order, each
// encoded as a little-endian height followed by the hash. Registries with
// the same checkpoints have the same digest.
func (r *Registry) Digest() consensus.Hash {
	h, _ := blake2b.New256(nil)

	var height [8]byte
	for _, p := range r.Points() {
		binary.LittleEndian.PutUint64(height[:], p.Height)
		h.Write(height[:])
		h.Write(p.Hash[:])
	}

	var digest consensus.Hash
	copy(digest[:], h.Sum(nil))

	return digest
}
