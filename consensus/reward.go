// Copyright 2018 The Gringo Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

package consensus

import (
	"errors"
	"math"

	"github.com/dblokhin/etnx/uint128"
	"github.com/sirupsen/logrus"
)

var (
	// ErrBlockTooBig the block is larger than twice the median size
	ErrBlockTooBig = errors.New("block cumulative size is too big")

	// ErrMedianTooLarge the median size does not fit the 32-bit divisor
	ErrMedianTooLarge = errors.New("median block size is too large")
)

// MinBlockSize returns the size (bytes) up to which a block is granted the
// full reward for the protocol version
func MinBlockSize(version uint8) uint64 {
	if version < 2 {
		return FullRewardZoneV1
	}
	if version < 5 {
		return FullRewardZoneV2
	}

	return FullRewardZoneV5
}

// remaining returns supply - generated, zero once the supply is exhausted
func remaining(supply, generated uint64) uint64 {
	if generated >= supply {
		return 0
	}

	return supply - generated
}

// BaseReward returns the reward of a block at height before the size
// penalty is applied.
func (p *Params) BaseReward(alreadyGenerated uint64, version uint8, height uint64) uint64 {
	if mint, ok := p.GenesisMints[height]; ok {
		return mint
	}

	era := p.era(height)
	supply := era.Supply.Cap(version)

	var base uint64
	if p.Polynomial.active(height, version) {
		base = p.Polynomial.amount(height, supply) >> era.SpeedFactor
	} else {
		base = remaining(supply, alreadyGenerated) >> era.SpeedFactor
	}

	if version >= RoundingMinVersion {
		base = base / RoundingUnit * RoundingUnit
	}

	if version < LegacyRewardMaxVersion {
		base = remaining(p.LegacySupply, alreadyGenerated) >> era.SpeedFactor
	}

	// the chain never stalls emission
	if base < FinalSubsidyActivator && alreadyGenerated >= supply {
		base = FinalSubsidy
	}

	return base
}

// BlockReward computes the coinbase reward of a block of currentSize bytes
// given the median size of recent blocks. Blocks above the median are
// penalized quadratically, blocks above twice the median are invalid.
// Genesis mints are paid regardless of size.
func (p *Params) BlockReward(medianSize, currentSize, alreadyGenerated uint64, version uint8, height uint64) (uint64, error) {
	if mint, ok := p.GenesisMints[height]; ok {
		return mint, nil
	}

	base := p.BaseReward(alreadyGenerated, version, height)

	// make it soft
	if zone := MinBlockSize(version); medianSize < zone {
		medianSize = zone
	}

	if currentSize <= medianSize {
		return base, nil
	}

	if medianSize > math.MaxUint32 {
		return 0, ErrMedianTooLarge
	}

	if currentSize > 2*medianSize {
		logrus.Errorf("block cumulative size is too big: %d, expected less than %d", currentSize, 2*medianSize)
		return 0, ErrBlockTooBig
	}

	// base * (2*median - current) * current / median^2
	multiplicand := (2*medianSize - currentSize) * currentSize
	product := uint128.Mul64(base, multiplicand)

	reward, _ := product.Div32(uint32(medianSize))
	reward, _ = reward.Div32(uint32(medianSize))

	return reward.Lo, nil
}
