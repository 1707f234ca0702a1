// Copyright 2018 The Gringo Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

package consensus

const (
	// HashSize size of block hash
	HashSize = 32

	// Coin A coin is divisible to 10^8 atomic units
	Coin uint64 = 100000000

	// LegacySupply Total number of coins of the first generation chain
	LegacySupply uint64 = 2100000000000

	// MoneySupply Total number of coins after the first fork
	MoneySupply uint64 = 21000000000000

	// Tokens Total number of coins after the first coin burn
	Tokens uint64 = 20000000000000

	// ElectroneroTokens Total number of coins after the v16 hard fork
	ElectroneroTokens uint64 = 3610309000000000

	// PulseSupply Total number of coins between the v20 and v23b forks
	PulseSupply uint64 = 3333333333333333333

	// CoinsSupply Total number of coins from the v23b fork onward
	CoinsSupply uint64 = 3700000000000000000

	// FinalSubsidy Per block subsidy once the supply is exhausted
	FinalSubsidy uint64 = Coin

	// FinalSubsidyActivator the base reward below which the final subsidy
	// may kick in
	FinalSubsidyActivator uint64 = 666

	// RoundingUnit base rewards are floored to a multiple of it
	RoundingUnit uint64 = 10

	// RoundingMinVersion first protocol version that rounds the base reward
	RoundingMinVersion uint8 = 8

	// LegacyRewardMaxVersion protocol versions below it pay from LegacySupply
	LegacyRewardMaxVersion uint8 = 2

	// EmissionSpeedFactorPerMinute the shift of the one minute target era
	EmissionSpeedFactorPerMinute = 20

	// FullRewardZoneV1 block size (bytes) up to which the full reward is
	// granted, before the first fork
	FullRewardZoneV1 uint64 = 20000

	// FullRewardZoneV2 full reward zone from version 2
	FullRewardZoneV2 uint64 = 60000

	// FullRewardZoneV5 full reward zone from version 5
	FullRewardZoneV5 uint64 = 300000

	// MaxBlockSize block header blob limit
	MaxBlockSize uint64 = 500000000

	// MaxTxSize maximum transaction size
	MaxTxSize uint64 = 1000000000

	// MaxBlockNumber the highest height a block may have
	MaxBlockNumber uint64 = 500000000

	// DifficultyTargetV1 Block interval, in seconds, of the one minute eras
	DifficultyTargetV1 uint64 = 60

	// DifficultyTargetV2 Block interval, in seconds, of the two minute eras
	DifficultyTargetV2 uint64 = 120

	// DifficultyWindow Number of blocks used by the cut window algorithms
	DifficultyWindow = 720

	// DifficultyLag Number of most recent blocks skipped by the cut window
	// algorithms
	DifficultyLag = 15

	// DifficultyCut Number of timestamps cut from each end after sorting
	DifficultyCut = 60

	// DifficultyBlocksCount samples a caller collects for the cut window
	// algorithms
	DifficultyBlocksCount = DifficultyWindow + DifficultyLag

	// LWMAWindow Number of solve times averaged by LWMA
	LWMAWindow = 70

	// WeightedWindow Number of blocks used by the weighted timespan algorithm
	WeightedWindow = 70

	// ShrunkWindow Number of most recent blocks kept when a hashrate step
	// change is detected
	ShrunkWindow = 25

	// LWMAAdjust keeps the LWMA average solvetime close to target
	LWMAAdjust = 0.998

	// LWMAFloorTrigger results below it are replaced with LWMAFloor
	LWMAFloorTrigger Difficulty = 2000

	// LWMAFloor the difficulty LWMA falls back to
	LWMAFloor Difficulty = 75723142

	// LWMAMaxDifficulty the highest difficulty LWMA returns
	LWMAMaxDifficulty Difficulty = 120307799

	// CoinEmissionMonthInterval months to change emission speed
	CoinEmissionMonthInterval = 6

	// PeakCoinEmissionYear year of the emission peak
	PeakCoinEmissionYear = 4

	// CoinEmissionHeightInterval heights between emission speed changes
	CoinEmissionHeightInterval uint64 = uint64(CoinEmissionMonthInterval*(30.4375*24*3600)) / DifficultyTargetV2

	// PeakCoinEmissionHeight height of the emission peak
	PeakCoinEmissionHeight uint64 = uint64((12*30.4375*24*3600)/DifficultyTargetV2) * PeakCoinEmissionYear
)
