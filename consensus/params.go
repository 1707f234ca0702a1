// Copyright 2018 The Gringo Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

package consensus

import (
	"fmt"
	"sort"
)

// Network identifies the chain a node runs on
type Network uint8

const (
	Mainnet Network = iota
	Testnet
	Stagenet
	Fakechain
)

func (n Network) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	case Stagenet:
		return "stagenet"
	case Fakechain:
		return "fakechain"
	}

	return fmt.Sprintf("network(%d)", uint8(n))
}

// ParseNetwork returns the network named s
func ParseNetwork(s string) (Network, error) {
	for _, n := range []Network{Mainnet, Testnet, Stagenet, Fakechain} {
		if n.String() == s {
			return n, nil
		}
	}

	return Mainnet, fmt.Errorf("unknown network %q", s)
}

// HardFork is the activation height of a protocol version
type HardFork struct {
	Version uint8
	Height  uint64
}

// VersionedSupply is a supply cap in force from MinVersion on
type VersionedSupply struct {
	MinVersion uint8
	Cap        uint64
}

// SupplySchedule lists supply caps ordered by MinVersion
type SupplySchedule []VersionedSupply

// Cap returns the supply cap in force for version
func (s SupplySchedule) Cap(version uint8) uint64 {
	supply := s[0].Cap
	for _, vs := range s {
		if vs.MinVersion > version {
			break
		}
		supply = vs.Cap
	}

	return supply
}

// EmissionEra is a height range sharing one supply cap, one target block
// time and one emission speed shift.
type EmissionEra struct {
	// Height the era starts at
	Height uint64

	// TargetSeconds block interval of the era
	TargetSeconds uint64

	// SpeedFactor right shift applied to the remaining supply
	SpeedFactor uint

	Supply SupplySchedule
}

// PolynomialSchedule pays a growing share of the supply per interval
// until the emission peak.
type PolynomialSchedule struct {
	// After the schedule applies strictly above this height
	After uint64

	MinVersion uint8

	// Interval heights per emission step
	Interval uint64

	// Peak height of the emission peak, the schedule ends one interval later
	Peak uint64
}

func (s PolynomialSchedule) active(height uint64, version uint8) bool {
	return s.Interval != 0 &&
		height > s.After &&
		version >= s.MinVersion &&
		height < s.Peak+s.Interval
}

// amount is floor(supply * (0.1888 + k*(0.023 + k*0.0032))) for k the
// interval number of height
func (s PolynomialSchedule) amount(height, supply uint64) uint64 {
	k := float64(height / s.Interval)

	// explicit conversions keep each step individually rounded (no FMA)
	fraction := float64(k * 0.0032)
	fraction = float64(0.023 + fraction)
	fraction = float64(k * fraction)
	fraction = float64(0.1888 + fraction)

	return uint64(float64(float64(supply) * fraction))
}

// DifficultyEra selects the difficulty algorithm from Height on
type DifficultyEra struct {
	Height    uint64
	Algorithm Algorithm
}

// Params defines a network by its consensus rules
type Params struct {
	Network Network

	// HardForks ordered by height
	HardForks []HardFork

	// Eras ordered by height, the first one starts at zero
	Eras []EmissionEra

	// GenesisMints are fixed rewards of one-time protocol mints
	GenesisMints map[uint64]uint64

	Polynomial PolynomialSchedule

	// LegacySupply pays blocks of protocol versions below
	// LegacyRewardMaxVersion
	LegacySupply uint64

	// DifficultyEras ordered by height, the first one starts at zero
	DifficultyEras []DifficultyEra
}

// era returns the emission era height falls into
func (p *Params) era(height uint64) EmissionEra {
	i := sort.Search(len(p.Eras), func(i int) bool {
		return p.Eras[i].Height > height
	})
	if i == 0 {
		return p.Eras[0]
	}

	return p.Eras[i-1]
}

// TargetSeconds returns the block interval at height
func (p *Params) TargetSeconds(height uint64) uint64 {
	return p.era(height).TargetSeconds
}

// VersionAt returns the protocol version active at height
func (p *Params) VersionAt(height uint64) uint8 {
	version := p.HardForks[0].Version
	for _, hf := range p.HardForks {
		if hf.Height > height {
			break
		}
		version = hf.Version
	}

	return version
}

// DifficultyAlgorithm returns the algorithm that computes the difficulty of
// the block at height
func (p *Params) DifficultyAlgorithm(height uint64) Algorithm {
	algo := p.DifficultyEras[0].Algorithm
	for _, era := range p.DifficultyEras {
		if era.Height > height {
			break
		}
		algo = era.Algorithm
	}

	return algo
}

// SampleCount returns how many recent blocks a caller collects for the
// algorithm. The cut window algorithms skip the DifficultyLag most recent
// ones, see Lag.
func SampleCount(algo Algorithm) int {
	switch algo {
	case AlgoCutWindow, AlgoCutWindowGuarded:
		return DifficultyBlocksCount
	case AlgoLWMA:
		return LWMAWindow + 1
	}

	return WeightedWindow
}

// Lag returns how many of the most recent blocks the algorithm ignores
func Lag(algo Algorithm) int {
	if algo == AlgoCutWindow || algo == AlgoCutWindowGuarded {
		return DifficultyLag
	}

	return 0
}

// Mainnet hard fork heights
const (
	MainnetHardforkV1Height  uint64 = 1
	MainnetHardforkV7Height  uint64 = 307003
	MainnetHardforkV8Height  uint64 = 307054
	MainnetHardforkV9Height  uint64 = 308110
	MainnetHardforkV10Height uint64 = 310790
	MainnetHardforkV11Height uint64 = 310860
	MainnetHardforkV12Height uint64 = 333690
	MainnetHardforkV13Height uint64 = 337496
	MainnetHardforkV14Height uint64 = 337816
	MainnetHardforkV15Height uint64 = 337838
	MainnetHardforkV16Height uint64 = 500060
	MainnetHardforkV17Height uint64 = 570000
	MainnetHardforkV18Height uint64 = 659000
	MainnetHardforkV19Height uint64 = 739800
	MainnetHardforkV20Height uint64 = 1132596

	// MainnetHardforkV20bHeight is used for emissions only
	MainnetHardforkV20bHeight uint64 = 1132597
	MainnetHardforkV21Height  uint64 = 1132900
	MainnetHardforkV22Height  uint64 = 1132935
	MainnetHardforkV23Height  uint64 = 1183409
	MainnetHardforkV23bHeight uint64 = 1183485
)

const (
	// GenesisMint reward of the network genesis block and the community
	// airdrops
	GenesisMint uint64 = 1260000000000

	// SupplyMigrationMint reward of the blocks migrating the supply
	SupplyMigrationMint uint64 = 613090000000000

	// ParkingMint reward of the supply parking block
	ParkingMint uint64 = 3333333333310301990
)

var legacySupply = SupplySchedule{
	{MinVersion: 0, Cap: LegacySupply},
	{MinVersion: 7, Cap: MoneySupply},
	{MinVersion: 10, Cap: Tokens},
	{MinVersion: 16, Cap: ElectroneroTokens},
}

var (
	pulseSupply = SupplySchedule{{Cap: PulseSupply}}
	coinsSupply = SupplySchedule{{Cap: CoinsSupply}}
)

// emissionEras apply to every network: the emission curve is keyed to
// mainnet heights.
var emissionEras = []EmissionEra{
	{Height: 0, TargetSeconds: DifficultyTargetV1, SpeedFactor: 20, Supply: legacySupply},
	{Height: MainnetHardforkV7Height, TargetSeconds: DifficultyTargetV2, SpeedFactor: 21, Supply: legacySupply},
	{Height: MainnetHardforkV10Height, TargetSeconds: DifficultyTargetV2, SpeedFactor: 20, Supply: legacySupply},
	{Height: MainnetHardforkV14Height, TargetSeconds: DifficultyTargetV1, SpeedFactor: 19, Supply: legacySupply},
	{Height: MainnetHardforkV16Height, TargetSeconds: DifficultyTargetV1, SpeedFactor: 20, Supply: legacySupply},
	{Height: MainnetHardforkV17Height, TargetSeconds: DifficultyTargetV1, SpeedFactor: 22, Supply: legacySupply},
	{Height: MainnetHardforkV18Height, TargetSeconds: DifficultyTargetV1, SpeedFactor: 30, Supply: legacySupply},
	{Height: MainnetHardforkV19Height, TargetSeconds: DifficultyTargetV1, SpeedFactor: 27, Supply: legacySupply},
	{Height: MainnetHardforkV20Height, TargetSeconds: DifficultyTargetV1, SpeedFactor: 30, Supply: pulseSupply},
	{Height: MainnetHardforkV21Height, TargetSeconds: DifficultyTargetV1, SpeedFactor: 28, Supply: pulseSupply},
	{Height: MainnetHardforkV22Height, TargetSeconds: DifficultyTargetV1, SpeedFactor: 30, Supply: pulseSupply},
	{Height: MainnetHardforkV23Height, TargetSeconds: DifficultyTargetV1, SpeedFactor: 29, Supply: pulseSupply},
	{Height: MainnetHardforkV23bHeight, TargetSeconds: DifficultyTargetV1, SpeedFactor: 22, Supply: coinsSupply},
}

var genesisMints = map[uint64]uint64{
	MainnetHardforkV1Height:   GenesisMint,
	MainnetHardforkV7Height:   GenesisMint,
	MainnetHardforkV10Height:  GenesisMint,
	MainnetHardforkV16Height:  SupplyMigrationMint,
	MainnetHardforkV20bHeight: ParkingMint,
	1183410:                   SupplyMigrationMint,
	1183411:                   SupplyMigrationMint,
	1183412:                   SupplyMigrationMint,
	1183413:                   SupplyMigrationMint,
}

var polynomialSchedule = PolynomialSchedule{
	After:      MainnetHardforkV7Height,
	MinVersion: 7,
	Interval:   CoinEmissionHeightInterval,
	Peak:       PeakCoinEmissionHeight,
}

// MainnetParams defines the main network
var MainnetParams = Params{
	Network: Mainnet,
	HardForks: []HardFork{
		{1, MainnetHardforkV1Height},
		{7, MainnetHardforkV7Height},
		{8, MainnetHardforkV8Height},
		{9, MainnetHardforkV9Height},
		{10, MainnetHardforkV10Height},
		{11, MainnetHardforkV11Height},
		{12, MainnetHardforkV12Height},
		{13, MainnetHardforkV13Height},
		{14, MainnetHardforkV14Height},
		{15, MainnetHardforkV15Height},
		{16, MainnetHardforkV16Height},
		{17, MainnetHardforkV17Height},
		{18, MainnetHardforkV18Height},
		{19, MainnetHardforkV19Height},
		{20, MainnetHardforkV20Height},
		{21, MainnetHardforkV21Height},
		{22, MainnetHardforkV22Height},
		{23, MainnetHardforkV23Height},
	},
	Eras:         emissionEras,
	GenesisMints: genesisMints,
	Polynomial:   polynomialSchedule,
	LegacySupply: LegacySupply,
	DifficultyEras: []DifficultyEra{
		{0, AlgoCutWindow},
		{MainnetHardforkV7Height, AlgoCutWindowGuarded},
		{MainnetHardforkV10Height, AlgoLWMA},
		{MainnetHardforkV12Height, AlgoWeightedTimespan},
	},
}

// TestnetParams defines the test network
var TestnetParams = Params{
	Network: Testnet,
	HardForks: []HardFork{
		{1, 1},
		{7, 307003},
		{8, 307054},
		{9, 308110},
		{10, 310790},
		{11, 310860},
		{12, 333690},
		{13, 337496},
		{14, 337816},
		{15, 337838},
		{16, 492500},
	},
	Eras:         emissionEras,
	GenesisMints: genesisMints,
	Polynomial:   polynomialSchedule,
	LegacySupply: LegacySupply,
	DifficultyEras: []DifficultyEra{
		{0, AlgoCutWindow},
		{307003, AlgoCutWindowGuarded},
		{310790, AlgoLWMA},
		{333690, AlgoWeightedTimespan},
	},
}

// StagenetParams defines the staging network
var StagenetParams = Params{
	Network: Stagenet,
	HardForks: []HardFork{
		{1, 1},
		{7, 307003},
		{8, 307054},
		{9, 308110},
		{10, 310790},
		{11, 310860},
		{12, 333690},
		{13, 337496},
		{14, 337816},
		{15, 337838},
		{16, 492500},
		{17, 492530},
		{18, 492540},
	},
	Eras:         emissionEras,
	GenesisMints: genesisMints,
	Polynomial:   polynomialSchedule,
	LegacySupply: LegacySupply,
	DifficultyEras: []DifficultyEra{
		{0, AlgoCutWindow},
		{307003, AlgoCutWindowGuarded},
		{310790, AlgoLWMA},
		{333690, AlgoWeightedTimespan},
	},
}

// ParamsFor returns the consensus params of the network
func ParamsFor(n Network) (*Params, error) {
	switch n {
	case Mainnet:
		return &MainnetParams, nil
	case Testnet:
		return &TestnetParams, nil
	case Stagenet:
		return &StagenetParams, nil
	}

	return nil, fmt.Errorf("no params for %s", n)
}
