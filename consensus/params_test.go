// Copyright 2018 The Gringo Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

package consensus

import "testing"

func TestEmissionConstants(t *testing.T) {
	if CoinEmissionHeightInterval != 131490 {
		t.Errorf("emission interval %d", CoinEmissionHeightInterval)
	}
	if PeakCoinEmissionHeight != 1051920 {
		t.Errorf("peak emission height %d", PeakCoinEmissionHeight)
	}
}

func TestEraDispatch(t *testing.T) {
	p := &MainnetParams

	tests := []struct {
		height uint64
		shift  uint
		target uint64
	}{
		{0, 20, 60},
		{307002, 20, 60},
		{307003, 21, 120},
		{310789, 21, 120},
		{310790, 20, 120},
		{337816, 19, 60},
		{500060, 20, 60},
		{1132596, 30, 60},
		{1183484, 29, 60},
		{1183485, 22, 60},
		{50000000, 22, 60},
	}

	for _, test := range tests {
		era := p.era(test.height)
		if era.SpeedFactor != test.shift {
			t.Errorf("height %d: shift %d, want %d", test.height, era.SpeedFactor, test.shift)
		}
		if got := p.TargetSeconds(test.height); got != test.target {
			t.Errorf("height %d: target %d, want %d", test.height, got, test.target)
		}
	}
}

func TestSupplySchedule(t *testing.T) {
	tests := []struct {
		version uint8
		want    uint64
	}{
		{1, LegacySupply},
		{7, MoneySupply},
		{9, MoneySupply},
		{10, Tokens},
		{16, ElectroneroTokens},
		{23, ElectroneroTokens},
	}

	for _, test := range tests {
		if got := legacySupply.Cap(test.version); got != test.want {
			t.Errorf("version %d: cap %d, want %d", test.version, got, test.want)
		}
	}
}

func TestVersionAt(t *testing.T) {
	p := &MainnetParams

	tests := []struct {
		height  uint64
		version uint8
	}{
		{0, 1},
		{1, 1},
		{307002, 1},
		{307003, 7},
		{333690, 12},
		{1183485, 23},
	}

	for _, test := range tests {
		if got := p.VersionAt(test.height); got != test.version {
			t.Errorf("height %d: version %d, want %d", test.height, got, test.version)
		}
	}
}

func TestDifficultyAlgorithm(t *testing.T) {
	p := &MainnetParams

	tests := []struct {
		height uint64
		algo   Algorithm
	}{
		{0, AlgoCutWindow},
		{307003, AlgoCutWindowGuarded},
		{310790, AlgoLWMA},
		{333690, AlgoWeightedTimespan},
		{2000000, AlgoWeightedTimespan},
	}

	for _, test := range tests {
		if got := p.DifficultyAlgorithm(test.height); got != test.algo {
			t.Errorf("height %d: %s, want %s", test.height, got, test.algo)
		}
	}

	if SampleCount(AlgoCutWindow) != DifficultyWindow+DifficultyLag || Lag(AlgoCutWindow) != DifficultyLag {
		t.Error("cut window sample count")
	}
	if SampleCount(AlgoLWMA) != LWMAWindow+1 || Lag(AlgoLWMA) != 0 {
		t.Error("lwma sample count")
	}
}

func TestParseNetwork(t *testing.T) {
	for _, n := range []Network{Mainnet, Testnet, Stagenet} {
		parsed, err := ParseNetwork(n.String())
		if err != nil || parsed != n {
			t.Errorf("ParseNetwork(%q) = %v, %v", n, parsed, err)
		}

		p, err := ParamsFor(n)
		if err != nil || p.Network != n {
			t.Errorf("ParamsFor(%s) = %v, %v", n, p, err)
		}
	}

	if _, err := ParamsFor(Fakechain); err == nil {
		t.Error("fakechain has no params")
	}
}
