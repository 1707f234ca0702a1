// Copyright 2018 The Gringo Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

package consensus

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/dblokhin/etnx/uint128"
	"github.com/sirupsen/logrus"
)

const (
	ZeroDifficulty Difficulty = 0

	// The minimum mining difficulty we'll allow
	MinimumDifficulty Difficulty = 1
)

// Difficulty is the cumulative proof-of-work magnitude of a block.
// Zero is never a valid difficulty: every algorithm either returns at
// least MinimumDifficulty or an error.
type Difficulty uint64

// Algorithm selects one of the difficulty adjustment algorithms
type Algorithm uint8

const (
	// AlgoCutWindow is the legacy sorted, trimmed window average
	AlgoCutWindow Algorithm = iota + 1

	// AlgoCutWindowGuarded is AlgoCutWindow returning MinimumDifficulty
	// instead of a truncated result on 64-bit overflow
	AlgoCutWindowGuarded

	// AlgoLWMA is the linearly weighted moving average
	AlgoLWMA

	// AlgoWeightedTimespan is the index weighted timespan with fast mining
	// damping and window shrinking on hashrate step changes
	AlgoWeightedTimespan
)

func (a Algorithm) String() string {
	switch a {
	case AlgoCutWindow:
		return "cut-window"
	case AlgoCutWindowGuarded:
		return "cut-window-guarded"
	case AlgoLWMA:
		return "lwma"
	case AlgoWeightedTimespan:
		return "weighted-timespan"
	}

	return fmt.Sprintf("algorithm(%d)", uint8(a))
}

// ParseAlgorithm returns the algorithm named s
func ParseAlgorithm(s string) (Algorithm, error) {
	for _, a := range []Algorithm{AlgoCutWindow, AlgoCutWindowGuarded, AlgoLWMA, AlgoWeightedTimespan} {
		if a.String() == s {
			return a, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
}

var (
	// ErrUnrepresentable the next difficulty does not fit into 64 bits
	ErrUnrepresentable = errors.New("next difficulty is not representable")

	// ErrZeroDifficulty an algorithm produced zero difficulty
	ErrZeroDifficulty = errors.New("difficulty overhead")

	// ErrWindowMismatch timestamps and cumulative difficulties differ in length
	ErrWindowMismatch = errors.New("timestamps and cumulative difficulties length mismatch")

	// ErrUnknownAlgorithm the algorithm selector is not supported
	ErrUnknownAlgorithm = errors.New("unknown difficulty algorithm")
)

// NextDifficulty computes the proof-of-work difficulty that the next block
// should comply with. Takes the timestamps and cumulative difficulties of
// the most recent blocks, oldest first. The input slices are never
// modified.
//
// Too short windows yield MinimumDifficulty. A zero result is reported as
// ErrZeroDifficulty, and an overflow of the weighted timespan algorithm as
// ErrUnrepresentable, so callers can tell both apart from the bootstrap
// difficulty.
func NextDifficulty(algo Algorithm, timestamps []uint64, cumulative []Difficulty, targetSeconds uint64) (Difficulty, error) {
	if len(timestamps) != len(cumulative) {
		return ZeroDifficulty, fmt.Errorf("%w: %d != %d", ErrWindowMismatch, len(timestamps), len(cumulative))
	}

	var next Difficulty

	switch algo {
	case AlgoCutWindow:
		next = nextDifficultyCut(timestamps, cumulative, targetSeconds, false)
	case AlgoCutWindowGuarded:
		next = nextDifficultyCut(timestamps, cumulative, targetSeconds, true)
	case AlgoLWMA:
		next = nextDifficultyLWMA(timestamps, cumulative, targetSeconds)
	case AlgoWeightedTimespan:
		var overflow bool
		if next, overflow = nextDifficultyWeighted(timestamps, cumulative, targetSeconds); overflow {
			return ZeroDifficulty, ErrUnrepresentable
		}
	default:
		return ZeroDifficulty, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, algo)
	}

	if next == ZeroDifficulty {
		return ZeroDifficulty, fmt.Errorf("%w: %s", ErrZeroDifficulty, algo)
	}

	return next, nil
}

// lastSamples returns copies of at most n most recent samples
func lastSamples(timestamps []uint64, cumulative []Difficulty, n int) ([]uint64, []Difficulty) {
	from := 0
	if len(timestamps) > n {
		from = len(timestamps) - n
	}

	ts := make([]uint64, len(timestamps)-from)
	copy(ts, timestamps[from:])

	cd := make([]Difficulty, len(cumulative)-from)
	copy(cd, cumulative[from:])

	return ts, cd
}

// nextDifficultyCut sorts the timestamps, cuts DifficultyCut outliers from
// both ends and averages the work over the remaining timespan.
func nextDifficultyCut(timestamps []uint64, cumulative []Difficulty, targetSeconds uint64, guarded bool) Difficulty {
	timestamps, cumulative = lastSamples(timestamps, cumulative, DifficultyWindow)

	length := len(timestamps)
	if length <= 1 {
		return MinimumDifficulty
	}

	// sorting (not rejecting) neutralizes reordered timestamps
	sort.Slice(timestamps, func(i, j int) bool {
		return timestamps[i] < timestamps[j]
	})

	cutBegin, cutEnd := 0, length
	if length > DifficultyWindow-2*DifficultyCut {
		cutBegin = (length - (DifficultyWindow - 2*DifficultyCut) + 1) / 2
		cutEnd = cutBegin + (DifficultyWindow - 2*DifficultyCut)
	}

	timeSpan := timestamps[cutEnd-1] - timestamps[cutBegin]
	if timeSpan == 0 {
		timeSpan = 1
	}

	totalWork := cumulative[cutEnd-1] - cumulative[cutBegin]
	product := uint128.Mul64(uint64(totalWork), targetSeconds)

	if guarded && (!product.IsUint64() || product.Lo+timeSpan-1 < product.Lo) {
		return MinimumDifficulty
	}

	return Difficulty((product.Lo + timeSpan - 1) / timeSpan)
}

// nextDifficultyLWMA weights recent solvetimes linearly and scales the
// harmonic mean of the window difficulties.
func nextDifficultyLWMA(timestamps []uint64, cumulative []Difficulty, targetSeconds uint64) Difficulty {
	t := int64(targetSeconds)
	n := LWMAWindow

	timestamps, cumulative = lastSamples(timestamps, cumulative, n+1)

	samples := len(timestamps)
	if samples < 6 {
		// new chain, give away the first blocks
		return MinimumDifficulty
	} else if samples < n+1 {
		n = samples - 1
	}

	// k normalizes the weights 1..n
	k := float64(n * (n + 1) / 2)

	var lwma, sumInverseD float64
	for i := 1; i <= n; i++ {
		// bound to ±7T, flooring to 1 would allow a timestamp exploit
		solveTime := int64(timestamps[i]) - int64(timestamps[i-1])
		if solveTime > 7*t {
			solveTime = 7 * t
		} else if solveTime < -7*t {
			solveTime = -7 * t
		}

		difficulty := cumulative[i] - cumulative[i-1]
		lwma += float64(solveTime*int64(i)) / k
		sumInverseD += 1 / float64(difficulty)
	}

	if int64(math.Round(lwma)) < t/20 {
		lwma = float64(t / 20)
	}

	harmonicMeanD := float64(n) / sumInverseD * LWMAAdjust
	next := harmonicMeanD * float64(t) / lwma

	if next < float64(LWMAFloorTrigger) {
		return LWMAFloor
	}
	if next > float64(LWMAMaxDifficulty) {
		return LWMAMaxDifficulty
	}

	return Difficulty(next)
}

const (
	shortTimespan = 30
	longTimespan  = 100

	// number of most recent timespans inspected for fast mining
	recentTimespans = 7
)

type damping struct {
	num, den uint64
}

// fastMiningDamping indexed by the number of short timespans among the
// recent ones
var fastMiningDamping = [...]damping{
	3: {11, 12},
	4: {9, 10},
	5: {4, 5},
	6: {3, 5},
	7: {1, 2},
}

// timespanStats is the outcome of walking a timestamp window
type timespanStats struct {
	// Weighted is the damped, index weighted timespan
	Weighted uint64
	// Undamped is the index weighted timespan before damping
	Undamped uint64

	Short    int
	Long     int
	ShortRun int
}

// weightedTimespans sums index weighted timespans between consecutive
// running maxima of the timestamps, so a timestamp never moves the
// reference point back. Bursts of short timespans scale the sum down.
func weightedTimespans(timestamps []uint64, targetSeconds uint64) timespanStats {
	var stats timespanStats

	length := len(timestamps)
	lastWasShort := false
	previousMax := timestamps[0]

	for i := 1; i < length; i++ {
		maxTimestamp := previousMax
		if timestamps[i] > previousMax {
			maxTimestamp = timestamps[i]
		}

		timespan := maxTimestamp - previousMax
		if timespan == 0 {
			timespan = 1
		} else if timespan > 11*targetSeconds {
			timespan = 11 * targetSeconds
		}

		if length >= recentTimespans && i >= length-recentTimespans {
			if timespan < shortTimespan {
				stats.Short++
				stats.ShortRun++
				lastWasShort = true
			} else {
				stats.ShortRun = 0
				lastWasShort = false
			}

			if timespan > longTimespan {
				stats.Long++
			}
		}

		stats.Undamped += uint64(i) * timespan
		previousMax = maxTimestamp
	}

	stats.Weighted = stats.Undamped
	if !lastWasShort || stats.Short < 3 {
		return stats
	}

	short := stats.Short
	if short > recentTimespans {
		short = recentTimespans
	}

	d := fastMiningDamping[short]
	stats.Weighted = stats.Weighted * d.num / d.den
	if short < recentTimespans && stats.ShortRun == short {
		// the whole burst is contiguous
		stats.Weighted = stats.Weighted * 7 / 8
	}

	return stats
}

// Median of the values, the mean of the middle pair for even counts and
// zero for none
func Median(values []uint64) uint64 {
	if len(values) == 0 {
		return 0
	}

	v := make([]uint64, len(values))
	copy(v, values)
	sort.Slice(v, func(i, j int) bool { return v[i] < v[j] })

	n := len(v)
	if n%2 == 1 {
		return v[n/2]
	}

	a, b := v[n/2-1], v[n/2]
	return a + (b-a)/2
}

// hashrateStepChange compares the median block difficulty of the earliest,
// middle and latest part of the window and reports a consistent
// acceleration or deceleration.
func hashrateStepChange(cumulative []Difficulty) bool {
	deltas := make([]uint64, 0, len(cumulative)-1)
	for i := 1; i < len(cumulative); i++ {
		deltas = append(deltas, uint64(cumulative[i]-cumulative[i-1]))
	}

	medianFirst := Median(deltas[:WeightedWindow-30])
	medianMid := Median(deltas[WeightedWindow-30 : WeightedWindow-10])
	medianLast := Median(deltas[WeightedWindow-10:])

	if medianFirst > medianMid*6/5 && medianMid > medianLast*10/9 {
		return true
	}

	return medianMid > medianFirst*6/5 && medianLast > medianMid*10/9
}

// nextDifficultyWeighted reports overflow when the work times the target
// does not fit into 64 bits.
func nextDifficultyWeighted(timestamps []uint64, cumulative []Difficulty, targetSeconds uint64) (Difficulty, bool) {
	timestamps, cumulative = lastSamples(timestamps, cumulative, WeightedWindow)

	if len(cumulative) >= WeightedWindow-1 && hashrateStepChange(cumulative) {
		logrus.Debugf("hashrate step change detected, shrinking difficulty window to %d", ShrunkWindow)
		timestamps, cumulative = lastSamples(timestamps, cumulative, ShrunkWindow)
	}

	length := uint64(len(timestamps))
	if length <= 1 {
		return MinimumDifficulty, false
	}

	stats := weightedTimespans(timestamps, targetSeconds)
	if stats.Weighted != stats.Undamped {
		logrus.WithFields(logrus.Fields{
			"short":    stats.Short,
			"long":     stats.Long,
			"undamped": stats.Undamped,
			"damped":   stats.Weighted,
		}).Debug("fast mining damping engaged")
	}

	// 0.99 keeps the average solvetime on target
	target := 99 * (((length + 1) / 2) * targetSeconds) / 100

	weighted := stats.Weighted
	if minimum := targetSeconds * length / 2; weighted < minimum {
		weighted = minimum
	}

	totalWork := cumulative[len(cumulative)-1] - cumulative[0]
	product := uint128.Mul64(uint64(totalWork), target)
	if !product.IsUint64() {
		return ZeroDifficulty, true
	}

	return Difficulty(product.Lo / weighted), false
}

// CheckHash reports whether hash, read as a little-endian 256-bit integer,
// times difficulty stays below 2^256.
func CheckHash(hash Hash, difficulty Difficulty) bool {
	word := func(i int) uint64 {
		return binary.LittleEndian.Uint64(hash[i*8:])
	}
	d := uint64(difficulty)

	// the highest word most likely fails for a random hash
	top := uint128.Mul64(word(3), d)
	if !top.IsUint64() {
		return false
	}

	p0 := uint128.Mul64(word(0), d)
	p1 := uint128.Mul64(word(1), d)
	carry := addCarries(p0.Hi, p1.Lo, false)

	p2 := uint128.Mul64(word(2), d)
	carry = addCarries(p1.Hi, p2.Lo, carry)
	carry = addCarries(p2.Hi, top.Lo, carry)

	return !carry
}

// addCarries reports whether a+b+carry overflows 64 bits
func addCarries(a, b uint64, carry bool) bool {
	return a+b < a || (carry && a+b == math.MaxUint64)
}
