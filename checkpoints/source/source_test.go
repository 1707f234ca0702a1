// Copyright 2018 The Gringo Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dblokhin/etnx/checkpoints"
	"github.com/dblokhin/etnx/consensus"
	"github.com/stretchr/testify/require"
)

type staticSource []checkpoints.Checkpoint

func (s staticSource) Checkpoints(context.Context) ([]checkpoints.Checkpoint, error) {
	return s, nil
}

type failingSource struct{}

func (failingSource) Checkpoints(context.Context) ([]checkpoints.Checkpoint, error) {
	return nil, errors.New("unreachable")
}

func hexOf(b byte) string {
	return strings.Repeat(string("0123456789abcdef"[b&0xf])+string("0123456789abcdef"[b&0xf]), consensus.HashSize)
}

func hashOf(t *testing.T, b byte) consensus.Hash {
	h, err := consensus.HashFromHex(hexOf(b))
	require.NoError(t, err)
	return h
}

func writeFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "checkpoints.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestJSONFile(t *testing.T) {
	path := writeFile(t, `{"hashlines": [
		{"height": 20, "hash": "`+hexOf(2)+`"},
		{"height": 10, "hash": "`+strings.ToUpper(hexOf(10))+`"}
	]}`)

	points, err := (&JSONFile{Path: path}).Checkpoints(context.Background())
	require.NoError(t, err)
	require.Len(t, points, 2)
	require.Equal(t, uint64(20), points[0].Height)
	require.Equal(t, hashOf(t, 2), points[0].Hash)
	require.Equal(t, hashOf(t, 10), points[1].Hash)
}

func TestJSONFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.json")

	points, err := (&JSONFile{Path: path}).Checkpoints(context.Background())
	require.NoError(t, err)
	require.Empty(t, points)
}

func TestJSONFileInvalid(t *testing.T) {
	_, err := (&JSONFile{Path: writeFile(t, `{"hashlines": [`)}).Checkpoints(context.Background())
	require.Error(t, err)

	path := writeFile(t, `{"hashlines": [{"height": 1, "hash": "abcd"}]}`)
	_, err = (&JSONFile{Path: path}).Checkpoints(context.Background())
	require.ErrorIs(t, err, checkpoints.ErrInvalidHash)
}

func TestLoad(t *testing.T) {
	reg := checkpoints.New()
	require.NoError(t, reg.Add(10, hashOf(t, 1)))

	// the file may not touch heights at or below 10
	path := writeFile(t, `{"hashlines": [
		{"height": 5, "hash": "`+hexOf(5)+`"},
		{"height": 10, "hash": "`+hexOf(9)+`"},
		{"height": 20, "hash": "`+hexOf(2)+`"}
	]}`)

	extra := staticSource{{Height: 30, Hash: hashOf(t, 3)}}

	require.NoError(t, Load(context.Background(), reg, &JSONFile{Path: path}, extra))

	points := reg.Points()
	require.Len(t, points, 3)
	require.Equal(t, []uint64{10, 20, 30}, []uint64{points[0].Height, points[1].Height, points[2].Height})
	require.Equal(t, hashOf(t, 1), points[0].Hash)
}

func TestLoadConflictAddsNothing(t *testing.T) {
	reg := checkpoints.New()
	require.NoError(t, reg.Add(10, hashOf(t, 1)))

	conflicting := staticSource{
		{Height: 50, Hash: hashOf(t, 5)},
		{Height: 10, Hash: hashOf(t, 2)},
	}

	err := Load(context.Background(), reg, conflicting)
	require.ErrorIs(t, err, checkpoints.ErrConflict)
	require.Equal(t, 1, reg.Len())

	// sources disagreeing with each other
	a := staticSource{{Height: 60, Hash: hashOf(t, 6)}}
	b := staticSource{{Height: 60, Hash: hashOf(t, 7)}}
	require.ErrorIs(t, Load(context.Background(), reg, a, b), checkpoints.ErrConflict)
	require.Equal(t, 1, reg.Len())
}

func TestLoadSourceError(t *testing.T) {
	reg := checkpoints.New()

	extra := staticSource{{Height: 30, Hash: hashOf(t, 3)}}
	require.Error(t, Load(context.Background(), reg, extra, failingSource{}))
	require.Zero(t, reg.Len())
}

func TestParseRecord(t *testing.T) {
	p, err := ParseRecord("307003:b79cb23dafca9fb36400bc15180b48cfa43d8839c16a4938a99fb11ab024dcdf")
	require.NoError(t, err)
	require.Equal(t, uint64(307003), p.Height)
	require.Equal(t, "b79cb23dafca9fb36400bc15180b48cfa43d8839c16a4938a99fb11ab024dcdf", p.Hash.String())

	for _, record := range []string{
		"",
		"307003",
		"abc:" + hexOf(1),
		"-1:" + hexOf(1),
		"1:" + hexOf(1)[:60],
		"1:xyz",
	} {
		_, err := ParseRecord(record)
		require.Error(t, err, record)
	}
}

func TestFingerprint(t *testing.T) {
	a := []string{"1:" + hexOf(1), "2:" + hexOf(2)}
	b := []string{"1:" + hexOf(1), "2:" + hexOf(2)}
	c := []string{"1:" + hexOf(1)}

	require.Equal(t, fingerprint(a), fingerprint(b))
	require.NotEqual(t, fingerprint(a), fingerprint(c))

	// record boundaries are part of the fingerprint
	require.NotEqual(t, fingerprint([]string{"a\nb"}), fingerprint([]string{"a", "b"}))
	require.NotEqual(t, fingerprint([]string{"ab"}), fingerprint([]string{"a", "b"}))
}

func TestDefaultDomains(t *testing.T) {
	require.Len(t, DefaultDomains(consensus.Mainnet), 4)
	require.Contains(t, DefaultDomains(consensus.Testnet), "testpoints.electroneropulse.com")
	require.Contains(t, DefaultDomains(consensus.Stagenet), "stagenetpoints.electroneropulse.info")
	require.Empty(t, DefaultDomains(consensus.Fakechain))
}
