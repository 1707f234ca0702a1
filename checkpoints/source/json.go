// Copyright 2018 The Gringo Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dblokhin/etnx/checkpoints"
	"github.com/dblokhin/etnx/consensus"
	"github.com/sirupsen/logrus"
)

type hashLine struct {
	Height uint64 `json:"height"`
	Hash   string `json:"hash"`
}

type hashFile struct {
	HashLines []hashLine `json:"hashlines"`
}

// JSONFile reads checkpoints from a blockchain hash file:
//
//	{"hashlines": [{"height": 1, "hash": "4536e1..."}]}
//
// A missing file holds no checkpoints. Heights at or below the highest
// checkpoint already known are ignored when loaded.
type JSONFile struct {
	Path string
}

// Checkpoints implements Source
func (f *JSONFile) Checkpoints(ctx context.Context) ([]checkpoints.Checkpoint, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		logrus.Debugf("blockchain checkpoints file %s not found", f.Path)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var file hashFile
	if err := json.Unmarshal(data, &file); err != nil {
		logrus.Errorf("error loading checkpoints from %s: %v", f.Path, err)
		return nil, fmt.Errorf("parsing %s: %w", f.Path, err)
	}

	points := make([]checkpoints.Checkpoint, 0, len(file.HashLines))
	for _, line := range file.HashLines {
		hash, err := consensus.HashFromHex(line.Hash)
		if err != nil {
			return nil, fmt.Errorf("%w at height %d: %v", checkpoints.ErrInvalidHash, line.Height, err)
		}

		points = append(points, checkpoints.Checkpoint{Height: line.Height, Hash: hash})
	}

	return points, nil
}

func (f *JSONFile) extendsOnly() bool {
	return true
}
