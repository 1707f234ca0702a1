// Copyright 2018 The Gringo Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

// Package source loads checkpoints from outside the binary: hash files,
// DNS TXT records and the operator database.
package source

import (
	"context"
	"fmt"

	"github.com/dblokhin/etnx/checkpoints"
	"github.com/sirupsen/logrus"
)

// Source provides checkpoints
type Source interface {
	Checkpoints(ctx context.Context) ([]checkpoints.Checkpoint, error)
}

// extender is implemented by sources that may only add checkpoints above
// the ones already known
type extender interface {
	extendsOnly() bool
}

// Load collects the checkpoints of every source and merges them into reg.
// Either all of them are added or, on the first error or conflict, none.
func Load(ctx context.Context, reg *checkpoints.Registry, sources ...Source) error {
	staging := checkpoints.New()
	maxHeight := reg.MaxHeight()

	for _, s := range sources {
		points, err := s.Checkpoints(ctx)
		if err != nil {
			return fmt.Errorf("loading checkpoints from %T: %w", s, err)
		}

		e, ok := s.(extender)
		skipKnown := ok && e.extendsOnly()

		for _, p := range points {
			if skipKnown && p.Height <= maxHeight {
				logrus.Debugf("ignoring checkpoint height %d", p.Height)
				continue
			}

			if err := staging.Add(p.Height, p.Hash); err != nil {
				return err
			}
		}
	}

	if err := reg.Merge(staging); err != nil {
		return err
	}

	logrus.Infof("loaded %d checkpoints, max height %d", staging.Len(), reg.MaxHeight())
	return nil
}
