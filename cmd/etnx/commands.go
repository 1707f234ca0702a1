// Copyright 2018 The Gringo Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dblokhin/etnx/chain"
	"github.com/dblokhin/etnx/checkpoints"
	"github.com/dblokhin/etnx/checkpoints/source"
	"github.com/dblokhin/etnx/consensus"
	"github.com/urfave/cli"
)

var rewardCommand = cli.Command{
	Name:  "reward",
	Usage: "compute the coinbase reward of a block",
	Flags: []cli.Flag{
		cli.Uint64Flag{Name: "height", Usage: "block height"},
		cli.UintFlag{Name: "version", Usage: "protocol version, the one active at height if unset"},
		cli.Uint64Flag{Name: "median", Usage: "median size of the recent blocks, in bytes"},
		cli.Uint64Flag{Name: "size", Usage: "cumulative size of the block, in bytes"},
		cli.Uint64Flag{Name: "generated", Usage: "coins emitted before the block, in atomic units"},
	},
	Action: reward,
}

func reward(ctx *cli.Context) error {
	params, err := cfg.Params()
	if err != nil {
		return err
	}

	height := ctx.Uint64("height")
	version := params.VersionAt(height)
	if ctx.IsSet("version") {
		version = uint8(ctx.Uint("version"))
	}

	amount, err := params.BlockReward(ctx.Uint64("median"), ctx.Uint64("size"), ctx.Uint64("generated"), version, height)
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.App.Writer, "height:  %d\nversion: %d\nbase:    %d\nreward:  %d\n",
		height, version, params.BaseReward(ctx.Uint64("generated"), version, height), amount)

	return nil
}

var difficultyCommand = cli.Command{
	Name:      "difficulty",
	Usage:     "compute the difficulty of the block after the given ones",
	ArgsUsage: "blocks.json",
	Description: "blocks.json holds the most recent blocks, oldest first, as a JSON array of\n" +
		"   {\"height\": .., \"timestamp\": .., \"difficulty\": .., \"cumulative_difficulty\": ..}",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "algo", Usage: "cut-window, cut-window-guarded, lwma or weighted-timespan; the one active at the next height if unset"},
		cli.Uint64Flag{Name: "target", Usage: "target block time in seconds, with --algo"},
	},
	Action: difficulty,
}

func difficulty(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.ShowCommandHelp(ctx, "difficulty")
	}

	data, err := os.ReadFile(ctx.Args().First())
	if err != nil {
		return err
	}

	var blocks []chain.BlockInfo
	if err := json.Unmarshal(data, &blocks); err != nil {
		return err
	}

	var next consensus.Difficulty

	if ctx.IsSet("algo") {
		algo, err := consensus.ParseAlgorithm(ctx.String("algo"))
		if err != nil {
			return err
		}
		if !ctx.IsSet("target") {
			return errors.New("--target is required with --algo")
		}

		timestamps := make([]uint64, len(blocks))
		cumulative := make([]consensus.Difficulty, len(blocks))
		for i, b := range blocks {
			timestamps[i] = b.Timestamp
			cumulative[i] = b.CumulativeDifficulty
		}

		next, err = consensus.NextDifficulty(algo, timestamps, cumulative, ctx.Uint64("target"))
		if err != nil {
			return err
		}
	} else {
		params, err := cfg.Params()
		if err != nil {
			return err
		}

		// the chain continues from the first given block
		store := chain.NewMemoryStorage()
		if len(blocks) > 0 {
			store = chain.NewMemoryStorageAt(blocks[0].Height)
		}
		for i := range blocks {
			store.AddBlock(&blocks[i])
		}

		c := chain.New(params, checkpoints.New(), store)
		if next, err = c.NextDifficulty(); err != nil {
			return err
		}
	}

	fmt.Fprintln(ctx.App.Writer, next)
	return nil
}

var checkpointsCommand = cli.Command{
	Name:  "checkpoints",
	Usage: "list the checkpoints of the network",
	Flags: []cli.Flag{
		cli.BoolFlag{Name: "defaults", Usage: "only the hardcoded checkpoints"},
		cli.StringFlag{Name: "save", Usage: "store height:hash in the mysql checkpoint store"},
	},
	Action: listCheckpoints,
}

func listCheckpoints(ctx *cli.Context) error {
	n, err := cfg.NetworkType()
	if err != nil {
		return err
	}

	reg, err := checkpoints.NewDefault(n)
	if err != nil {
		return err
	}

	store, err := cfg.Storage()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	if record := ctx.String("save"); record != "" {
		if store == nil {
			return errors.New("--save needs a mysql dsn")
		}

		cp, err := source.ParseRecord(record)
		if err != nil {
			return err
		}

		// never store a checkpoint the node would reject
		if err := reg.CheckConflicts(registryOf(cp)); err != nil {
			return err
		}

		if err := store.SaveCheckpoint(context.Background(), cp); err != nil {
			return err
		}
	}

	if !ctx.Bool("defaults") {
		sources, err := cfg.Sources(store)
		if err != nil {
			return err
		}

		if err := source.Load(context.Background(), reg, sources...); err != nil {
			return err
		}
	}

	for _, p := range reg.Points() {
		fmt.Fprintln(ctx.App.Writer, p)
	}
	fmt.Fprintf(ctx.App.Writer, "checkpoints: %d, max height: %d, digest: %s\n", reg.Len(), reg.MaxHeight(), reg.Digest())

	return nil
}

func registryOf(cp checkpoints.Checkpoint) *checkpoints.Registry {
	reg := checkpoints.New()
	// a fresh registry has nothing to conflict with
	_ = reg.Add(cp.Height, cp.Hash)
	return reg
}
