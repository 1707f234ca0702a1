// Copyright 2018 The Gringo Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/dblokhin/etnx/config"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

func init() {
	// Output to stdout instead of the default stderr
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)
}

// cfg is loaded before any command runs
var cfg *config.Config

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "[etnx] %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "etnx"
	app.Usage = "electronero consensus rules: rewards, difficulty and checkpoints"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Value: config.DefaultConfigFile,
			Usage: "path to the INI configuration file",
		},
		cli.StringFlag{
			Name:  "network",
			Usage: "network to use: mainnet, testnet or stagenet",
		},
		cli.StringFlag{
			Name:  "loglevel",
			Usage: "logging level: trace, debug, info, warn, error",
		},
	}
	app.Before = before
	app.Commands = []cli.Command{
		rewardCommand,
		difficultyCommand,
		checkpointsCommand,
	}

	return app
}

// before loads the configuration file and applies the global flags over it
func before(ctx *cli.Context) error {
	loaded, err := config.Load(ctx.GlobalString("config"))
	if err != nil {
		return err
	}

	if ctx.GlobalIsSet("network") {
		loaded.Network = ctx.GlobalString("network")
	}
	if ctx.GlobalIsSet("loglevel") {
		loaded.LogLevel = ctx.GlobalString("loglevel")
	}
	if err := loaded.Validate(); err != nil {
		return err
	}

	level, err := logrus.ParseLevel(loaded.LogLevel)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)

	cfg = loaded
	return nil
}
