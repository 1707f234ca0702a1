// Copyright 2018 The Gringo Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/dblokhin/etnx/checkpoints/source"
	"github.com/dblokhin/etnx/consensus"
	"github.com/dblokhin/etnx/storage"
	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"
)

// DefaultConfigFile is read when no other file is given
const DefaultConfigFile = "etnx.conf"

// Config is the etnx configuration, read from an INI file and overridden
// by command line flags
type Config struct {
	Network  string `long:"network" ini-name:"network" description:"Network to use: mainnet, testnet or stagenet"`
	LogLevel string `long:"loglevel" ini-name:"loglevel" description:"Logging level: trace, debug, info, warn, error"`

	Checkpoints struct {
		File        string        `long:"file" ini-name:"file" description:"JSON blockchain hash file with extra checkpoints"`
		DNS         bool          `long:"dns" ini-name:"dns" description:"Load checkpoints published in DNS TXT records"`
		DNSResolver string        `long:"dnsresolver" ini-name:"dnsresolver" description:"DNSSEC validating resolver host:port"`
		DNSTimeout  time.Duration `long:"dnstimeout" ini-name:"dnstimeout" description:"Timeout of each DNS query"`
	} `group:"Checkpoints" namespace:"checkpoints"`

	MySQL struct {
		DSN string `long:"dsn" ini-name:"dsn" description:"MySQL data source name of the operator checkpoint store"`
	} `group:"MySQL" namespace:"mysql"`
}

// Default returns the configuration used when nothing else is given
func Default() Config {
	var cfg Config

	cfg.Network = consensus.Mainnet.String()
	cfg.LogLevel = logrus.InfoLevel.String()
	cfg.Checkpoints.DNSResolver = source.DefaultResolver
	cfg.Checkpoints.DNSTimeout = 5 * time.Second

	return cfg
}

// Load reads the INI file at path over the defaults. A missing file
// leaves the defaults in place.
func Load(path string) (*Config, error) {
	cfg := Default()

	if err := flags.IniParse(path, &cfg); err != nil {
		var iniErr *flags.IniError
		if errors.As(err, &iniErr) || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}

		logrus.Debugf("config file %s not found, using defaults", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that the values make sense
func (c *Config) Validate() error {
	if _, err := c.NetworkType(); err != nil {
		return err
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}

	if c.Checkpoints.DNSTimeout <= 0 {
		return fmt.Errorf("invalid dns timeout %s", c.Checkpoints.DNSTimeout)
	}

	return nil
}

// NetworkType returns the configured network
func (c *Config) NetworkType() (consensus.Network, error) {
	n, err := consensus.ParseNetwork(c.Network)
	if err != nil {
		return n, err
	}

	if n == consensus.Fakechain {
		return n, errors.New("fakechain is for tests only")
	}

	return n, nil
}

// Params returns the consensus params of the configured network
func (c *Config) Params() (*consensus.Params, error) {
	n, err := c.NetworkType()
	if err != nil {
		return nil, err
	}

	return consensus.ParamsFor(n)
}

// Storage opens the configured checkpoint store, nil if none is set
func (c *Config) Storage() (*storage.SQLStorage, error) {
	if c.MySQL.DSN == "" {
		return nil, nil
	}

	n, err := c.NetworkType()
	if err != nil {
		return nil, err
	}

	return storage.Open(c.MySQL.DSN, n)
}

// Sources returns the configured checkpoint sources besides the
// hardcoded ones
func (c *Config) Sources(store *storage.SQLStorage) ([]source.Source, error) {
	n, err := c.NetworkType()
	if err != nil {
		return nil, err
	}

	var sources []source.Source
	if c.Checkpoints.File != "" {
		sources = append(sources, &source.JSONFile{Path: c.Checkpoints.File})
	}

	if c.Checkpoints.DNS {
		sources = append(sources, &source.DNS{
			Domains:  source.DefaultDomains(n),
			Resolver: c.Checkpoints.DNSResolver,
			Timeout:  c.Checkpoints.DNSTimeout,
		})
	}

	if store != nil {
		sources = append(sources, store)
	}

	return sources, nil
}
