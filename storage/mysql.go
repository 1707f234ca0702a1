// Copyright 2018 The Gringo Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

// mysql checkpoint storage backend
// storage doesnt check consensus rules, the registry does
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/dblokhin/etnx/checkpoints"
	"github.com/dblokhin/etnx/consensus"
	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
)

const (
	selectCheckpoints = "SELECT height, hash FROM checkpoints WHERE network = ? ORDER BY height"
	insertCheckpoint  = "INSERT IGNORE INTO checkpoints (network, height, hash) VALUES (?, ?, ?)"
)

// Open connects to the mysql database of dsn, e.g.
// user:password@tcp(127.0.0.1:3306)/etnx
func Open(dsn string, network consensus.Network) (*SQLStorage, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, err
	}

	return NewSQLStorage(db, network), nil
}

// NewSQLStorage returns checkpoint storage of the network on db
func NewSQLStorage(db *sql.DB, network consensus.Network) *SQLStorage {
	return &SQLStorage{
		db:      db,
		network: network.String(),
	}
}

// SQLStorage sql storage backend for operator checkpoints
type SQLStorage struct {
	sync.RWMutex

	// database instance
	db *sql.DB

	network string
}

// Checkpoints returns the stored checkpoints ordered by height
func (s *SQLStorage) Checkpoints(ctx context.Context) ([]checkpoints.Checkpoint, error) {
	s.RLock()
	defer s.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectCheckpoints, s.network)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []checkpoints.Checkpoint
	for rows.Next() {
		var (
			height  uint64
			hexHash string
		)
		if err := rows.Scan(&height, &hexHash); err != nil {
			return nil, err
		}

		hash, err := consensus.HashFromHex(hexHash)
		if err != nil {
			return nil, fmt.Errorf("%w at height %d: %v", checkpoints.ErrInvalidHash, height, err)
		}

		points = append(points, checkpoints.Checkpoint{Height: height, Hash: hash})
	}

	return points, rows.Err()
}

// SaveCheckpoint stores cp, an existing row at the height is kept
func (s *SQLStorage) SaveCheckpoint(ctx context.Context, cp checkpoints.Checkpoint) error {
	s.Lock()
	defer s.Unlock()

	res, err := s.db.ExecContext(ctx, insertCheckpoint, s.network, cp.Height, cp.Hash.String())
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		logrus.Warnf("checkpoint at height %d already stored for %s", cp.Height, s.network)
	}

	return nil
}

// Close closes the database
func (s *SQLStorage) Close() error {
	return s.db.Close()
}
