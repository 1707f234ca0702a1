// Copyright 2018 The Gringo Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

package storage

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dblokhin/etnx/checkpoints"
	"github.com/dblokhin/etnx/consensus"
	"github.com/stretchr/testify/require"
)

var (
	hash1 = strings.Repeat("11", consensus.HashSize)
	hash2 = strings.Repeat("ab", consensus.HashSize)
)

func newMock(t *testing.T) (*SQLStorage, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewSQLStorage(db, consensus.Testnet), mock
}

func TestCheckpoints(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectCheckpoints)).
		WithArgs("testnet").
		WillReturnRows(sqlmock.NewRows([]string{"height", "hash"}).
			AddRow(1, hash1).
			AddRow(2, strings.ToUpper(hash2)))

	points, err := s.Checkpoints(context.Background())
	require.NoError(t, err)
	require.Len(t, points, 2)
	require.Equal(t, uint64(1), points[0].Height)
	require.Equal(t, hash1, points[0].Hash.String())
	require.Equal(t, hash2, points[1].Hash.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckpointsInvalidHash(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectCheckpoints)).
		WithArgs("testnet").
		WillReturnRows(sqlmock.NewRows([]string{"height", "hash"}).AddRow(7, "beef"))

	_, err := s.Checkpoints(context.Background())
	require.ErrorIs(t, err, checkpoints.ErrInvalidHash)
}

func TestCheckpointsQueryError(t *testing.T) {
	s, mock := newMock(t)

	failure := errors.New("connection refused")
	mock.ExpectQuery(regexp.QuoteMeta(selectCheckpoints)).WillReturnError(failure)

	_, err := s.Checkpoints(context.Background())
	require.ErrorIs(t, err, failure)
}

func TestSaveCheckpoint(t *testing.T) {
	s, mock := newMock(t)

	hash, err := consensus.HashFromHex(hash2)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta(insertCheckpoint)).
		WithArgs("testnet", int64(42), hash2).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertCheckpoint)).
		WithArgs("testnet", int64(42), hash2).
		WillReturnResult(sqlmock.NewResult(0, 0))

	cp := checkpoints.Checkpoint{Height: 42, Hash: hash}
	require.NoError(t, s.SaveCheckpoint(context.Background(), cp))
	require.NoError(t, s.SaveCheckpoint(context.Background(), cp))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadFromStorage(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectCheckpoints)).
		WithArgs("testnet").
		WillReturnRows(sqlmock.NewRows([]string{"height", "hash"}).AddRow(1000000, hash2))

	reg, err := checkpoints.NewDefault(consensus.Testnet)
	require.NoError(t, err)

	// the default testnet checkpoint at 1000000 pins another hash
	points, err := s.Checkpoints(context.Background())
	require.NoError(t, err)

	other := checkpoints.New()
	for _, p := range points {
		require.NoError(t, other.Add(p.Height, p.Hash))
	}
	require.ErrorIs(t, reg.Merge(other), checkpoints.ErrConflict)
}

func TestOpenInvalidDSN(t *testing.T) {
	_, err := Open("not a dsn", consensus.Mainnet)
	require.Error(t, err)
}

func TestOpen(t *testing.T) {
	s, err := Open("etnx:secret@tcp(127.0.0.1:3306)/etnx", consensus.Mainnet)
	require.NoError(t, err)
	require.Equal(t, "mainnet", s.network)
	require.NoError(t, s.Close())
}
