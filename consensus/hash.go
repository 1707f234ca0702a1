// Copyright 2018 The Gringo Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

package consensus

import (
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	errHashLength = errors.New("invalid hash length")
)

// Hash is a 32-byte block hash
type Hash [HashSize]byte

// ZeroHash is the all zero hash
var ZeroHash Hash

// HashFromHex parses a 64 character hex string (either case) into a Hash.
func HashFromHex(s string) (Hash, error) {
	var h Hash

	if len(s) != 2*HashSize {
		return h, fmt.Errorf("%w: %d hex chars, want %d", errHashLength, len(s), 2*HashSize)
	}

	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return h, err
	}

	return h, nil
}

// String returns the lowercase hex representation
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether the hash is all zeroes
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// MarshalText implements encoding.TextMarshaler
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := HashFromHex(string(text))
	if err != nil {
		return err
	}

	*h = parsed
	return nil
}
