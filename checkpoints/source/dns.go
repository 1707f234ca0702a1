// Copyright 2018 The Gringo Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

package source

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dblokhin/etnx/checkpoints"
	"github.com/dblokhin/etnx/consensus"
	"github.com/dchest/siphash"
	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"
)

// DefaultResolver answers DNSSEC validated queries
const DefaultResolver = "1.1.1.1:53"

const defaultTimeout = 5 * time.Second

// keys of the record set fingerprints
const (
	fingerprintK0 uint64 = 0x65746e78636b7074
	fingerprintK1 uint64 = 0x646e737265636f72
)

// ErrNoMajority the domains did not agree on one record set
var ErrNoMajority = errors.New("no majority of checkpoint domains agree")

var (
	mainnetDomains = []string{
		"checkpoints.electroneropulse.com",
		"checkpoints.electroneropulse.org",
		"checkpoints.electroneropulse.net",
		"checkpoints.electroneropulse.info",
	}

	testnetDomains = []string{
		"testpoints.electroneropulse.com",
		"testpoints.electroneropulse.org",
		"testpoints.electroneropulse.net",
		"testpoints.electroneropulse.info",
	}

	stagenetDomains = []string{
		"stagenetpoints.electroneropulse.com",
		"stagenetpoints.electroneropulse.org",
		"stagenetpoints.electroneropulse.net",
		"stagenetpoints.electroneropulse.info",
	}
)

// DefaultDomains returns the checkpoint domains of the network
func DefaultDomains(net consensus.Network) []string {
	switch net {
	case consensus.Testnet:
		return testnetDomains
	case consensus.Stagenet:
		return stagenetDomains
	case consensus.Mainnet:
		return mainnetDomains
	}

	return nil
}

// DNS reads checkpoints published as "height:hash" TXT records. Only
// DNSSEC authenticated answers count, and the records are used only if a
// strict majority of the domains published the same set.
type DNS struct {
	Domains []string

	// Resolver address, DefaultResolver if empty
	Resolver string

	// Timeout per query, 5s if zero
	Timeout time.Duration
}

// Checkpoints implements Source
func (d *DNS) Checkpoints(ctx context.Context) ([]checkpoints.Checkpoint, error) {
	if len(d.Domains) == 0 {
		return nil, nil
	}

	votes := make(map[uint64]int)
	sets := make(map[uint64][]string)

	for _, domain := range d.Domains {
		records, err := d.lookup(ctx, domain)
		if err != nil {
			logrus.Warnf("checkpoint domain %s: %v", domain, err)
			continue
		}

		fp := fingerprint(records)
		votes[fp]++
		sets[fp] = records
	}

	var records []string
	for fp, n := range votes {
		if n > len(d.Domains)/2 {
			records = sets[fp]
			break
		}
	}
	if records == nil {
		return nil, fmt.Errorf("%w: %d domains", ErrNoMajority, len(d.Domains))
	}

	points := make([]checkpoints.Checkpoint, 0, len(records))
	for _, record := range records {
		p, err := ParseRecord(record)
		if err != nil {
			logrus.Debugf("skipping checkpoint record %q: %v", record, err)
			continue
		}

		points = append(points, p)
	}

	return points, nil
}

// lookup returns the sorted TXT records of an authenticated answer
func (d *DNS) lookup(ctx context.Context, domain string) ([]string, error) {
	resolver := d.Resolver
	if resolver == "" {
		resolver = DefaultResolver
	}

	timeout := d.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeTXT)
	msg.SetEdns0(4096, true)
	msg.AuthenticatedData = true

	client := &dns.Client{Timeout: timeout}
	resp, _, err := client.ExchangeContext(ctx, msg, resolver)
	if err != nil {
		return nil, err
	}

	if resp.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("unsuccessful TXT request: %s", dns.RcodeToString[resp.Rcode])
	}

	if !resp.AuthenticatedData {
		return nil, errors.New("answer is not DNSSEC authenticated")
	}

	records := make([]string, 0, len(resp.Answer))
	for _, rr := range resp.Answer {
		if txt, ok := rr.(*dns.TXT); ok {
			records = append(records, strings.Join(txt.Txt, ""))
		}
	}
	sort.Strings(records)

	return records, nil
}

// fingerprint identifies a sorted record set, each record is length
// prefixed
func fingerprint(records []string) uint64 {
	var buf []byte
	for _, record := range records {
		buf = binary.AppendUvarint(buf, uint64(len(record)))
		buf = append(buf, record...)
	}

	return siphash.Hash(fingerprintK0, fingerprintK1, buf)
}

// ParseRecord parses a "height:hash" checkpoint
func ParseRecord(record string) (checkpoints.Checkpoint, error) {
	var p checkpoints.Checkpoint

	i := strings.IndexByte(record, ':')
	if i < 0 {
		return p, errors.New("missing separator")
	}

	height, err := strconv.ParseUint(record[:i], 10, 64)
	if err != nil {
		return p, err
	}

	hash, err := consensus.HashFromHex(record[i+1:])
	if err != nil {
		return p, err
	}

	p.Height = height
	p.Hash = hash

	return p, nil
}
