// Copyright 2018 The Gringo Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

package source

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dblokhin/etnx/checkpoints"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

type zone struct {
	authenticated bool
	records       []string
}

// startDNS serves TXT records of zones, keyed by fully qualified name, on
// a local UDP port
func startDNS(t *testing.T, zones map[string]zone) string {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	started := make(chan struct{})
	server := &dns.Server{
		PacketConn:        pc,
		NotifyStartedFunc: func() { close(started) },
		Handler: dns.HandlerFunc(func(w dns.ResponseWriter, r *dns.Msg) {
			m := new(dns.Msg)
			m.SetReply(r)

			name := r.Question[0].Name
			z, ok := zones[name]
			if !ok {
				m.Rcode = dns.RcodeNameError
				w.WriteMsg(m)
				return
			}

			m.AuthenticatedData = z.authenticated
			for _, record := range z.records {
				m.Answer = append(m.Answer, &dns.TXT{
					Hdr: dns.RR_Header{Name: name, Rrtype: dns.TypeTXT, Class: dns.ClassINET, Ttl: 300},
					Txt: []string{record},
				})
			}
			w.WriteMsg(m)
		}),
	}

	go server.ActivateAndServe()
	<-started
	t.Cleanup(func() { server.Shutdown() })

	return pc.LocalAddr().String()
}

func newDNS(addr string, domains ...string) *DNS {
	return &DNS{Domains: domains, Resolver: addr, Timeout: time.Second}
}

func TestDNSMajority(t *testing.T) {
	good := []string{
		"100:" + hexOf(1),
		"200:" + hexOf(2),
		"not a checkpoint",
		"300:zz",
	}
	// same set, different order
	shuffled := []string{good[3], good[1], good[0], good[2]}

	addr := startDNS(t, map[string]zone{
		"a.example.": {true, good},
		"b.example.": {true, shuffled},
		"c.example.": {true, good},
		"d.example.": {true, []string{"100:" + hexOf(9)}},
	})

	points, err := newDNS(addr, "a.example", "b.example", "c.example", "d.example").Checkpoints(context.Background())
	require.NoError(t, err)
	require.Equal(t, []checkpoints.Checkpoint{
		{Height: 100, Hash: hashOf(t, 1)},
		{Height: 200, Hash: hashOf(t, 2)},
	}, points)
}

func TestDNSNoMajority(t *testing.T) {
	a := []string{"100:" + hexOf(1)}
	b := []string{"100:" + hexOf(2)}

	addr := startDNS(t, map[string]zone{
		"a.example.": {true, a},
		"b.example.": {true, a},
		"c.example.": {true, b},
		"d.example.": {true, b},
	})

	_, err := newDNS(addr, "a.example", "b.example", "c.example", "d.example").Checkpoints(context.Background())
	require.ErrorIs(t, err, ErrNoMajority)
}

func TestDNSRequiresAuthenticatedData(t *testing.T) {
	records := []string{"100:" + hexOf(1)}

	addr := startDNS(t, map[string]zone{
		"a.example.": {true, records},
		"b.example.": {false, records},
		"c.example.": {false, records},
	})

	_, err := newDNS(addr, "a.example", "b.example", "c.example").Checkpoints(context.Background())
	require.ErrorIs(t, err, ErrNoMajority)
}

func TestDNSFailedDomainsCountAgainst(t *testing.T) {
	records := []string{"100:" + hexOf(1)}

	addr := startDNS(t, map[string]zone{
		"a.example.": {true, records},
		"b.example.": {true, records},
	})

	// two of four domains do not exist
	_, err := newDNS(addr, "a.example", "b.example", "c.example", "d.example").Checkpoints(context.Background())
	require.ErrorIs(t, err, ErrNoMajority)

	points, err := newDNS(addr, "a.example", "b.example", "c.example").Checkpoints(context.Background())
	require.NoError(t, err)
	require.Len(t, points, 1)
}

func TestDNSLoad(t *testing.T) {
	records := []string{"400000:" + hexOf(4)}
	addr := startDNS(t, map[string]zone{
		"a.example.": {true, records},
		"b.example.": {true, records},
		"c.example.": {true, records},
	})

	reg := checkpoints.New()
	require.NoError(t, reg.Add(10, hashOf(t, 1)))

	require.NoError(t, Load(context.Background(), reg, newDNS(addr, "a.example", "b.example", "c.example")))
	require.Equal(t, uint64(400000), reg.MaxHeight())
}

func TestDNSNoDomains(t *testing.T) {
	points, err := (&DNS{}).Checkpoints(context.Background())
	require.NoError(t, err)
	require.Empty(t, points)
}
