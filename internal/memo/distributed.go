// Distributed mode: see SPEC_FULL.md §11.1. go-redis/v7 is deliberately
// not used here (dropped, see DESIGN.md) -- v8 alone covers this need.
package memo

import (
	"context"
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/cachesim/cachesim/internal/access"
	"github.com/cespare/xxhash/v2"
	rendezvous "github.com/dgryski/go-rendezvous"
	"github.com/go-redis/redis/v8"
)

// Distributed shards a trace-decode memo across one or more Redis
// endpoints using rendezvous (HRW) hashing, so a fleet of simulator
// workers replaying shards of the same huge trace share decoded lines,
// and adding or removing an endpoint reshuffles the minimum number of
// keys -- the same sharding goal Local's bucket array achieves in one
// process, generalized to a cluster.
type Distributed struct {
	clients map[string]*redis.Client
	router  *rendezvous.Table
	ctx     context.Context
}

// NewDistributed dials one redis.Client per addr in addrs and builds a
// rendezvous router over them.
func NewDistributed(ctx context.Context, addrs []string) *Distributed {
	clients := make(map[string]*redis.Client, len(addrs))
	names := make([]string, len(addrs))
	for i, addr := range addrs {
		clients[addr] = redis.NewClient(&redis.Options{Addr: addr})
		names[i] = addr
	}
	return &Distributed{
		clients: clients,
		router:  rendezvous.New(names, xxhash.Sum64String),
		ctx:     ctx,
	}
}

func (d *Distributed) Decode(line []byte, decode func([]byte) (Record, error)) (Record, error) {
	digest := xxhash.Sum64(line)
	key := "memo:" + strconv.FormatUint(digest, 10)
	client := d.clients[d.router.Get(key)]

	if raw, err := client.Get(d.ctx, key).Bytes(); err == nil {
		if rec, ok := decodeRecord(raw); ok {
			return rec, nil
		}
	}

	rec, err := decode(line)
	if err != nil {
		return Record{}, err
	}
	// Best-effort: a failed Set never fails the decode, it only costs
	// the next worker a cache miss.
	_ = client.Set(d.ctx, key, encodeRecord(rec), 0).Err()
	return rec, nil
}

// Close closes every underlying client, returning the first error.
func (d *Distributed) Close() error {
	var firstErr error
	for _, c := range d.clients {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close redis client: %w", err)
		}
	}
	return firstErr
}

func encodeRecord(r Record) []byte {
	buf := make([]byte, 9)
	buf[0] = byte(r.Mode)
	binary.LittleEndian.PutUint64(buf[1:], r.Addr)
	return buf
}

func decodeRecord(b []byte) (Record, bool) {
	if len(b) < 9 {
		return Record{}, false
	}
	return Record{Mode: access.Mode(b[0]), Addr: binary.LittleEndian.Uint64(b[1:])}, true
}
