package tilecache

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Source tells where a tiered lookup was answered from.
type Source int

const (
	Miss Source = iota
	Memory
	Remote
)

func (s Source) String() string {
	switch s {
	case Memory:
		return "memory"
	case Remote:
		return "remote"
	default:
		return "miss"
	}
}

// Tiered puts the in-memory cache in front of an optional shared store.
// Remote hits are copied into memory. Remote failures are logged and treated
// as misses so tiles keep rendering when the store is down.
type Tiered struct {
	mem    *Cache
	remote Store
}

// NewTiered returns a tiered cache; remote may be nil.
func NewTiered(mem *Cache, remote Store) *Tiered {
	return &Tiered{mem: mem, remote: remote}
}

// Memory returns the in-memory tier.
func (t *Tiered) Memory() *Cache { return t.mem }

func (t *Tiered) Get(ctx context.Context, key string) ([]byte, Source) {
	if data, ok := t.mem.Get(key); ok {
		return data, Memory
	}
	if t.remote == nil {
		return nil, Miss
	}

	data, ok, err := t.remote.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("tile", key).Msg("Remote tile cache read failed")
		return nil, Miss
	}
	if !ok {
		return nil, Miss
	}

	t.mem.Put(key, data)
	return data, Remote
}

func (t *Tiered) Put(ctx context.Context, key string, data []byte) {
	t.mem.Put(key, data)
	if t.remote == nil {
		return
	}
	if err := t.remote.Set(ctx, key, data); err != nil {
		log.Warn().Err(err).Str("tile", key).Msg("Remote tile cache write failed")
	}
}
