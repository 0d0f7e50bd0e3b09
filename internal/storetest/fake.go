// Package storetest provides an in-memory store.Store so the replicator and
// verifier can be tested without a live Redis instance.
package storetest

import (
	"context"
	"sync"

	"github.com/arkeep-io/authcache/internal/store"
)

// Fake is a store.Store backed by plain maps, guarded by a single mutex.
// It replays the same store.Batch.Ops() a store.RedisStore would, so tests
// exercise the exact sequence of commands a Transform produces.
type Fake struct {
	mu      sync.Mutex
	strings map[string]string
	sets    map[string]map[string]struct{}
}

func New() *Fake {
	return &Fake{
		strings: make(map[string]string),
		sets:    make(map[string]map[string]struct{}),
	}
}

func (f *Fake) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.strings[key]
	return v, ok, nil
}

func (f *Fake) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.strings[key] = value
	return nil
}

func (f *Fake) Del(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.strings, key)
	delete(f.sets, key)
	return nil
}

func (f *Fake) SetAdd(_ context.Context, key, member string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setAddLocked(key, member)
	return nil
}

func (f *Fake) setAddLocked(key, member string) {
	s, ok := f.sets[key]
	if !ok {
		s = make(map[string]struct{})
		f.sets[key] = s
	}
	s[member] = struct{}{}
}

func (f *Fake) SetRemove(_ context.Context, key, member string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sets[key]; ok {
		delete(s, member)
	}
	return nil
}

func (f *Fake) SetMembers(_ context.Context, key string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.sets[key]
	members := make([]string, 0, len(s))
	for m := range s {
		members = append(members, m)
	}
	return members, nil
}

func (f *Fake) SetIsMember(_ context.Context, key, member string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.sets[key][member]
	return ok, nil
}

func (f *Fake) SetCard(_ context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.sets[key])), nil
}

func (f *Fake) NewBatch() *store.Batch { return &store.Batch{} }

// Commit applies every op in b while holding the single mutex, which is
// enough to give the fake the same all-or-nothing appearance a MULTI/EXEC
// transaction gives RedisStore — there is nothing here that can fail
// partway through.
func (f *Fake) Commit(_ context.Context, b *store.Batch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range b.Ops() {
		switch o.Kind {
		case store.OpSet:
			f.strings[o.Key] = o.Value
		case store.OpDel:
			delete(f.strings, o.Key)
			delete(f.sets, o.Key)
		case store.OpSetAdd:
			f.setAddLocked(o.Key, o.Value)
		case store.OpSetRemove:
			if s, ok := f.sets[o.Key]; ok {
				delete(s, o.Value)
			}
		}
	}
	return nil
}

func (f *Fake) Flush(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.strings = make(map[string]string)
	f.sets = make(map[string]map[string]struct{})
	return nil
}

var _ store.Store = (*Fake)(nil)
