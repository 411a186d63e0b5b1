package session

import (
	"github.com/go-netmux/netmux/lib/wire"
	"github.com/samber/lo"
)

// Table is the coordinator's authoritative mapping from SessionKey to
// session Handle. Unlike the teacher's RegistryImpl (lib/session/registry.go
// in go-sam-bridge), Table carries no mutex: per the concurrency model,
// it is owned exclusively by the coordinator's single goroutine, so a
// lock here would be dead weight (and, per the design notes, actively
// wrong — all mutation is supposed to route through the coordinator).
//
// A SessionKey embeds a net.IP, which is a slice and so cannot itself be
// a map key; entries are indexed by the key's rendered string form, with
// the original SessionKey carried alongside for Keys()/KeysByKind().
type Table struct {
	entries map[string]tableEntry
}

type tableEntry struct {
	key    wire.SessionKey
	handle Handle
}

// NewTable creates an empty session table.
func NewTable() *Table {
	return &Table{entries: make(map[string]tableEntry)}
}

// Add inserts or replaces the entry for key, returning the previous
// handle if one existed. Insertion is idempotent under the key: a second
// insert for the same key replaces the prior entry. The caller (the
// coordinator) is responsible for having already driven the prior
// session into a stopping state before replacing it.
func (t *Table) Add(key wire.SessionKey, h Handle) (prior Handle, hadPrior bool) {
	existing, hadPrior := t.entries[key.String()]
	t.entries[key.String()] = tableEntry{key: key, handle: h}
	return existing.handle, hadPrior
}

// Get returns the handle for key, if present.
func (t *Table) Get(key wire.SessionKey) (Handle, bool) {
	e, ok := t.entries[key.String()]
	return e.handle, ok
}

// Remove deletes the entry for key, returning the removed handle if any.
// Removing a key that is not present is tolerated and simply reports
// hadPrior=false.
func (t *Table) Remove(key wire.SessionKey) (prior Handle, hadPrior bool) {
	e, hadPrior := t.entries[key.String()]
	if hadPrior {
		delete(t.entries, key.String())
	}
	return e.handle, hadPrior
}

// Keys returns every key currently in the table.
func (t *Table) Keys() []wire.SessionKey {
	keys := make([]wire.SessionKey, 0, len(t.entries))
	for _, e := range t.entries {
		keys = append(keys, e.key)
	}
	return keys
}

// KeysByKind returns the keys whose transport kind matches kind.
func (t *Table) KeysByKind(kind wire.TransportKind) []wire.SessionKey {
	return lo.Filter(t.Keys(), func(k wire.SessionKey, _ int) bool {
		return k.Kind == kind
	})
}

// HasKind reports whether any session is currently live for the given
// transport kind.
func (t *Table) HasKind(kind wire.TransportKind) bool {
	for _, e := range t.entries {
		if e.key.Kind == kind {
			return true
		}
	}
	return false
}

// Count returns the number of live sessions.
func (t *Table) Count() int {
	return len(t.entries)
}
