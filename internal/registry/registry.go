// Package registry holds the in-process collection of accounts. It is the
// shared mutable resource behind the HTTP API, so every operation takes the
// registry lock. Identity keys are not unique here; the API boundary enforces
// uniqueness with a lookup before insert.
package registry

import (
	"sync"

	"github.com/mkaczor/bankapi/internal/model"
)

// Registry is a mutex-guarded, ordered collection of accounts.
type Registry struct {
	mu       sync.RWMutex
	accounts []model.Identifiable
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{}
}

// Add appends an account. A nil account is rejected; duplicate keys are
// permitted.
func (r *Registry) Add(account model.Identifiable) bool {
	if account == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts = append(r.accounts, account)
	return true
}

// FindByKey returns the first account with the given identity key, in
// insertion order.
func (r *Registry) FindByKey(key string) (model.Identifiable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, account := range r.accounts {
		if account.Key() == key {
			return account, true
		}
	}
	return nil, false
}

// All returns a snapshot of the collection. Mutating the returned slice does
// not affect the registry.
func (r *Registry) All() []model.Identifiable {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make([]model.Identifiable, len(r.accounts))
	copy(snapshot, r.accounts)
	return snapshot
}

// Count returns the number of accounts, duplicates included.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.accounts)
}

// Remove deletes the given account. Comparison is by identity, not key, so
// only the exact instance is removed.
func (r *Registry) Remove(account model.Identifiable) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, a := range r.accounts {
		if a == account {
			r.accounts = append(r.accounts[:i], r.accounts[i+1:]...)
			return true
		}
	}
	return false
}

// ReplaceAll swaps the entire collection, used when restoring from the store.
func (r *Registry) ReplaceAll(accounts []model.Identifiable) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.accounts = make([]model.Identifiable, len(accounts))
	copy(r.accounts, accounts)
}
