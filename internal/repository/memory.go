package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/mkaczor/bankapi/internal/model"
)

// MemoryRepository keeps documents in a map. It backs the handler tests and
// the memory store driver. Like the real stores it is keyed by identity, so
// duplicate keys collapse to the last one saved.
type MemoryRepository struct {
	mu   sync.Mutex
	docs map[string]accountDocument
}

// NewMemoryRepository creates an empty in-memory store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{docs: make(map[string]accountDocument)}
}

// SaveAll replaces the stored documents with the given accounts.
func (r *MemoryRepository) SaveAll(_ context.Context, accounts []model.Identifiable) error {
	docs := make(map[string]accountDocument, len(accounts))
	for _, account := range accounts {
		doc, err := encodeAccount(account)
		if err != nil {
			return err
		}
		docs[doc.key()] = doc
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = docs
	return nil
}

// LoadAll reconstructs every stored account, ordered by identity key so the
// result is deterministic.
func (r *MemoryRepository) LoadAll(_ context.Context) ([]model.Identifiable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(r.docs))
	for key := range r.docs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	accounts := make([]model.Identifiable, 0, len(r.docs))
	for _, key := range keys {
		account, err := decodeAccount(r.docs[key])
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}
