package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"lottobox/storage"
)

type journalEntry struct {
	key     string
	prev    []byte
	existed bool
}

// Manager provides RLP-encoded keyed access to the node's state database.
// Writes are buffered in an overlay until Commit flushes them to the
// underlying store; Snapshot/RevertToSnapshot undo buffered writes so a
// failed operation leaves no partial state behind.
//
// The manager is not safe for concurrent use. The node serializes every
// state-mutating operation before touching it.
type Manager struct {
	db      storage.Database
	cache   map[string][]byte
	journal []journalEntry
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{
		db:    db,
		cache: make(map[string][]byte),
	}
}

// KVPut stores the provided value under the supplied key using RLP encoding.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	k := string(key)
	prev, existed := m.cache[k]
	m.journal = append(m.journal, journalEntry{key: k, prev: prev, existed: existed})
	m.cache[k] = encoded
	return nil
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the
// key existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, ok := m.cache[string(key)]
	if !ok {
		stored, err := m.db.Get(key)
		if err != nil {
			if err == storage.ErrNotFound {
				return false, nil
			}
			return false, err
		}
		data = stored
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// Snapshot returns a revision marker for the current overlay state.
func (m *Manager) Snapshot() int {
	return len(m.journal)
}

// RevertToSnapshot undoes every buffered write recorded after the provided
// revision marker.
func (m *Manager) RevertToSnapshot(rev int) {
	if rev < 0 || rev > len(m.journal) {
		return
	}
	for i := len(m.journal) - 1; i >= rev; i-- {
		entry := m.journal[i]
		if entry.existed {
			m.cache[entry.key] = entry.prev
		} else {
			delete(m.cache, entry.key)
		}
	}
	m.journal = m.journal[:rev]
}

// Commit flushes all buffered writes to the underlying database as one
// atomic batch and resets the journal. Committed state can no longer be
// reverted. On a storage failure nothing is flushed: the overlay and the
// journal stay intact, so the caller can still revert the operation.
func (m *Manager) Commit() error {
	if len(m.cache) == 0 {
		m.journal = m.journal[:0]
		return nil
	}
	if err := m.db.WriteBatch(m.cache); err != nil {
		return err
	}
	m.cache = make(map[string][]byte)
	m.journal = m.journal[:0]
	return nil
}
