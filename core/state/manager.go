package state

import (
	"errors"
	"fmt"
	"sort"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"nutvest/storage"
)

// Manager reads and writes RLP encoded module records. Every key is hashed
// with keccak256 before it reaches the database.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func composeKey(prefix []byte, parts ...[]byte) []byte {
	size := len(prefix)
	for _, p := range parts {
		size += len(p) + 1
	}
	buf := make([]byte, 0, size)
	buf = append(buf, prefix...)
	for i, p := range parts {
		if i > 0 {
			buf = append(buf, ':')
		}
		buf = append(buf, p...)
	}
	return ethcrypto.Keccak256(buf)
}

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

func (m *Manager) get(key []byte) ([]byte, error) {
	if m == nil || m.db == nil {
		return nil, fmt.Errorf("state manager unavailable")
	}
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return data, err
}

func (m *Manager) put(key []byte, value interface{}) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state manager unavailable")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

func (m *Manager) delete(key []byte) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state manager unavailable")
	}
	return m.db.Delete(key)
}

// load decodes the record under key into out. The boolean reports whether
// the record existed.
func (m *Manager) load(key []byte, out interface{}) (bool, error) {
	data, err := m.get(key)
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVPut stores an arbitrary RLP encodable value under the supplied key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	return m.put(kvKey(key), value)
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	if out == nil {
		data, err := m.get(kvKey(key))
		return len(data) > 0, err
	}
	return m.load(kvKey(key), out)
}

// KVAppend appends the value to the sorted string set stored under key.
// Duplicate values are ignored to keep the index deterministic.
func (m *Manager) KVAppend(key []byte, value string) error {
	var list []string
	if _, err := m.KVGet(key, &list); err != nil {
		return err
	}
	idx := sort.SearchStrings(list, value)
	if idx < len(list) && list[idx] == value {
		return nil
	}
	list = append(list, "")
	copy(list[idx+1:], list[idx:])
	list[idx] = value
	return m.KVPut(key, list)
}

// KVGetList returns the string set stored under key.
func (m *Manager) KVGetList(key []byte) ([]string, error) {
	var list []string
	if _, err := m.KVGet(key, &list); err != nil {
		return nil, err
	}
	return list, nil
}
