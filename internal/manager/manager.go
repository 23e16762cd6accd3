package manager

import (
	"fmt"
	"log"

	"typedhash/internal/common"

	"github.com/imkira/go-ttlmap"
)

// Manager keeps recently hashed messages around for lookup by digest and
// fans digest events out to websocket subscribers.
type Manager struct {
	*common.Broadcaster

	entries *ttlmap.Map
	logger  *log.Logger
}

func NewManager(logger *log.Logger) *Manager {
	options := &ttlmap.Options{
		InitialCapacity: 32,
		OnWillExpire: func(key string, item ttlmap.Item) {
			logger.Printf("entry expired: %s", key)
		},
	}

	return &Manager{
		Broadcaster: common.NewBroadcaster(),
		entries:     ttlmap.New(options),
		logger:      logger,
	}
}

// SetEntry stores the entry under its digest for EntryTTL.
func (m *Manager) SetEntry(entry *Entry) error {
	key := entry.Digest.Hex()
	return m.entries.Set(key, ttlmap.NewItem(entry, ttlmap.WithTTL(EntryTTL)), nil)
}

// GetEntry looks an entry up by its 0x-prefixed digest hex.
func (m *Manager) GetEntry(digest string) (*Entry, error) {
	item, err := m.entries.Get(digest)
	if err != nil {
		return nil, fmt.Errorf("entry not found: %s", digest)
	}

	entry, ok := (item.Value()).(*Entry)
	if !ok || entry == nil {
		return nil, fmt.Errorf("invalid entry type for digest: %s", digest)
	}

	return entry, nil
}
