package manager

import (
	"typedhash/internal/common"
)

// HandleDigestEvent pushes a freshly computed digest to every websocket
// subscriber: DIGEST <DIGEST_HEX> <PRIMARY_TYPE>
func (m *Manager) HandleDigestEvent(entry *Entry) error {
	event := []byte(common.DIGEST_EVENT + " " + entry.Digest.Hex() + " " + entry.PrimaryType)
	m.Broadcast(event)
	return nil
}
