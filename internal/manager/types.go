package manager

import (
	"time"

	"typedhash/internal/eip712"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// Entry is one hashed typed-data message held by the manager, keyed by its
// signable digest.
type Entry struct {
	EntryID     uuid.UUID
	Digest      ethcommon.Hash
	PrimaryType string
	Message     *eip712.TypedMessage
	ReceivedAt  time.Time
}
