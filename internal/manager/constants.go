package manager

import (
	"time"
)

// EntryTTL defines the time-to-live for hashed messages in the manager.
const (
	EntryTTL = time.Minute * 15
)
