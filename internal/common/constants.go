package common

// Websocket event tags pushed to subscribers.
const (
	// Digest event: DIGEST <DIGEST_HEX> <PRIMARY_TYPE>
	DIGEST_EVENT = "DIGEST"
)
