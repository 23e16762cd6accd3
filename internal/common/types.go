package common

import (
	"github.com/google/uuid"
)

// HashResponse is returned after a typed-data message has been canonicalized
// and hashed.
type HashResponse struct {
	EntryID     uuid.UUID `json:"entryId"`
	PrimaryType string    `json:"primaryType"`
	EncodeType  string    `json:"encodeType"`
	DomainHash  string    `json:"domainHash"`
	MessageHash string    `json:"messageHash"`
	Digest      string    `json:"digest"`
}

// DomainQuery selects the domain separator fields from request query
// parameters. Empty fields are omitted from the generated domain schema
// entirely, never defaulted to zero values.
type DomainQuery struct {
	Name              string `schema:"name"`
	Version           string `schema:"version"`
	ChainID           string `schema:"chainId"`
	VerifyingContract string `schema:"verifyingContract"`
	Salt              string `schema:"salt"`
}

// DomainResponse carries the resolved domain separator.
type DomainResponse struct {
	EncodeType string `json:"encodeType"`
	DomainHash string `json:"domainHash"`
}
