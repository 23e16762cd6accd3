package eip712

import (
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// DomainTypeName is the reserved schema name for the signing domain.
const DomainTypeName = "EIP712Domain"

// Signable digests carry the standard's fixed version prefix.
var digestPrefix = []byte{0x19, 0x01}

// DomainParams selects the domain fields to include. A nil field (or empty
// salt) is omitted from the generated schema and instance entirely, not
// encoded as a zero value.
type DomainParams struct {
	Name              *string
	Version           *string
	ChainID           *uint256.Int
	VerifyingContract *ethcommon.Address
	Salt              []byte
}

// MakeDomain builds the EIP712Domain schema and instance for the given
// fields. At least one field must be supplied.
func MakeDomain(params DomainParams) (*Instance, error) {
	def := NewStruct(DomainTypeName)
	values := make(map[string]any)
	if params.Name != nil {
		if err := def.AddMember("name", String()); err != nil {
			return nil, err
		}
		values["name"] = *params.Name
	}
	if params.Version != nil {
		if err := def.AddMember("version", String()); err != nil {
			return nil, err
		}
		values["version"] = *params.Version
	}
	if params.ChainID != nil {
		if err := def.AddMember("chainId", uintType{bits: 256}); err != nil {
			return nil, err
		}
		values["chainId"] = params.ChainID
	}
	if params.VerifyingContract != nil {
		if err := def.AddMember("verifyingContract", Address()); err != nil {
			return nil, err
		}
		values["verifyingContract"] = *params.VerifyingContract
	}
	if len(params.Salt) > 0 {
		if err := def.AddMember("salt", bytesType{length: 32}); err != nil {
			return nil, err
		}
		values["salt"] = params.Salt
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: at least one domain field must be given", ErrSchemaDefinition)
	}
	return def.NewInstance(values)
}

// defaultDomain is process-wide, last-writer-wins mutable state. Callers
// needing determinism must pass the domain explicitly.
var defaultDomain *Instance

// SetDefaultDomain installs the domain consulted when an operation is
// invoked without an explicit one. Not safe for concurrent mutation.
func SetDefaultDomain(domain *Instance) { defaultDomain = domain }

// DefaultDomain returns the current process-wide default domain, or nil.
func DefaultDomain() *Instance { return defaultDomain }

func resolveDomain(domain *Instance) (*Instance, error) {
	if domain != nil {
		return domain, nil
	}
	if defaultDomain != nil {
		return defaultDomain, nil
	}
	return nil, fmt.Errorf("%w: no domain given and no default domain set", ErrResolution)
}

// SignableHash composes the final 32-byte signing digest for the instance:
// keccak256(0x19 0x01 || hashStruct(domain) || hashStruct(message)). With a
// nil domain the process-wide default domain is consulted.
func (i *Instance) SignableHash(domain *Instance) (ethcommon.Hash, error) {
	dom, err := resolveDomain(domain)
	if err != nil {
		return ethcommon.Hash{}, err
	}
	domHash, err := dom.HashStruct()
	if err != nil {
		return ethcommon.Hash{}, fmt.Errorf("domain: %w", err)
	}
	msgHash, err := i.HashStruct()
	if err != nil {
		return ethcommon.Hash{}, err
	}
	return crypto.Keccak256Hash(digestPrefix, domHash.Bytes(), msgHash.Bytes()), nil
}
