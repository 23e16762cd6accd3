package eip712

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// TypeMember describes one member inside a TypedMessage's type table.
type TypeMember struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TypedMessage is the standard wire/display representation of a typed-data
// message: the full type table, the primary type's name, and the domain and
// message values. It marshals to the JSON layout wallets expect.
type TypedMessage struct {
	Types       map[string][]TypeMember `json:"types"`
	PrimaryType string                  `json:"primaryType"`
	Domain      map[string]any          `json:"domain"`
	Message     map[string]any          `json:"message"`
}

// ToMessage renders the instance and its domain in the standard message
// layout. The type table carries the primary schema, the domain schema, and
// every schema either of them transitively references.
func (i *Instance) ToMessage(domain *Instance) (*TypedMessage, error) {
	dom, err := resolveDomain(domain)
	if err != nil {
		return nil, err
	}
	defs, err := i.def.resolve()
	if err != nil {
		return nil, err
	}
	domDefs, err := dom.def.resolve()
	if err != nil {
		return nil, err
	}
	for name, def := range domDefs {
		if seen, ok := defs[name]; ok && seen.fragment() != def.fragment() {
			return nil, fmt.Errorf("%w: two schemas named %s in one resolution", ErrResolution, name)
		}
		defs[name] = def
	}
	types := make(map[string][]TypeMember, len(defs))
	for name, def := range defs {
		members := make([]TypeMember, 0, len(def.members))
		for _, m := range def.members {
			members = append(members, TypeMember{Name: m.Name, Type: m.Type.TypeName()})
		}
		types[name] = members
	}
	return &TypedMessage{
		Types:       types,
		PrimaryType: i.def.name,
		Domain:      dom.DataMap(),
		Message:     i.DataMap(),
	}, nil
}

// DataMap returns the instance's values as a plain map, nested instances
// included in map form. Byte values render as 0x-hex strings and big
// integers as decimal strings, so the result marshals cleanly to JSON and
// round-trips through FromMessage.
func (i *Instance) DataMap() map[string]any {
	out := make(map[string]any, len(i.values))
	for name, value := range i.values {
		out[name] = wireValue(value)
	}
	return out
}

func wireValue(value any) any {
	switch v := value.(type) {
	case *Instance:
		return v.DataMap()
	case []any:
		out := make([]any, len(v))
		for idx, elem := range v {
			out[idx] = wireValue(elem)
		}
		return out
	case []byte:
		return hexutil.Encode(v)
	case ethcommon.Hash:
		return v.Hex()
	case ethcommon.Address:
		return v.Hex()
	case *big.Int:
		return v.String()
	case *uint256.Int:
		return v.Dec()
	default:
		return v
	}
}

// FromMessage is the inverse of ToMessage: it rebuilds the message and
// domain instances from a wire message, materializing nested struct and
// array values against the schemas declared in the type table. Member types
// naming a type absent from the table are an error.
func FromMessage(msg *TypedMessage) (message, domain *Instance, err error) {
	if msg == nil {
		return nil, nil, fmt.Errorf("%w: nil message", ErrValidation)
	}
	defs := make(map[string]*StructDef, len(msg.Types))
	for name := range msg.Types {
		defs[name] = NewStruct(name)
	}
	for name, members := range msg.Types {
		for _, m := range members {
			typ, err := memberTypeFromName(m.Type, defs)
			if err != nil {
				return nil, nil, fmt.Errorf("type %s, member %s: %w", name, m.Name, err)
			}
			if err := defs[name].AddMember(m.Name, typ); err != nil {
				return nil, nil, err
			}
		}
	}
	primary, ok := defs[msg.PrimaryType]
	if !ok {
		return nil, nil, fmt.Errorf("%w: primary type %q is not declared in the type table", ErrResolution, msg.PrimaryType)
	}
	domainDef, ok := defs[DomainTypeName]
	if !ok {
		return nil, nil, fmt.Errorf("%w: message carries no %s type", ErrResolution, DomainTypeName)
	}
	message, err = primary.NewInstance(msg.Message)
	if err != nil {
		return nil, nil, err
	}
	domain, err = domainDef.NewInstance(msg.Domain)
	if err != nil {
		return nil, nil, err
	}
	return message, domain, nil
}

var structRefPattern = regexp.MustCompile(`^([A-Za-z0-9_]+)(\[([0-9]+)?\])?$`)

// memberTypeFromName resolves a type-table member type name: either a
// primitive solidity type or a (possibly array-wrapped) reference to
// another declared schema.
func memberTypeFromName(name string, defs map[string]*StructDef) (Type, error) {
	typ, ok, err := parsePrimitive(name)
	if err != nil {
		return nil, err
	}
	if ok {
		return typ, nil
	}
	match := structRefPattern.FindStringSubmatch(name)
	if match == nil {
		return nil, fmt.Errorf("%w: %q is not a valid type name", ErrResolution, name)
	}
	ref, ok := defs[match[1]]
	if !ok {
		return nil, fmt.Errorf("%w: %q references undeclared type %s", ErrResolution, name, match[1])
	}
	if match[2] == "" {
		return ref, nil
	}
	length := 0
	if match[3] != "" {
		length, _ = strconv.Atoi(match[3])
	}
	return Array(ref, length)
}

var primitivePattern = regexp.MustCompile(`^([a-z]+)([0-9]+)?(\[([0-9]+)?\])?$`)

// parsePrimitive converts a solidity-style type name into its member type.
// The second result is false when the base name is not a primitive, leaving
// the name to be resolved as a struct reference.
func parsePrimitive(name string) (Type, bool, error) {
	match := primitivePattern.FindStringSubmatch(name)
	if match == nil {
		return nil, false, nil
	}
	base, width := match[1], match[2]
	var (
		typ Type
		err error
	)
	switch base {
	case "address", "bool", "string":
		if width != "" {
			return nil, false, fmt.Errorf("%w: %q is not a valid type name", ErrResolution, name)
		}
		switch base {
		case "address":
			typ = Address()
		case "bool":
			typ = Boolean()
		default:
			typ = String()
		}
	case "bytes":
		length := 0
		if width != "" {
			length, _ = strconv.Atoi(width)
		}
		typ, err = Bytes(length)
	case "int", "uint":
		bits := 256
		if width != "" {
			bits, _ = strconv.Atoi(width)
		}
		if base == "int" {
			typ, err = Int(bits)
		} else {
			typ, err = Uint(bits)
		}
	default:
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if match[3] != "" {
		length := 0
		if match[4] != "" {
			length, _ = strconv.Atoi(match[4])
		}
		typ, err = Array(typ, length)
		if err != nil {
			return nil, false, err
		}
	}
	return typ, true, nil
}
