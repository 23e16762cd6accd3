package eip712

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"reflect"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
	ethmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Type is a member type of a struct schema. Every implementation can render
// its canonical solidity-style name and encode a concrete value into the
// 32-byte slot used inside a parent struct's value encoding.
type Type interface {
	TypeName() string
	EncodeValue(value any) ([]byte, error)
}

// Address returns the 20-byte EVM address type.
func Address() Type { return addressType{} }

// Boolean returns the bool type.
func Boolean() Type { return booleanType{} }

// String returns the dynamic UTF-8 string type.
func String() Type { return stringType{} }

// Bytes returns the bytesN type for length 1..32, or the dynamic bytes type
// for length 0.
func Bytes(length int) (Type, error) {
	if length < 0 || length > 32 {
		return nil, fmt.Errorf("%w: byte length must be between 0 and 32, got %d", ErrSchemaDefinition, length)
	}
	return bytesType{length: length}, nil
}

// Int returns the signed intN type. Bits must be a multiple of 8 between 8
// and 256.
func Int(bits int) (Type, error) {
	if err := checkBits(bits); err != nil {
		return nil, err
	}
	return intType{bits: bits}, nil
}

// Uint returns the unsigned uintN type. Bits must be a multiple of 8 between
// 8 and 256.
func Uint(bits int) (Type, error) {
	if err := checkBits(bits); err != nil {
		return nil, err
	}
	return uintType{bits: bits}, nil
}

// Array returns an array of elem. With no fixedLength argument (or 0) the
// array is dynamic; otherwise instances must carry exactly fixedLength
// elements.
func Array(elem Type, fixedLength ...int) (Type, error) {
	if elem == nil {
		return nil, fmt.Errorf("%w: array element type is nil", ErrSchemaDefinition)
	}
	length := 0
	if len(fixedLength) > 0 {
		length = fixedLength[0]
	}
	if length < 0 {
		return nil, fmt.Errorf("%w: array length must not be negative, got %d", ErrSchemaDefinition, length)
	}
	return arrayType{elem: elem, fixedLength: length}, nil
}

func checkBits(bits int) error {
	if bits < 8 || bits > 256 || bits%8 != 0 {
		return fmt.Errorf("%w: bit width must be a multiple of 8 between 8 and 256, got %d", ErrSchemaDefinition, bits)
	}
	return nil
}

type addressType struct{}

func (addressType) TypeName() string { return "address" }

func (addressType) EncodeValue(value any) ([]byte, error) {
	addr, err := toAddress(value)
	if err != nil {
		return nil, err
	}
	return ethcommon.LeftPadBytes(addr.Bytes(), 32), nil
}

type booleanType struct{}

func (booleanType) TypeName() string { return "bool" }

func (booleanType) EncodeValue(value any) ([]byte, error) {
	b, ok := value.(bool)
	if !ok {
		return nil, fmt.Errorf("%w: bool requires a bool value, got %T", ErrValidation, value)
	}
	out := make([]byte, 32)
	if b {
		out[31] = 1
	}
	return out, nil
}

type stringType struct{}

func (stringType) TypeName() string { return "string" }

func (stringType) EncodeValue(value any) ([]byte, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("%w: string requires a string value, got %T", ErrValidation, value)
	}
	return crypto.Keccak256([]byte(s)), nil
}

type bytesType struct {
	length int // 0 means dynamic
}

func (t bytesType) TypeName() string {
	if t.length == 0 {
		return "bytes"
	}
	return fmt.Sprintf("bytes%d", t.length)
}

func (t bytesType) EncodeValue(value any) ([]byte, error) {
	b, err := toBytes(value)
	if err != nil {
		return nil, err
	}
	if t.length == 0 {
		// Dynamic bytes are represented by the hash of their content.
		return crypto.Keccak256(b), nil
	}
	if len(b) > t.length {
		return nil, fmt.Errorf("%w: %s was given %d bytes", ErrValidation, t.TypeName(), len(b))
	}
	return ethcommon.RightPadBytes(b, 32), nil
}

type uintType struct {
	bits int
}

func (t uintType) TypeName() string { return fmt.Sprintf("uint%d", t.bits) }

func (t uintType) EncodeValue(value any) ([]byte, error) {
	v, err := toBigInt(value)
	if err != nil {
		return nil, err
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s must not be negative, got %s", ErrValidation, t.TypeName(), v)
	}
	if v.BitLen() > t.bits {
		return nil, fmt.Errorf("%w: %s out of range: %s", ErrValidation, t.TypeName(), v)
	}
	return ethmath.PaddedBigBytes(v, 32), nil
}

type intType struct {
	bits int
}

func (t intType) TypeName() string { return fmt.Sprintf("int%d", t.bits) }

func (t intType) EncodeValue(value any) ([]byte, error) {
	v, err := toBigInt(value)
	if err != nil {
		return nil, err
	}
	// Two's complement range: -2^(bits-1) <= v < 2^(bits-1).
	limit := new(big.Int).Lsh(big.NewInt(1), uint(t.bits-1))
	if v.Cmp(new(big.Int).Neg(limit)) < 0 || v.Cmp(limit) >= 0 {
		return nil, fmt.Errorf("%w: %s out of range: %s", ErrValidation, t.TypeName(), v)
	}
	return ethmath.U256Bytes(new(big.Int).Set(v)), nil
}

type arrayType struct {
	elem        Type
	fixedLength int // 0 means dynamic
}

func (t arrayType) TypeName() string {
	if t.fixedLength == 0 {
		return t.elem.TypeName() + "[]"
	}
	return fmt.Sprintf("%s[%d]", t.elem.TypeName(), t.fixedLength)
}

func (t arrayType) EncodeValue(value any) ([]byte, error) {
	elems, err := toSlice(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s requires a slice value, got %T", ErrValidation, t.TypeName(), value)
	}
	if t.fixedLength != 0 && len(elems) != t.fixedLength {
		return nil, fmt.Errorf("%w: %s requires exactly %d elements, got %d", ErrValidation, t.TypeName(), t.fixedLength, len(elems))
	}
	// An array encodes as the hash of its concatenated element slots; an
	// empty array hashes the empty byte sequence.
	buf := make([]byte, 0, 32*len(elems))
	for i, elem := range elems {
		enc, err := t.elem.EncodeValue(elem)
		if err != nil {
			return nil, fmt.Errorf("element %d of %s: %w", i, t.TypeName(), err)
		}
		buf = append(buf, enc...)
	}
	return crypto.Keccak256(buf), nil
}

// toSlice normalizes any slice or array value into []any.
func toSlice(value any) ([]any, error) {
	if elems, ok := value.([]any); ok {
		return elems, nil
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, fmt.Errorf("not a slice")
	}
	elems := make([]any, rv.Len())
	for i := range elems {
		elems[i] = rv.Index(i).Interface()
	}
	return elems, nil
}

func toAddress(value any) (ethcommon.Address, error) {
	switch v := value.(type) {
	case ethcommon.Address:
		return v, nil
	case string:
		if !ethcommon.IsHexAddress(v) {
			return ethcommon.Address{}, fmt.Errorf("%w: %q is not a hex address", ErrValidation, v)
		}
		return ethcommon.HexToAddress(v), nil
	case []byte:
		if len(v) != ethcommon.AddressLength {
			return ethcommon.Address{}, fmt.Errorf("%w: address requires %d bytes, got %d", ErrValidation, ethcommon.AddressLength, len(v))
		}
		return ethcommon.BytesToAddress(v), nil
	default:
		return ethcommon.Address{}, fmt.Errorf("%w: cannot use %T as an address", ErrValidation, value)
	}
}

func toBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case ethcommon.Hash:
		return v.Bytes(), nil
	case string:
		s := strings.TrimPrefix(v, "0x")
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not valid hex: %v", ErrValidation, v, err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: cannot use %T as bytes", ErrValidation, value)
	}
}

func toBigInt(value any) (*big.Int, error) {
	switch v := value.(type) {
	case int:
		return big.NewInt(int64(v)), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	case uint:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case float64:
		// JSON numbers decode as float64; only integral values are valid.
		if v != float64(int64(v)) {
			return nil, fmt.Errorf("%w: %v is not an integer", ErrValidation, v)
		}
		return big.NewInt(int64(v)), nil
	case *big.Int:
		return v, nil
	case *uint256.Int:
		return v.ToBig(), nil
	case string:
		base := 10
		s := v
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			base = 16
			s = s[2:]
		}
		n, ok := new(big.Int).SetString(s, base)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrValidation, v)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("%w: cannot use %T as an integer", ErrValidation, value)
	}
}
