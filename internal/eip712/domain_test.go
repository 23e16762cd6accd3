package eip712

import (
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func addrptr(s string) *ethcommon.Address {
	a := ethcommon.HexToAddress(s)
	return &a
}

// mailDomain is the domain from the standard's reference vector.
func mailDomain(t *testing.T) *Instance {
	t.Helper()
	dom, err := MakeDomain(DomainParams{
		Name:              strptr("Ether Mail"),
		Version:           strptr("1"),
		ChainID:           uint256.NewInt(1),
		VerifyingContract: addrptr("0xCcCCccccCCCCcCCCCCCcCcCccCcCCCcCcccccccC"),
	})
	require.NoError(t, err)
	return dom
}

func TestMakeDomainOmitsAbsentFields(t *testing.T) {
	dom, err := MakeDomain(DomainParams{Name: strptr("x")})
	require.NoError(t, err)

	sig, err := dom.Def().EncodeType()
	require.NoError(t, err)
	require.Equal(t, "EIP712Domain(string name)", sig)
}

func TestMakeDomainRequiresAField(t *testing.T) {
	_, err := MakeDomain(DomainParams{})
	require.ErrorIs(t, err, ErrSchemaDefinition)
}

func TestMakeDomainNameAndSalt(t *testing.T) {
	salt := crypto.Keccak256([]byte("salt seed"))
	dom, err := MakeDomain(DomainParams{Name: strptr("name"), Salt: salt})
	require.NoError(t, err)

	sig, err := dom.Def().EncodeType()
	require.NoError(t, err)
	require.Equal(t, "EIP712Domain(string name,bytes32 salt)", sig)

	enc, err := dom.EncodeValue()
	require.NoError(t, err)
	require.Equal(t, append(crypto.Keccak256([]byte("name")), salt...), enc)
}

func TestMakeDomainAllFields(t *testing.T) {
	salt := crypto.Keccak256([]byte("another seed"))
	contract := addrptr("0xCcCCccccCCCCcCCCCCCcCcCccCcCCCcCcccccccC")
	dom, err := MakeDomain(DomainParams{
		Name:              strptr("name"),
		Version:           strptr("version"),
		ChainID:           uint256.NewInt(1),
		VerifyingContract: contract,
		Salt:              salt,
	})
	require.NoError(t, err)

	sig, err := dom.Def().EncodeType()
	require.NoError(t, err)
	require.Equal(t,
		"EIP712Domain(string name,string version,uint256 chainId,address verifyingContract,bytes32 salt)",
		sig)

	enc, err := dom.EncodeValue()
	require.NoError(t, err)
	var want []byte
	want = append(want, crypto.Keccak256([]byte("name"))...)
	want = append(want, crypto.Keccak256([]byte("version"))...)
	want = append(want, ethcommon.LeftPadBytes([]byte{1}, 32)...)
	want = append(want, ethcommon.LeftPadBytes(contract.Bytes(), 32)...)
	want = append(want, salt...)
	require.Equal(t, want, enc)
}

func TestReferenceVector(t *testing.T) {
	// The standard's published Mail/Person example, asserted literally.
	dom := mailDomain(t)
	domHash, err := dom.HashStruct()
	require.NoError(t, err)
	require.Equal(t, "0xf2cee375fa42b42143804025fc449deafd50cc031ca257e0b194a650a912090f", domHash.Hex())

	msg := mailInstance(t)
	digest, err := msg.SignableHash(dom)
	require.NoError(t, err)
	require.Equal(t, "0xbe609aee343fb3c4b28e1df9e632fca64fcfaede20f02e86244efddf30957bd2", digest.Hex())
}

func TestDefaultDomain(t *testing.T) {
	prev := DefaultDomain()
	SetDefaultDomain(nil)
	defer SetDefaultDomain(prev)

	msg := mailInstance(t)

	// With neither an explicit nor a default domain the digest cannot be
	// composed.
	_, err := msg.SignableHash(nil)
	require.ErrorIs(t, err, ErrResolution)
	_, err = msg.ToMessage(nil)
	require.ErrorIs(t, err, ErrResolution)

	dom := mailDomain(t)
	explicit, err := msg.SignableHash(dom)
	require.NoError(t, err)

	SetDefaultDomain(dom)
	implicit, err := msg.SignableHash(nil)
	require.NoError(t, err)
	require.Equal(t, explicit, implicit)

	// An explicit domain still wins over the default.
	other, err := MakeDomain(DomainParams{Name: strptr("other domain")})
	require.NoError(t, err)
	different, err := msg.SignableHash(other)
	require.NoError(t, err)
	require.NotEqual(t, implicit, different)
}
