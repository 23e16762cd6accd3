package eip712

import (
	"fmt"
	"sort"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Member is a single named, typed slot of a struct schema.
type Member struct {
	Name string
	Type Type
}

// StructDef is a named, ordered struct schema. Members may be added until
// the schema is first used in a resolve or encode operation, after which it
// is sealed and further mutation fails. Sealing is a
// single-writer-then-many-readers contract and is not synchronized
// internally.
//
// StructDef implements Type, so a schema can be used directly as the member
// type of another schema (or as an array element type) for nesting.
type StructDef struct {
	name    string
	members []Member
	sealed  bool
}

// NewStruct declares an empty schema with the given type name. The name
// identifies the type: two schemas with the same name are the same type
// within one resolution, and must therefore carry the same members.
func NewStruct(name string) *StructDef {
	return &StructDef{name: name}
}

// Name returns the schema's type name.
func (d *StructDef) Name() string { return d.name }

// TypeName implements Type.
func (d *StructDef) TypeName() string { return d.name }

// Members returns the declared members in declaration order.
func (d *StructDef) Members() []Member {
	out := make([]Member, len(d.members))
	copy(out, d.members)
	return out
}

// AddMember appends a member to the schema.
func (d *StructDef) AddMember(name string, typ Type) error {
	if d.sealed {
		return fmt.Errorf("%w: %s is sealed, members can no longer be added", ErrSchemaDefinition, d.name)
	}
	if name == "" {
		return fmt.Errorf("%w: member name must not be empty", ErrSchemaDefinition)
	}
	if typ == nil {
		return fmt.Errorf("%w: member %s.%s has no type", ErrSchemaDefinition, d.name, name)
	}
	for _, m := range d.members {
		if m.Name == name {
			return fmt.Errorf("%w: duplicate member %s.%s", ErrSchemaDefinition, d.name, name)
		}
	}
	d.members = append(d.members, Member{Name: name, Type: typ})
	return nil
}

func (d *StructDef) seal() { d.sealed = true }

func (d *StructDef) member(name string) *Member {
	for idx := range d.members {
		if d.members[idx].Name == name {
			return &d.members[idx]
		}
	}
	return nil
}

// fragment renders this schema's own signature piece, e.g.
// "Mail(Person from,Person to,string contents)". A schema with no members
// renders "Name()".
func (d *StructDef) fragment() string {
	var sb strings.Builder
	sb.WriteString(d.name)
	sb.WriteByte('(')
	for i, m := range d.members {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(m.Type.TypeName())
		sb.WriteByte(' ')
		sb.WriteString(m.Name)
	}
	sb.WriteByte(')')
	return sb.String()
}

// structRef unwraps a member type down to the struct schema it references,
// or nil for primitive members. Arrays are unwrapped through any nesting
// depth.
func structRef(typ Type) *StructDef {
	for {
		switch t := typ.(type) {
		case *StructDef:
			return t
		case arrayType:
			typ = t.elem
		default:
			return nil
		}
	}
}

// gatherRefs walks the member graph depth first, adding every struct schema
// reachable from d to found. Re-entering a schema already on the walk stack
// means the graph is cyclic, which is rejected. Schemas visited along the
// way are sealed.
func (d *StructDef) gatherRefs(found map[string]*StructDef, stack map[string]bool) error {
	d.seal()
	stack[d.name] = true
	for _, m := range d.members {
		ref := structRef(m.Type)
		if ref == nil {
			continue
		}
		if stack[ref.name] {
			return fmt.Errorf("%w: cyclic reference to %s via %s.%s", ErrResolution, ref.name, d.name, m.Name)
		}
		if seen, ok := found[ref.name]; ok {
			if seen.fragment() != ref.fragment() {
				return fmt.Errorf("%w: two schemas named %s in one resolution", ErrResolution, ref.name)
			}
			continue
		}
		found[ref.name] = ref
		if err := ref.gatherRefs(found, stack); err != nil {
			return err
		}
	}
	delete(stack, d.name)
	return nil
}

// resolve returns every schema in d's type graph keyed by name, d included.
func (d *StructDef) resolve() (map[string]*StructDef, error) {
	found := map[string]*StructDef{d.name: d}
	if err := d.gatherRefs(found, make(map[string]bool)); err != nil {
		return nil, err
	}
	return found, nil
}

// EncodeType renders the canonical type signature: the root schema's
// fragment first, then the fragment of every transitively referenced schema
// sorted by byte-wise name order.
func (d *StructDef) EncodeType() (string, error) {
	refs, err := d.resolve()
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(refs))
	for name := range refs {
		if name != d.name {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	var sb strings.Builder
	sb.WriteString(d.fragment())
	for _, name := range names {
		sb.WriteString(refs[name].fragment())
	}
	return sb.String(), nil
}

// TypeHash returns keccak256 of the schema's encoded type signature.
func (d *StructDef) TypeHash() (ethcommon.Hash, error) {
	et, err := d.EncodeType()
	if err != nil {
		return ethcommon.Hash{}, err
	}
	return crypto.Keccak256Hash([]byte(et)), nil
}

// EncodeValue implements Type: a struct-typed member contributes the
// referenced instance's struct hash, never the raw concatenation of its own
// member slots. The value may be an *Instance of this schema or a value map
// that is materialized into one.
func (d *StructDef) EncodeValue(value any) ([]byte, error) {
	inst, err := d.instanceOf(value)
	if err != nil {
		return nil, err
	}
	h, err := inst.HashStruct()
	if err != nil {
		return nil, err
	}
	return h.Bytes(), nil
}

func (d *StructDef) instanceOf(value any) (*Instance, error) {
	switch v := value.(type) {
	case *Instance:
		if v.def.fragment() != d.fragment() {
			return nil, fmt.Errorf("%w: expected a %s instance, got %s", ErrValidation, d.name, v.def.name)
		}
		return v, nil
	case map[string]any:
		return d.NewInstance(v)
	default:
		return nil, fmt.Errorf("%w: expected a %s instance or value map, got %T", ErrValidation, d.name, value)
	}
}

// Instance binds concrete values to a schema's members. Instances are
// per-message and disposable; encoding them is a pure function of
// (schema, values).
type Instance struct {
	def    *StructDef
	values map[string]any
}

// NewInstance creates an instance of the schema and assigns the given
// member values. Values for struct-typed members may be given as nested
// value maps, which are materialized recursively. The schema is sealed.
func (d *StructDef) NewInstance(values map[string]any) (*Instance, error) {
	d.seal()
	inst := &Instance{def: d, values: make(map[string]any, len(d.members))}
	for name, value := range values {
		if err := inst.Set(name, value); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

// Def returns the instance's schema.
func (i *Instance) Def() *StructDef { return i.def }

// Get returns the value assigned to the named member, or nil if unset.
func (i *Instance) Get(name string) (any, error) {
	if i.def.member(name) == nil {
		return nil, fmt.Errorf("%w: %s has no member %q", ErrValidation, i.def.name, name)
	}
	return i.values[name], nil
}

// Set validates value against the member's declared type and assigns it.
func (i *Instance) Set(name string, value any) error {
	m := i.def.member(name)
	if m == nil {
		return fmt.Errorf("%w: %s has no member %q", ErrValidation, i.def.name, name)
	}
	coerced, err := coerceValue(m.Type, value)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", i.def.name, name, err)
	}
	i.values[name] = coerced
	return nil
}

// coerceValue validates a value for a member type eagerly, materializing
// value maps into struct instances (recursively through arrays).
func coerceValue(typ Type, value any) (any, error) {
	switch t := typ.(type) {
	case *StructDef:
		return t.instanceOf(value)
	case arrayType:
		elems, err := toSlice(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s requires a slice value, got %T", ErrValidation, t.TypeName(), value)
		}
		if t.fixedLength != 0 && len(elems) != t.fixedLength {
			return nil, fmt.Errorf("%w: %s requires exactly %d elements, got %d", ErrValidation, t.TypeName(), t.fixedLength, len(elems))
		}
		out := make([]any, len(elems))
		for idx, elem := range elems {
			coerced, err := coerceValue(t.elem, elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			out[idx] = coerced
		}
		return out, nil
	default:
		if _, err := typ.EncodeValue(value); err != nil {
			return nil, err
		}
		return value, nil
	}
}

// EncodeValue returns the raw encoded value: each member's 32-byte slot
// concatenated in declaration order, exactly 32*len(members) bytes. Every
// declared member must have a value.
func (i *Instance) EncodeValue() ([]byte, error) {
	buf := make([]byte, 0, 32*len(i.def.members))
	for _, m := range i.def.members {
		value, ok := i.values[m.Name]
		if !ok || value == nil {
			return nil, fmt.Errorf("%w: missing value for %s.%s", ErrValidation, i.def.name, m.Name)
		}
		enc, err := m.Type.EncodeValue(value)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", i.def.name, m.Name, err)
		}
		buf = append(buf, enc...)
	}
	return buf, nil
}

// HashStruct returns keccak256(typeHash || encodeValue).
func (i *Instance) HashStruct() (ethcommon.Hash, error) {
	th, err := i.def.TypeHash()
	if err != nil {
		return ethcommon.Hash{}, err
	}
	enc, err := i.EncodeValue()
	if err != nil {
		return ethcommon.Hash{}, err
	}
	return crypto.Keccak256Hash(th.Bytes(), enc), nil
}

// Equal reports whether both instances carry the same type signature and
// encode to identical bytes.
func (i *Instance) Equal(other *Instance) bool {
	if other == nil {
		return false
	}
	if i == other {
		return true
	}
	selfType, err := i.def.EncodeType()
	if err != nil {
		return false
	}
	otherType, err := other.def.EncodeType()
	if err != nil || selfType != otherType {
		return false
	}
	selfEnc, err := i.EncodeValue()
	if err != nil {
		return false
	}
	otherEnc, err := other.EncodeValue()
	if err != nil {
		return false
	}
	return string(selfEnc) == string(otherEnc)
}
