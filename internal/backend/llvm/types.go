package llvm

import (
	"strings"

	"github.com/llir/llvm/ir/types"
)

// Slot is a resolved registry entry: the key it is stored under and the
// backend type handle.
type Slot struct {
	Key  string
	Type types.Type
}

// internalKeyPrefix marks entries that do not come from a Sierra declaration.
// Sierra keys are decimal, so the two never collide.
const internalKeyPrefix = "$"

const wideFeltKey = internalKeyPrefix + "felt.wide"

// typeRegistry maps declaration keys to backend types. It is append-only:
// an entry is never replaced or removed during a compilation.
type typeRegistry struct {
	entries map[string]types.Type
	order   []string
	// byName records the first key declared for each builtin generic id.
	byName map[string]string
}

func newTypeRegistry() *typeRegistry {
	return &typeRegistry{
		entries: make(map[string]types.Type, 16),
		byName:  make(map[string]string, 8),
	}
}

// insert stores typ under key and mirrors it into dbg (a nil mirror is a
// no-op). The caller must ensure key is new.
func (r *typeRegistry) insert(dbg *debugMirror, key, debugName string, typ types.Type) {
	r.entries[key] = typ
	r.order = append(r.order, key)
	dbg.insertType(key, debugName, bitSize(typ))
}

// alias stores the handle of innerKey under key. The inner entry must exist.
func (r *typeRegistry) alias(dbg *debugMirror, key, innerKey, debugName string) bool {
	inner, ok := r.entries[innerKey]
	if !ok {
		return false
	}
	r.entries[key] = inner
	r.order = append(r.order, key)
	dbg.aliasType(key, innerKey, debugName)
	return true
}

func (r *typeRegistry) nameKey(genericID, key string) {
	if _, ok := r.byName[genericID]; !ok {
		r.byName[genericID] = key
	}
}

func (r *typeRegistry) lookup(key string) (Slot, bool) {
	typ, ok := r.entries[key]
	if !ok {
		return Slot{}, false
	}
	return Slot{Key: key, Type: typ}, true
}

func (r *typeRegistry) lookupName(genericID string) (Slot, bool) {
	key, ok := r.byName[genericID]
	if !ok {
		return Slot{}, false
	}
	return r.lookup(key)
}

func (r *typeRegistry) has(key string) bool {
	_, ok := r.entries[key]
	return ok
}

// keys returns Sierra keys in declaration order, internal entries excluded.
func (r *typeRegistry) keys() []string {
	out := make([]string, 0, len(r.order))
	for _, key := range r.order {
		if strings.HasPrefix(key, internalKeyPrefix) {
			continue
		}
		out = append(out, key)
	}
	return out
}

func bitSize(typ types.Type) uint64 {
	if it, ok := typ.(*types.IntType); ok {
		return it.BitSize
	}
	return 0
}

// intTypeForGeneric maps builtin integer generic ids to backend types.
func intTypeForGeneric(genericID string) (*types.IntType, bool) {
	switch genericID {
	case "u8":
		return types.I8, true
	case "u16":
		return types.I16, true
	case "u32":
		return types.I32, true
	case "u64":
		return types.I64, true
	case "u128":
		return types.I128, true
	default:
		return nil, false
	}
}
