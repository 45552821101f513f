// Package natives implements the fixed registry of built-in list operations
// invoked through CallNative, keyed by their '$'-prefixed symbolic name.
package natives

import (
	"fmt"

	"github.com/dolthub/swiss"
	"github.com/mna/dpr/lang/value"
)

// Func is a native function: given the shared object pool and the argument
// count and values, it returns the call's result. Natives may grow the
// object pool (e.g. allocating a new list).
type Func func(pool *value.Pool, argc int, args []value.Value) (value.Value, error)

// Error reports a native-call argument mismatch: wrong argc, or an argument
// of the wrong kind.
type Error struct {
	Native string
	Msg    string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Native, e.Msg) }

// Registry is the fixed name -> Func map. Backed by a swiss.Map, the same
// hash-map implementation used elsewhere in this module's dependency stack
// for small, string-keyed, read-mostly tables looked up on every call.
type Registry struct {
	m *swiss.Map[string, Func]
}

// Names lists every registered native in a stable, deterministic order
// (registration order), useful for diagnostics and tests.
var Names = []string{
	"$list",
	"$new_empty_list",
	"$list->get",
	"$list->set",
	"$list->push",
}

// New builds the registry with every built-in native bound.
func New() *Registry {
	m := swiss.NewMap[string, Func](uint32(len(Names)))
	m.Put("$list", list)
	m.Put("$new_empty_list", newEmptyList)
	m.Put("$list->get", listGet)
	m.Put("$list->set", listSet)
	m.Put("$list->push", listPush)
	return &Registry{m: m}
}

// Lookup returns the native bound to name, or false if name is not
// registered.
func (r *Registry) Lookup(name string) (Func, bool) {
	return r.m.Get(name)
}

// list builds a list value from argc arguments. Arguments arrive with the
// first-pushed (i.e. first in source order) at the bottom of the window, so
// building the result by iterating indices in reverse restores source
// order.
func list(pool *value.Pool, argc int, args []value.Value) (value.Value, error) {
	elems := make([]value.Value, argc)
	for i := 0; i < argc; i++ {
		elems[i] = args[argc-1-i]
	}
	return pool.NewList(elems), nil
}

// newEmptyList creates a list of a given length, optionally filled.
// $new_empty_list(n): args[0] is the length, fill defaults to Nil.
// $new_empty_list(fill, n): args[0] is the fill value, args[1] the length.
func newEmptyList(pool *value.Pool, argc int, args []value.Value) (value.Value, error) {
	switch argc {
	case 1:
		n, ok := intArg(args[0])
		if !ok {
			return value.Value{}, &Error{"$new_empty_list", "expected int at arg 0"}
		}
		elems := make([]value.Value, n)
		for i := range elems {
			elems[i] = value.NilValue()
		}
		return pool.NewList(elems), nil
	case 2:
		n, ok := intArg(args[1])
		if !ok {
			return value.Value{}, &Error{"$new_empty_list", "expected int at arg 1"}
		}
		fill := args[0]
		elems := make([]value.Value, n)
		for i := range elems {
			elems[i] = fill
		}
		return pool.NewList(elems), nil
	default:
		return value.Value{}, &Error{"$new_empty_list", "expected 1 or 2 arguments"}
	}
}

// listGet returns list[index]. args[0] is the index, args[1] the list.
func listGet(pool *value.Pool, argc int, args []value.Value) (value.Value, error) {
	if argc != 2 {
		return value.Value{}, &Error{"$list->get", "expected 2 arguments"}
	}
	idx, ok := intArg(args[0])
	if !ok {
		return value.Value{}, &Error{"$list->get", "expected int at arg 0"}
	}
	obj, ok := listArg(pool, args[1])
	if !ok {
		return value.Value{}, &Error{"$list->get", "expected list at arg 1"}
	}
	if idx < 0 || idx >= int64(len(obj.List)) {
		return value.Value{}, &Error{"$list->get", "index out of range"}
	}
	return obj.List[idx], nil
}

// listSet sets list[index] = value in place and returns value. args[0] is
// the value, args[1] the index, args[2] the list.
func listSet(pool *value.Pool, argc int, args []value.Value) (value.Value, error) {
	if argc != 3 {
		return value.Value{}, &Error{"$list->set", "expected 3 arguments"}
	}
	val := args[0]
	idx, ok := intArg(args[1])
	if !ok {
		return value.Value{}, &Error{"$list->set", "expected int at arg 1"}
	}
	obj, ok := listArg(pool, args[2])
	if !ok {
		return value.Value{}, &Error{"$list->set", "expected list at arg 2"}
	}
	if idx < 0 || idx >= int64(len(obj.List)) {
		return value.Value{}, &Error{"$list->set", "index out of range"}
	}
	obj.List[idx] = val
	return val, nil
}

// listPush appends value to list and returns Nil. args[0] is the value,
// args[1] the list.
func listPush(pool *value.Pool, argc int, args []value.Value) (value.Value, error) {
	if argc != 2 {
		return value.Value{}, &Error{"$list->push", "expected 2 arguments"}
	}
	val := args[0]
	obj, ok := listArg(pool, args[1])
	if !ok {
		return value.Value{}, &Error{"$list->push", "expected list at arg 1"}
	}
	obj.List = append(obj.List, val)
	return value.NilValue(), nil
}

func intArg(v value.Value) (int64, bool) {
	if v.Kind() != value.Int {
		return 0, false
	}
	return v.Int(), true
}

func listArg(pool *value.Pool, v value.Value) (*value.Object, bool) {
	if v.Kind() != value.Obj {
		return nil, false
	}
	obj := pool.Get(v.Handle())
	if obj.Kind != value.ListObj {
		return nil, false
	}
	return obj, true
}
