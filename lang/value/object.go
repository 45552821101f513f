package value

import "fmt"

// ObjectKind tags the variant held by an Object.
type ObjectKind uint8

const (
	StringObj ObjectKind = iota
	ListObj
)

// Object is a heap-allocated value owned by a Pool. Only String and List
// live here; a compiled Function is a distinct table entry addressed by
// Value.Function, not an Object (see §3 of the data model).
type Object struct {
	Kind ObjectKind
	Str  string
	List []Value
}

func (o *Object) String() string {
	switch o.Kind {
	case StringObj:
		return o.Str
	case ListObj:
		parts := make([]string, len(o.List))
		for i, v := range o.List {
			parts[i] = ToString(v)
		}
		return fmt.Sprintf("%v", parts)
	default:
		return ""
	}
}

// Pool is the monotonically growing vector of heap objects addressed by
// integer handle; handles are never recycled within a run.
type Pool struct {
	objects []Object
}

// NewString allocates a new String object and returns its handle wrapped as
// a Value.
func (p *Pool) NewString(s string) Value {
	h := len(p.objects)
	p.objects = append(p.objects, Object{Kind: StringObj, Str: s})
	return ObjValue(h)
}

// NewList allocates a new List object and returns its handle wrapped as a
// Value. The slice is taken by reference, not copied.
func (p *Pool) NewList(elems []Value) Value {
	h := len(p.objects)
	p.objects = append(p.objects, Object{Kind: ListObj, List: elems})
	return ObjValue(h)
}

// Get returns a pointer to the object at handle h, allowing in-place
// mutation (list set/push).
func (p *Pool) Get(h int) *Object {
	return &p.objects[h]
}

// Len returns the number of objects allocated so far.
func (p *Pool) Len() int { return len(p.objects) }

// String looks up the string contents of the object at handle h; it panics
// if the object is not a String, which would be a compiler/interpreter
// invariant violation (see §3: Load/Set/DefGlobal constants must point to
// String objects).
func (p *Pool) String(h int) string {
	o := &p.objects[h]
	if o.Kind != StringObj {
		panic(fmt.Sprintf("object %d is not a string", h))
	}
	return o.Str
}

// ToString renders v's canonical printable form, resolving Obj handles
// through the pool (unlike the bare value.ToString, which cannot see object
// contents).
func (p *Pool) ToString(v Value) string {
	if v.Kind() == Obj {
		return p.objects[v.Handle()].String()
	}
	return ToString(v)
}
