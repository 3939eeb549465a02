package canary

import (
	"container/list"
	"fmt"
	"iter"
	"reflect"
)

// Kind classifies a value by its runtime shape.
type Kind int

const (
	KindAbsent Kind = iota
	KindObjectSequence
	KindPrimitiveSequence
	KindCollection
	KindMap
	KindScalar
)

var kindNames = [...]string{
	KindAbsent:            "absent",
	KindObjectSequence:    "object-sequence",
	KindPrimitiveSequence: "primitive-sequence",
	KindCollection:        "collection",
	KindMap:               "map",
	KindScalar:            "scalar",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Char is a character. rune is an alias of int32 and renders as a number, so
// characters that should render as text must be typed as Char.
type Char rune

func (c Char) String() string {
	return string(rune(c))
}

// Collection is implemented by containers that are not maps. Any type with an
// All or Values method returning an iter.Seq is rendered the same way.
type Collection interface {
	All() iter.Seq[any]
}

var (
	stringerType = reflect.TypeFor[fmt.Stringer]()
	errorType    = reflect.TypeFor[error]()
	listType     = reflect.TypeFor[*list.List]()
)

// Methods probed, in order, for an iterator over a container's contents.
// FromOldest is what github.com/wk8/go-ordered-map exposes.
var iteratorMethods = []string{"FromOldest", "All", "Values"}

type shape struct {
	kind Kind
	// value is the classified value, with interfaces and plain pointers
	// unwrapped.
	value reflect.Value
	// iter is an iter.Seq or iter.Seq2 function for iterator-backed
	// collections and maps.
	iter reflect.Value
	// err is set when value cannot be classified at all.
	err error
}

// KindOf reports how value would be rendered.
func KindOf(value any) Kind {
	return classify(reflect.ValueOf(value)).kind
}

func classify(v reflect.Value) shape {
	// Pointers unwrapped so far. A pointer or interface that leads back to
	// itself would otherwise never resolve.
	var unwrapped map[uintptr]struct{}
	for {
		if !v.IsValid() {
			return shape{kind: KindAbsent}
		}

		switch v.Kind() {
		case reflect.Interface:
			if v.IsNil() {
				return shape{kind: KindAbsent}
			}
			v = v.Elem()
			continue
		case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
			if v.IsNil() {
				return shape{kind: KindAbsent, value: v}
			}
		}

		t := v.Type()
		switch t.Kind() {
		case reflect.Slice, reflect.Array:
			if isPrimitive(t.Elem()) {
				return shape{kind: KindPrimitiveSequence, value: v}
			}
			return shape{kind: KindObjectSequence, value: v}

		case reflect.Map:
			return shape{kind: KindMap, value: v}

		case reflect.Func:
			if kind, ok := iteratorKind(t); ok {
				return shape{kind: kind, value: v, iter: v}
			}
		}

		if t == listType {
			return shape{kind: KindCollection, value: v}
		}

		if v.CanInterface() {
			if c, ok := v.Interface().(Collection); ok {
				return shape{kind: KindCollection, value: v, iter: reflect.ValueOf(c.All)}
			}
		}

		if s, ok := iteratorMethod(v); ok {
			return s
		}

		if t.Kind() == reflect.Pointer && !t.Implements(stringerType) && !t.Implements(errorType) {
			p := v.Pointer()
			if _, ok := unwrapped[p]; ok {
				return shape{kind: KindScalar, value: v, err: fmt.Errorf("%w: %s points to itself", ErrCyclic, t)}
			}
			if unwrapped == nil {
				unwrapped = make(map[uintptr]struct{})
			}
			unwrapped[p] = struct{}{}
			v = v.Elem()
			continue
		}

		return shape{kind: KindScalar, value: v}
	}
}

func iteratorMethod(v reflect.Value) (shape, bool) {
	if v.NumMethod() == 0 {
		return shape{}, false
	}
	for _, name := range iteratorMethods {
		m := v.MethodByName(name)
		if !m.IsValid() {
			continue
		}
		mt := m.Type()
		if mt.NumIn() != 0 || mt.NumOut() != 1 || mt.Out(0).Kind() != reflect.Func {
			continue
		}
		if kind, ok := iteratorKind(mt.Out(0)); ok {
			return shape{kind: kind, value: v, iter: m}, true
		}
	}
	return shape{}, false
}

// iteratorKind maps iter.Seq shaped functions to collections and iter.Seq2
// shaped functions to maps.
func iteratorKind(t reflect.Type) (Kind, bool) {
	switch {
	case t.CanSeq():
		return KindCollection, true
	case t.CanSeq2():
		return KindMap, true
	}
	return 0, false
}

// isPrimitive reports element types that are boxed and rendered as scalars.
// Char has kind Int32 and is covered here too.
func isPrimitive(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return true
	}
	return false
}
