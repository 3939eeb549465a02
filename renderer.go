package canary

import (
	"container/list"
	"errors"
	"fmt"
	"iter"
	"reflect"
	"strings"
	"unicode/utf8"
)

const (
	null      = "null"
	separator = ", "
	arrow     = " => "
)

// MaxDepth is the deepest container nesting a Renderer descends into.
const MaxDepth = 1000

var (
	ErrCyclic  = errors.New("cyclic structure")
	ErrTooDeep = errors.New("structure too deep")
)

// Renderer renders values within a length budget. It keeps track of the
// containers on the current rendering path and must not be shared between
// goroutines.
type Renderer struct {
	max      int
	depth    int
	visiting map[identity]struct{}
}

type identity struct {
	typ reflect.Type
	ptr uintptr
	len int
}

func NewRenderer(max int) *Renderer {
	if max < 0 {
		max = 0
	}
	return &Renderer{max: max}
}

func (r *Renderer) Represent(value any) (string, error) {
	return r.render(reflect.ValueOf(value))
}

func (r *Renderer) render(v reflect.Value) (string, error) {
	s := classify(v)
	if s.err != nil {
		return "", s.err
	}
	switch s.kind {
	case KindAbsent:
		return null, nil
	case KindObjectSequence:
		return r.renderObjectSequence(s)
	case KindPrimitiveSequence:
		return r.renderPrimitiveSequence(s)
	case KindCollection:
		return r.renderCollection(s)
	case KindMap:
		return r.renderMap(s)
	default:
		return renderScalarValue(s.value), nil
	}
}

func (r *Renderer) renderObjectSequence(s shape) (string, error) {
	leave, err := r.enter(s.value)
	if err != nil {
		return "", err
	}
	defer leave()

	return join(r.max, "[", "]", elements(s.value), r.render)
}

// renderPrimitiveSequence boxes every element and renders it as a scalar.
// The elements of a primitive sequence can never be containers.
func (r *Renderer) renderPrimitiveSequence(s shape) (string, error) {
	return join(r.max, "[", "]", boxed(s.value), func(value any) (string, error) {
		return renderScalar(value), nil
	})
}

func (r *Renderer) renderCollection(s shape) (string, error) {
	leave, err := r.enter(s.value)
	if err != nil {
		return "", err
	}
	defer leave()

	var seq iter.Seq[reflect.Value]
	if s.value.Type() == listType {
		seq = listElements(s.value.Interface().(*list.List))
	} else if fn := iterator(s.iter); fn.IsValid() {
		seq = fn.Seq()
	} else {
		return "()", nil
	}
	return join(r.max, "(", ")", seq, r.render)
}

type entry struct {
	key, value reflect.Value
}

func (r *Renderer) renderMap(s shape) (string, error) {
	leave, err := r.enter(s.value)
	if err != nil {
		return "", err
	}
	defer leave()

	var seq iter.Seq[entry]
	if s.value.Kind() == reflect.Map {
		seq = mapEntries(s.value)
	} else if fn := iterator(s.iter); fn.IsValid() {
		seq = pairs(fn.Seq2())
	} else {
		return "{}", nil
	}
	return join(r.max, "{", "}", seq, r.renderEntry)
}

func (r *Renderer) renderEntry(e entry) (string, error) {
	key, err := r.render(e.key)
	if err != nil {
		return "", err
	}
	value, err := r.render(e.value)
	if err != nil {
		return "", err
	}
	return key + arrow + value, nil
}

// enter records v as being rendered. The returned func must be called once v
// is done.
func (r *Renderer) enter(v reflect.Value) (func(), error) {
	if r.depth >= MaxDepth {
		return nil, fmt.Errorf("%w: more than %d nested containers", ErrTooDeep, MaxDepth)
	}

	id, tracked := identify(v)
	if tracked {
		if _, ok := r.visiting[id]; ok {
			return nil, fmt.Errorf("%w: %s contains itself", ErrCyclic, v.Type())
		}
		if r.visiting == nil {
			r.visiting = make(map[identity]struct{})
		}
		r.visiting[id] = struct{}{}
	}
	r.depth++

	return func() {
		r.depth--
		if tracked {
			delete(r.visiting, id)
		}
	}, nil
}

func identify(v reflect.Value) (identity, bool) {
	switch v.Kind() {
	case reflect.Map, reflect.Pointer:
		return identity{typ: v.Type(), ptr: v.Pointer()}, true
	case reflect.Slice:
		if v.Len() == 0 {
			return identity{}, false
		}
		return identity{typ: v.Type(), ptr: v.Pointer(), len: v.Len()}, true
	}
	return identity{}, false
}

func renderScalarValue(v reflect.Value) string {
	if !v.IsValid() {
		return null
	}
	if !v.CanInterface() {
		return fmt.Sprint(v)
	}
	return renderScalar(v.Interface())
}

func renderScalar(value any) string {
	switch value := value.(type) {
	case nil:
		return null
	case Char:
		// NUL upsets some terminals and log collectors.
		if value == 0 {
			return null
		}
	}
	return fmt.Sprint(value)
}

// join renders the elements of seq between opening and closing. Once the text
// exceeds max characters it is returned as is, without the closing
// delimiter. The budget is only checked between elements.
func join[E any](max int, opening, closing string, seq iter.Seq[E], render func(E) (string, error)) (string, error) {
	b := bounded{max: max}
	b.write(opening)

	var (
		pending E
		started bool
	)
	for e := range seq {
		if started {
			text, err := render(pending)
			if err != nil {
				return "", err
			}
			if b.add(text, true) {
				return b.String(), nil
			}
		}
		pending, started = e, true
	}
	if started {
		text, err := render(pending)
		if err != nil {
			return "", err
		}
		if b.add(text, false) {
			return b.String(), nil
		}
	}

	b.write(closing)
	return b.String(), nil
}

type bounded struct {
	sb  strings.Builder
	n   int
	max int
}

func (b *bounded) write(s string) {
	b.sb.WriteString(s)
	b.n += utf8.RuneCountInString(s)
}

// add appends an element, followed by a separator when more elements come,
// and reports whether the budget is exceeded.
func (b *bounded) add(text string, more bool) bool {
	b.write(text)
	if more {
		b.write(separator)
	}
	return b.n > b.max
}

func (b *bounded) String() string {
	return b.sb.String()
}

func iterator(fn reflect.Value) reflect.Value {
	if fn.IsValid() && fn.Type().NumIn() == 0 {
		fn = fn.Call(nil)[0]
	}
	if !fn.IsValid() || fn.IsNil() {
		return reflect.Value{}
	}
	return fn
}

func elements(v reflect.Value) iter.Seq[reflect.Value] {
	return func(yield func(reflect.Value) bool) {
		for i := range v.Len() {
			if !yield(v.Index(i)) {
				return
			}
		}
	}
}

func boxed(v reflect.Value) iter.Seq[any] {
	return func(yield func(any) bool) {
		for i := range v.Len() {
			e := v.Index(i)
			var value any
			if e.CanInterface() {
				value = e.Interface()
			} else {
				value = fmt.Sprint(e)
			}
			if !yield(value) {
				return
			}
		}
	}
}

func listElements(l *list.List) iter.Seq[reflect.Value] {
	return func(yield func(reflect.Value) bool) {
		for e := l.Front(); e != nil; e = e.Next() {
			if !yield(reflect.ValueOf(e.Value)) {
				return
			}
		}
	}
}

func mapEntries(v reflect.Value) iter.Seq[entry] {
	return func(yield func(entry) bool) {
		it := v.MapRange()
		for it.Next() {
			if !yield(entry{key: it.Key(), value: it.Value()}) {
				return
			}
		}
	}
}

func pairs(seq iter.Seq2[reflect.Value, reflect.Value]) iter.Seq[entry] {
	return func(yield func(entry) bool) {
		for k, v := range seq {
			if !yield(entry{key: k, value: v}) {
				return
			}
		}
	}
}
