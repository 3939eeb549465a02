package canary

import (
	"container/list"
	"errors"
	"iter"
	"maps"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

func MustRepresent(t *testing.T, value any, max int) string {
	t.Helper()
	str, err := Represent(value, max)
	if err != nil {
		t.Fatalf("rendering failed: %s", err)
	}
	return str
}

func AssertRender(t *testing.T, value any, expected string) {
	t.Helper()
	AssertRenderMax(t, value, DefaultMaxLength, expected)
}

func AssertRenderMax(t *testing.T, value any, max int, expected string) {
	t.Helper()
	if str := MustRepresent(t, value, max); str != expected {
		t.Fatalf("expected %q, got %q", expected, str)
	}
}

func listOf(values ...any) *list.List {
	l := list.New()
	for _, v := range values {
		l.PushBack(v)
	}
	return l
}

type bag struct {
	items []any
}

func (b bag) All() iter.Seq[any] {
	return slices.Values(b.items)
}

var _ Collection = bag{}

func TestNil(t *testing.T) {
	AssertRender(t, nil, "null")
	AssertRender(t, (*int)(nil), "null")
	AssertRender(t, []int(nil), "null")
	AssertRender(t, map[string]int(nil), "null")
	AssertRender(t, (*list.List)(nil), "null")
	AssertRender(t, error(nil), "null")
}

func TestBool(t *testing.T) {
	AssertRender(t, false, "false")
	AssertRender(t, true, "true")
}

func TestString(t *testing.T) {
	AssertRender(t, "hello", "hello")
	AssertRender(t, "", "")
}

func TestNumbers(t *testing.T) {
	AssertRender(t, 42, "42")
	AssertRender(t, 3.14, "3.14")
	AssertRender(t, -100, "-100")
	AssertRender(t, uint8(255), "255")
	AssertRender(t, 1+2i, "(1+2i)")
}

func TestChar(t *testing.T) {
	AssertRender(t, Char('a'), "a")
	AssertRender(t, Char('é'), "é")
	AssertRender(t, Char(0), "null")

	// A plain rune is an int32.
	AssertRender(t, rune(0), "0")
	AssertRender(t, 'a', "97")
}

func TestTime(t *testing.T) {
	now := time.Now()
	AssertRender(t, now, now.String())
}

func TestDuration(t *testing.T) {
	AssertRender(t, time.Second, "1s")
	AssertRender(t, time.Minute, "1m0s")
	AssertRender(t, time.Hour, "1h0m0s")
}

func TestScalarFallback(t *testing.T) {
	AssertRender(t, errors.New("boom"), "boom")

	type A struct {
		A  int
		Bb string
	}
	AssertRender(t, A{42, "hello"}, "{42 hello}")

	n := 7
	AssertRender(t, &n, "7")
	pn := &n
	AssertRender(t, &pn, "7")
}

func TestPrimitiveSequence(t *testing.T) {
	AssertRender(t, []int{1, 2, 3}, "[1, 2, 3]")
	AssertRender(t, []int{}, "[]")
	AssertRender(t, []byte{1, 2}, "[1, 2]")
	AssertRender(t, []int8{-1}, "[-1]")
	AssertRender(t, []int16{1, 2}, "[1, 2]")
	AssertRender(t, []int64{1 << 40}, "[1099511627776]")
	AssertRender(t, []uint32{7}, "[7]")
	AssertRender(t, []float32{1.5}, "[1.5]")
	AssertRender(t, []float64{1.5, 2}, "[1.5, 2]")
	AssertRender(t, []bool{true, false}, "[true, false]")
	AssertRender(t, []complex128{1 + 2i}, "[(1+2i)]")
	AssertRender(t, [3]int{4, 5, 6}, "[4, 5, 6]")
	AssertRender(t, []time.Duration{time.Second, time.Minute}, "[1s, 1m0s]")

	AssertRender(t, []Char{'a', 'b', 'c'}, "[a, b, c]")
	AssertRender(t, []Char{'a', 0}, "[a, null]")
	AssertRender(t, []rune("ab"), "[97, 98]")
}

func TestObjectSequence(t *testing.T) {
	AssertRender(t, []string{"a", "b"}, "[a, b]")
	AssertRender(t, []any{1, "x", nil}, "[1, x, null]")
	AssertRender(t, []any{}, "[]")
	AssertRender(t, []any{[]any{}}, "[[]]")
	AssertRender(t, [][]int{{1, 2}, {3}}, "[[1, 2], [3]]")
	AssertRender(t, []any{map[string]int{"a": 1}, listOf(2)}, "[{a => 1}, (2)]")
	AssertRender(t, []*int{nil}, "[null]")
}

func TestCollection(t *testing.T) {
	AssertRender(t, listOf(1, 2, 3), "(1, 2, 3)")
	AssertRender(t, list.New(), "()")
	AssertRender(t, listOf(1, listOf(2, 3)), "(1, (2, 3))")
	AssertRender(t, listOf(nil, Char(0)), "(null, null)")

	AssertRender(t, slices.Values([]int{1, 2}), "(1, 2)")
	AssertRender(t, slices.Values([]int{}), "()")
	AssertRender(t, slices.Values([]any{1, slices.Values([]int{2, 3})}), "(1, (2, 3))")

	AssertRender(t, bag{items: []any{1, "two", []int{3}}}, "(1, two, [3])")
	AssertRender(t, &bag{}, "()")
}

func TestMap(t *testing.T) {
	AssertRender(t, map[string]int{"a": 1}, "{a => 1}")
	AssertRender(t, map[string]int{}, "{}")
	AssertRender(t, map[int][]int{1: {2, 3}}, "{1 => [2, 3]}")
	AssertRender(t, map[string]any{"k": nil}, "{k => null}")

	// Native iteration order is kept, whatever it is.
	str := MustRepresent(t, map[string]int{"a": 1, "b": 2}, DefaultMaxLength)
	if str != "{a => 1, b => 2}" && str != "{b => 2, a => 1}" {
		t.Fatalf("unexpected map rendering %q", str)
	}

	AssertRender(t, slices.All([]string{"x", "y"}), "{0 => x, 1 => y}")
	AssertRender(t, maps.All(map[string]bool{"on": true}), "{on => true}")
}

func TestOrderedMap(t *testing.T) {
	om := orderedmap.New[string, any]()
	om.Set("b", 2)
	om.Set("a", listOf(1, 2))
	om.Set("c", []int{3})
	AssertRender(t, om, "{b => 2, a => (1, 2), c => [3]}")

	AssertRender(t, orderedmap.New[string, int](), "{}")
}

func TestTruncation(t *testing.T) {
	numbers := list.New()
	for i := range 100 {
		numbers.PushBack(i)
	}
	AssertRenderMax(t, numbers, 20, "(0, 1, 2, 3, 4, 5, 6, ")

	// The budget is checked between elements only.
	AssertRenderMax(t, []int{1, 2, 3}, 9, "[1, 2, 3]")
	AssertRenderMax(t, []int{1, 2, 3}, 8, "[1, 2, 3]")
	AssertRenderMax(t, []int{1, 2, 3}, 7, "[1, 2, 3")
	AssertRenderMax(t, []string{strings.Repeat("x", 10)}, 3, "["+strings.Repeat("x", 10))

	AssertRenderMax(t, []int{1}, 0, "[1")
	AssertRenderMax(t, []int{}, 0, "[]")
	AssertRenderMax(t, []int{1}, -5, "[1")

	// Every container applies the budget to its own text.
	AssertRenderMax(t, []any{[]int{1, 2, 3, 4, 5}}, 5, "[[1, 2, ")

	om := orderedmap.New[string, int]()
	om.Set("a", 1)
	om.Set("b", 2)
	AssertRenderMax(t, om, 5, "{a => 1, ")

	// Characters are counted, not bytes.
	AssertRenderMax(t, []string{"éé", "éé"}, 7, "[éé, éé]")
	AssertRenderMax(t, []string{"éé", "éé"}, 6, "[éé, éé")
}

func TestRender(t *testing.T) {
	line, err := Render("x", []int{1, 2, 3}, DefaultMaxLength)
	if err != nil || line != "x: [1, 2, 3]" {
		t.Fatalf("unexpected %q, %v", line, err)
	}

	om := orderedmap.New[string, int]()
	om.Set("a", 1)
	om.Set("b", 2)
	line, err = Render("m", om, DefaultMaxLength)
	if err != nil || line != "m: {a => 1, b => 2}" {
		t.Fatalf("unexpected %q, %v", line, err)
	}

	line, err = Render("n", nil, DefaultMaxLength)
	if err != nil || line != "n: null" {
		t.Fatalf("unexpected %q, %v", line, err)
	}
}

func TestRenderTruncatesLine(t *testing.T) {
	words := list.New()
	for range 50 {
		words.PushBack("abc")
	}
	if full := MustRepresent(t, words, 1000); utf8.RuneCountInString(full) != 250 {
		t.Fatalf("expected 250 characters, got %d", utf8.RuneCountInString(full))
	}

	line, err := Render("c", words, 200)
	if err != nil {
		t.Fatalf("rendering failed: %s", err)
	}
	if len(line) != 203 || !strings.HasSuffix(line, Ellipsis) || !strings.HasPrefix(line, "c: (abc, abc") {
		t.Fatalf("unexpected line %q (%d)", line, len(line))
	}

	line, err = Render("s", strings.Repeat("x", 300), 200)
	if err != nil {
		t.Fatalf("rendering failed: %s", err)
	}
	if line != "s: "+strings.Repeat("x", 197)+Ellipsis {
		t.Fatalf("unexpected line %q", line)
	}
}

func TestTruncate(t *testing.T) {
	for _, tc := range []struct {
		in       string
		max      int
		expected string
	}{
		{"abc", 3, "abc"},
		{"abcd", 3, "abc..."},
		{"abc", 0, "..."},
		{"", 0, ""},
		{"héllo", 2, "hé..."},
		{"abc", -1, "..."},
	} {
		if got := Truncate(tc.in, tc.max); got != tc.expected {
			t.Errorf("Truncate(%q, %d): expected %q, got %q", tc.in, tc.max, tc.expected, got)
		}
	}
}

func TestWrite(t *testing.T) {
	var sb strings.Builder
	if err := Write(&sb, "x", []bool{true}, DefaultMaxLength); err != nil {
		t.Fatalf("write failed: %s", err)
	}
	if sb.String() != "x: [true]\n" {
		t.Fatalf("unexpected output %q", sb.String())
	}
}

type selfPointer *selfPointer

func TestCycles(t *testing.T) {
	s := []any{1, nil}
	s[1] = s

	var boxed any
	boxed = &boxed

	var sp selfPointer
	sp = &sp

	m := map[string]any{}
	m["self"] = m

	l := list.New()
	l.PushBack(1)
	l.PushBack(l)

	om := orderedmap.New[string, any]()
	om.Set("nested", []any{om})

	for name, value := range map[string]any{
		"slice":        s,
		"map":          m,
		"list":         l,
		"ordered":      om,
		"boxed":        boxed,
		"self pointer": sp,
		"nested":       []any{&boxed},
	} {
		_, err := Represent(value, DefaultMaxLength)
		if !errors.Is(err, ErrCyclic) {
			t.Errorf("%s: expected ErrCyclic, got %v", name, err)
		}
	}

	_, err := Render("s", s, DefaultMaxLength)
	if !errors.Is(err, ErrCyclic) {
		t.Fatalf("expected ErrCyclic, got %v", err)
	}

	var x int
	p := &x
	AssertRender(t, &p, "0")
	AssertRender(t, []*int{p, p}, "[0, 0]")
}

func TestDepthLimit(t *testing.T) {
	var endless iter.Seq[any]
	endless = func(yield func(any) bool) {
		yield(endless)
	}
	_, err := Represent(endless, DefaultMaxLength)
	if !errors.Is(err, ErrTooDeep) {
		t.Fatalf("expected ErrTooDeep, got %v", err)
	}
}

func TestSharedContainers(t *testing.T) {
	inner := []any{1}
	AssertRender(t, []any{inner, inner}, "[[1], [1]]")

	m := map[string]int{"a": 1}
	AssertRender(t, listOf(m, m), "({a => 1}, {a => 1})")

	r := NewRenderer(DefaultMaxLength)
	for range 3 {
		if str, err := r.Represent(listOf(inner)); err != nil || str != "([1])" {
			t.Fatalf("unexpected %q, %v", str, err)
		}
	}
}

func TestConcurrentRendering(t *testing.T) {
	om := orderedmap.New[string, any]()
	om.Set("list", listOf(1, 2))
	om.Set("ints", []int{3, 4})

	var wg sync.WaitGroup
	errs := make(chan string, 32)
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			line, err := Render("v", om, DefaultMaxLength)
			if err != nil || line != "v: {list => (1, 2), ints => [3, 4]}" {
				errs <- line
			}
		}()
	}
	wg.Wait()
	close(errs)
	for line := range errs {
		t.Errorf("unexpected line %q", line)
	}
}

func TestKindOf(t *testing.T) {
	got := map[string]Kind{
		"nil":       KindOf(nil),
		"nil slice": KindOf([]int(nil)),
		"objects":   KindOf([]any{1}),
		"strings":   KindOf([]string{"a"}),
		"ints":      KindOf([]int{1}),
		"chars":     KindOf([]Char{'a'}),
		"array":     KindOf([2]bool{}),
		"list":      KindOf(list.New()),
		"seq":       KindOf(slices.Values([]int{})),
		"bag":       KindOf(bag{}),
		"map":       KindOf(map[int]int{}),
		"seq2":      KindOf(maps.All(map[int]int{})),
		"ordered":   KindOf(orderedmap.New[int, int]()),
		"string":    KindOf("a"),
		"pointer":   KindOf(new(int)),
		"error":     KindOf(errors.New("x")),
		"func":      KindOf(func() {}),
	}
	expected := map[string]Kind{
		"nil":       KindAbsent,
		"nil slice": KindAbsent,
		"objects":   KindObjectSequence,
		"strings":   KindObjectSequence,
		"ints":      KindPrimitiveSequence,
		"chars":     KindPrimitiveSequence,
		"array":     KindPrimitiveSequence,
		"list":      KindCollection,
		"seq":       KindCollection,
		"bag":       KindCollection,
		"map":       KindMap,
		"seq2":      KindMap,
		"ordered":   KindMap,
		"string":    KindScalar,
		"pointer":   KindScalar,
		"error":     KindScalar,
		"func":      KindScalar,
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Fatalf("unexpected kinds (-want +got):\n%s", diff)
	}

	if KindMap.String() != "map" || Kind(42).String() != "Kind(42)" {
		t.Fatalf("unexpected kind names")
	}
}
