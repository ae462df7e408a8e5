package worldstate

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFact_Equal(t *testing.T) {
	for _, tc := range []struct {
		name string
		a, b Fact
		want bool
	}{
		{"int equal", Int("n", 3), Int("n", 3), true},
		{"int differ", Int("n", 3), Int("n", 4), false},
		{"float equal", Float("f", 1.5), Float("f", 1.5), true},
		{"bool differ", Bool("b", true), Bool("b", false), false},
		{"vec equal", Vec("v", Vec3{1, 2, 3}), Vec("v", Vec3{1, 2, 3}), true},
		{"vec differ", Vec("v", Vec3{1, 2, 3}), Vec("v", Vec3{1, 2, 4}), false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.a.Equal(tc.b)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFact_EqualTypeMismatch(t *testing.T) {
	_, err := Int("HasTool", 1).Equal(Bool("HasTool", true))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	var mismatch *TypeMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "HasTool", mismatch.Name)
	assert.Equal(t, KindBoolean, mismatch.Want)
	assert.Equal(t, KindInteger, mismatch.Got)
}

func TestWorldState_ApplyOverwrites(t *testing.T) {
	ws := New(Bool("HasResource", false))
	ws.Apply(Bool("HasResource", true))
	assert.Equal(t, 1, ws.Len())
	f, ok := ws.Get("HasResource")
	require.True(t, ok)
	assert.True(t, f.Bool())
}

func TestWorldState_SatisfiesSubset(t *testing.T) {
	s1 := New(Bool("a", true), Int("b", 2), Float("c", 0.5), Vec("d", Vec3{1, 0, 0}))
	s2 := New(Bool("a", true), Int("b", 2))

	assert.True(t, s1.Satisfies(s1), "reflexive")
	assert.True(t, s1.Satisfies(s2), "superset satisfies subset")
	assert.False(t, s2.Satisfies(s1), "missing facts do not satisfy")
	assert.True(t, s2.Satisfies(New()), "everything satisfies the empty state")

	s2.SetInt("b", 3)
	assert.False(t, s1.Satisfies(s2))
}

func TestWorldState_SatisfiesPanicsOnMismatch(t *testing.T) {
	ws := New(Int("HasTool", 1))
	assert.PanicsWithError(t, (&TypeMismatchError{Name: "HasTool", Want: KindBoolean, Got: KindInteger}).Error(), func() {
		ws.Satisfies(New(Bool("HasTool", true)))
	})

	ok, err := ws.Check(New(Bool("HasTool", true)))
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestWorldState_MergeIdempotent(t *testing.T) {
	base := New(Bool("HasResource", true), Int("Money", 1))
	effects := New(Bool("HasResource", false), Bool("HasDeliveredResource", true))

	once := base.Copy()
	once.Merge(effects)

	twice := base.Copy()
	twice.Merge(effects)
	twice.Merge(effects)

	assert.Equal(t, once, twice)
	assert.Equal(t, 3, once.Len())
	assert.True(t, once.Satisfies(effects))
}

func TestWorldState_CopyIsIndependent(t *testing.T) {
	ws := New(Bool("a", true))
	cp := ws.Copy()
	cp.SetBool("a", false)
	cp.SetBool("b", true)

	assert.True(t, ws.Satisfies(New(Bool("a", true))))
	assert.False(t, ws.Has("b"))
}

func TestWorldState_Empty(t *testing.T) {
	var nilState WorldState
	assert.True(t, nilState.IsEmpty())
	assert.True(t, New().IsEmpty())
	assert.False(t, New(Bool("x", true)).IsEmpty())
	assert.True(t, nilState.Satisfies(nil))
}

func TestWorldState_Unsatisfied(t *testing.T) {
	current := New(Bool("HasTool", true), Bool("HasResource", false))
	goal := New(Bool("HasTool", true), Bool("HasResource", true), Bool("HasBuilt", true))

	missing, err := current.Unsatisfied(goal)
	require.NoError(t, err)
	assert.Equal(t, []string{"HasBuilt", "HasResource"}, missing.Names())
}

func TestWorldState_String(t *testing.T) {
	ws := New(Bool("b", true), Int("a", 1), Float("c", 2), Vec("d", Vec3{1, 2, 3}))
	assert.Equal(t, "{a: 1, b: true, c: 2.0, d: (1, 2, 3)}", ws.String())
	assert.Equal(t, "{}", New().String())
}

func TestWorldState_Values(t *testing.T) {
	ws := New(Bool("b", true), Int("a", 1))
	assert.Equal(t, map[string]any{"a": 1, "b": true}, ws.Values())
}

func TestWorldState_YAML(t *testing.T) {
	const doc = `
HasTool: true
Money: 3
Speed: 2.5
Home: [0, 1.5, 10]
`
	var ws WorldState
	require.NoError(t, yaml.Unmarshal([]byte(doc), &ws))

	want := New(Bool("HasTool", true), Int("Money", 3), Float("Speed", 2.5), Vec("Home", Vec3{0, 1.5, 10}))
	assert.Equal(t, want, ws)

	out, err := yaml.Marshal(ws)
	require.NoError(t, err)

	var back WorldState
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, want, back)
}

func TestWorldState_YAMLNonFinite(t *testing.T) {
	ws := New(Float("Up", math.Inf(1)), Float("Down", math.Inf(-1)), Float("Unknown", math.NaN()))

	out, err := yaml.Marshal(ws)
	require.NoError(t, err)
	assert.Equal(t, "Down: -.inf\nUnknown: .nan\nUp: .inf\n", string(out))

	var back WorldState
	require.NoError(t, yaml.Unmarshal(out, &back))
	require.Equal(t, 3, back.Len())
	assert.True(t, math.IsInf(back["Up"].Float(), 1))
	assert.True(t, math.IsInf(back["Down"].Float(), -1))
	assert.True(t, math.IsNaN(back["Unknown"].Float()))
	assert.Equal(t, KindFloat, back["Unknown"].Kind())
}

func TestWorldState_YAMLErrors(t *testing.T) {
	for _, doc := range []string{
		`[1, 2]`,
		`Home: [1, 2]`,
		`Name: hello`,
		`Nested: {a: 1}`,
	} {
		var ws WorldState
		assert.Error(t, yaml.Unmarshal([]byte(doc), &ws), doc)
	}
}

func TestVec3(t *testing.T) {
	a := Vec3{3, 4, 0}
	assert.Equal(t, 5.0, a.Len())
	assert.Equal(t, 5.0, a.Dist(Vec3{}))
	assert.Equal(t, Vec3{6, 8, 0}, a.Scale(2))
	assert.Equal(t, Vec3{4, 5, 1}, a.Add(Vec3{1, 1, 1}))
}
