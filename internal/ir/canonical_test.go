package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeysAndEscapes(t *testing.T) {
	data, err := MarshalCanonical(Object{
		"b": Int(2),
		"a": List{Str("x<y"), Bool(true)},
		"c": Str("line\nbreak \"q\""),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":["x<y",true],"b":2,"c":"line\nbreak \"q\""}`, string(data))
}

func TestMarshalCanonical_RejectsNil(t *testing.T) {
	_, err := MarshalCanonical(List{nil})
	assert.Error(t, err)
}

func TestMarshalOutline_PreservesSectionOrder(t *testing.T) {
	g := &Group{Sections: []Section{
		{Label: "Zeta", Node: &Leaf{Questions: []string{"AAB"}}},
		{Label: "Alpha", Node: &Group{Sections: []Section{
			{Label: "Comments", Node: &CommentBlock{Fields: []string{"Notes"}}},
		}}},
	}}

	data, err := MarshalOutline(g)
	require.NoError(t, err)
	assert.Equal(t,
		`{"kind":"group","sections":[["Zeta",{"kind":"leaf","questions":["AAB"]}],`+
			`["Alpha",{"kind":"group","sections":[["Comments",{"fields":["Notes"],"kind":"comments"}]]}]]}`,
		string(data))
}

func TestOutlineHash_StableAcrossClones(t *testing.T) {
	g := &Group{Sections: []Section{
		{Label: "Food", Node: &Leaf{Questions: []string{"AAA", "AAB"}, Comments: []string{"Why?"}}},
	}}
	h1, err := OutlineHash(g)
	require.NoError(t, err)
	h2, err := OutlineHash(CloneOutline(g))
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)

	g.Sections[0].Node.(*Leaf).Questions = []string{"AAB", "AAA"}
	h3, err := OutlineHash(g)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestWalk_VisitsDepthFirst(t *testing.T) {
	g := &Group{Sections: []Section{
		{Label: "A", Node: &Group{Sections: []Section{
			{Label: "A1", Node: &Leaf{}},
		}}},
		{Label: "B", Node: &Leaf{}},
	}}
	var seen []string
	Walk(g, func(path []string, _ Node) {
		seen = append(seen, path[len(path)-1])
	})
	assert.Equal(t, []string{"A", "A1", "B"}, seen)
}
