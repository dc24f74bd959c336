package layout

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikeydub/go-gallery-layout/service/persist"
)

const ws = "_"

func newTestCodec() *Codec[persist.DBID] {
	return NewDBIDCodec(WithIDGenerator(NewSequentialIDGenerator("id")))
}

// render flattens a section into token IDs, with whitespace shown as "_"
func render(section Section[persist.DBID]) []string {
	out := make([]string, len(section.Items))
	for i, item := range section.Items {
		if item.IsWhitespace() {
			out[i] = ws
			continue
		}
		out[i] = item.Token.String()
	}
	return out
}

func renderAll(c StagedCollection[persist.DBID]) [][]string {
	out := [][]string{}
	for _, section := range c.Sections() {
		out = append(out, render(section))
	}
	return out
}

func stage(columns int, items ...string) Section[persist.DBID] {
	section := Section[persist.DBID]{Columns: columns, Items: []Item[persist.DBID]{}}
	for i, item := range items {
		if item == ws {
			section.Items = append(section.Items, WhitespaceItem[persist.DBID](WhitespaceBlock{ID: "blank-" + string(rune('a'+i))}))
			continue
		}
		section.Items = append(section.Items, TokenItem(persist.DBID(item)))
	}
	return section
}

func section(columns int, whitespace ...int) persist.CollectionSectionLayout {
	if whitespace == nil {
		whitespace = []int{}
	}
	return persist.CollectionSectionLayout{Columns: persist.NullInt32(columns), Whitespace: whitespace}
}

func TestDecode(t *testing.T) {
	t.Run("decodes sections and whitespace", func(t *testing.T) {
		codec := newTestCodec()
		tokens := []persist.DBID{"T1", "T2", "T3", "T4", "T5"}
		l := persist.TokenLayout{
			Sections:      []int{0, 3},
			SectionLayout: []persist.CollectionSectionLayout{section(2, 1), section(1)},
		}

		actual, err := codec.Decode(tokens, l)
		require.NoError(t, err)

		assert.Equal(t, []string{"id-1", "id-2"}, actual.SectionIDs())
		assert.Equal(t, [][]string{{"T1", ws, "T2", "T3"}, {"T4", "T5"}}, renderAll(actual))

		sections := actual.Sections()
		assert.Equal(t, 2, sections[0].Columns)
		assert.Equal(t, 1, sections[1].Columns)
		assert.Equal(t, "blank-id-0", sections[0].Items[1].Whitespace.ID)
	})

	t.Run("offsets whitespace by the blocks already inserted", func(t *testing.T) {
		codec := newTestCodec()
		l := persist.TokenLayout{
			Sections:      []int{0},
			SectionLayout: []persist.CollectionSectionLayout{section(3, 0, 0, 1)},
		}

		actual, err := codec.Decode([]persist.DBID{"A", "B", "C"}, l)
		require.NoError(t, err)

		assert.Equal(t, [][]string{{ws, ws, "A", ws, "B", "C"}}, renderAll(actual))
	})

	t.Run("places whitespace after the last token", func(t *testing.T) {
		codec := newTestCodec()
		l := persist.TokenLayout{
			Sections:      []int{0},
			SectionLayout: []persist.CollectionSectionLayout{section(3, 0, 0, 1, 4, 5)},
		}

		actual, err := codec.Decode([]persist.DBID{"A", "B", "C", "D", "E"}, l)
		require.NoError(t, err)

		assert.Equal(t, [][]string{{ws, ws, "A", ws, "B", "C", "D", ws, "E", ws}}, renderAll(actual))
	})

	t.Run("returns a single default section if there are no tokens", func(t *testing.T) {
		codec := newTestCodec()

		actual, err := codec.Decode(nil, persist.TokenLayout{Sections: []int{}, SectionLayout: []persist.CollectionSectionLayout{}})
		require.NoError(t, err)

		require.Equal(t, 1, actual.Len())
		s := actual.Sections()[0]
		assert.Empty(t, s.Items)
		assert.Equal(t, DefaultColumns, s.Columns)
	})

	t.Run("defaults unset columns", func(t *testing.T) {
		codec := newTestCodec()
		l := persist.TokenLayout{
			Sections:      []int{0},
			SectionLayout: []persist.CollectionSectionLayout{{}},
		}

		actual, err := codec.Decode([]persist.DBID{"A"}, l)
		require.NoError(t, err)

		assert.Equal(t, DefaultColumns, actual.Sections()[0].Columns)
	})

	t.Run("skips whitespace when ignored", func(t *testing.T) {
		codec := newTestCodec()
		l := persist.TokenLayout{
			Sections:      []int{0, 1},
			SectionLayout: []persist.CollectionSectionLayout{section(1, 0, 1), section(2, 1)},
		}

		actual, err := codec.Decode([]persist.DBID{"A", "B"}, l, IgnoreWhitespace())
		require.NoError(t, err)

		assert.Equal(t, [][]string{{"A"}, {"B"}}, renderAll(actual))
	})

	t.Run("keeps every token exactly once", func(t *testing.T) {
		codec := newTestCodec()
		tokens := []persist.DBID{"A", "B", "C", "D", "E", "F"}
		l := persist.TokenLayout{
			Sections:      []int{0, 2, 2, 5},
			SectionLayout: []persist.CollectionSectionLayout{section(1, 2), section(1), section(4, 0, 3), section(2)},
		}

		actual, err := codec.Decode(tokens, l)
		require.NoError(t, err)

		assert.Equal(t, tokens, codec.TokenIDs(actual))
		assert.Equal(t, 4, actual.Len())
		assert.Empty(t, actual.Sections()[1].Items)
	})
}

func TestDecodeInvalidLayout(t *testing.T) {
	tokens := []persist.DBID{"A", "B", "C"}

	cases := []struct {
		title   string
		layout  persist.TokenLayout
		section int
	}{
		{
			title:   "mismatched section layouts",
			layout:  persist.TokenLayout{Sections: []int{0, 1}, SectionLayout: []persist.CollectionSectionLayout{section(1)}},
			section: -1,
		},
		{
			title:   "no sections",
			layout:  persist.TokenLayout{},
			section: -1,
		},
		{
			title:   "first section not at zero",
			layout:  persist.TokenLayout{Sections: []int{1}, SectionLayout: []persist.CollectionSectionLayout{section(1)}},
			section: 0,
		},
		{
			title:   "decreasing offsets",
			layout:  persist.TokenLayout{Sections: []int{0, 2, 1}, SectionLayout: []persist.CollectionSectionLayout{section(1), section(1), section(1)}},
			section: 1,
		},
		{
			title:   "offset past the last token",
			layout:  persist.TokenLayout{Sections: []int{0, 4}, SectionLayout: []persist.CollectionSectionLayout{section(1), section(1)}},
			section: 0,
		},
		{
			title:   "whitespace past the last token",
			layout:  persist.TokenLayout{Sections: []int{0, 1}, SectionLayout: []persist.CollectionSectionLayout{section(1), section(1, 3)}},
			section: 1,
		},
		{
			title:   "negative whitespace",
			layout:  persist.TokenLayout{Sections: []int{0}, SectionLayout: []persist.CollectionSectionLayout{section(1, -1)}},
			section: 0,
		},
		{
			title:   "unsorted whitespace",
			layout:  persist.TokenLayout{Sections: []int{0}, SectionLayout: []persist.CollectionSectionLayout{section(1, 2, 1)}},
			section: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.title, func(t *testing.T) {
			_, err := newTestCodec().Decode(tokens, tc.layout)

			var invalid ErrInvalidLayout
			require.True(t, errors.As(err, &invalid), "expected ErrInvalidLayout, got %v", err)
			assert.Equal(t, tc.section, invalid.Section)
		})
	}
}

func TestEncode(t *testing.T) {
	t.Run("encodes offsets and whitespace positions", func(t *testing.T) {
		collection := NewStagedCollection[persist.DBID]()
		collection.Set("a", stage(2, "T1", ws, "T2", "T3"))
		collection.Set("b", stage(1, "T4", "T5"))

		actual := Encode(collection)

		assert.Equal(t, []int{0, 3}, actual.Sections)
		assert.Equal(t, []persist.CollectionSectionLayout{section(2, 1), section(1)}, actual.SectionLayout)
	})

	t.Run("counts whitespace against tokens only", func(t *testing.T) {
		collection := NewStagedCollection[persist.DBID]()
		collection.Set("a", stage(3, ws, ws, "A", ws, "B", "C", "D", ws, "E", ws))

		actual := Encode(collection)

		assert.Equal(t, []int{0}, actual.Sections)
		assert.Equal(t, []int{0, 0, 1, 4, 5}, actual.SectionLayout[0].Whitespace)
	})

	t.Run("drops sections without tokens", func(t *testing.T) {
		collection := NewStagedCollection[persist.DBID]()
		collection.Set("a", stage(1))
		collection.Set("b", stage(2, "A", ws))
		collection.Set("c", stage(3, ws, ws))
		collection.Set("d", stage(4, "B"))

		actual := Encode(collection)

		assert.Equal(t, []int{0, 1}, actual.Sections)
		assert.Equal(t, []persist.CollectionSectionLayout{section(2, 1), section(4)}, actual.SectionLayout)
	})

	t.Run("encodes an empty collection", func(t *testing.T) {
		actual := Encode(newTestCodec().Empty())

		assert.Empty(t, actual.Sections)
		assert.Empty(t, actual.SectionLayout)
	})

	t.Run("round trips through decode", func(t *testing.T) {
		codec := newTestCodec()
		collection := NewStagedCollection[persist.DBID]()
		collection.Set("a", stage(6, ws, "A", "B", ws, ws, "C"))
		collection.Set("b", stage(1, "D"))
		collection.Set("c", stage(3, "E", "F", ws))

		l := codec.Encode(collection)
		decoded, err := codec.Decode(codec.TokenIDs(collection), l)
		require.NoError(t, err)

		assert.Equal(t, renderAll(collection), renderAll(decoded))
		for i, s := range decoded.Sections() {
			assert.Equal(t, collection.Sections()[i].Columns, s.Columns)
		}
		assert.Equal(t, l, codec.Encode(decoded))
	})
}

func TestTokenIDs(t *testing.T) {
	codec := newTestCodec()
	collection := NewStagedCollection[persist.DBID]()
	collection.Set("a", stage(1, ws, "A", ws, "B"))
	collection.Set("b", stage(1, ws))
	collection.Set("c", stage(1, "C"))

	actual := codec.TokenIDs(collection)

	assert.Equal(t, []persist.DBID{"A", "B", "C"}, actual)
}

func TestRemoveTokens(t *testing.T) {
	codec := newTestCodec()
	collection := NewStagedCollection[persist.DBID]()
	collection.Set("a", stage(2, "A", ws, "B", "C"))
	collection.Set("b", stage(1, "D"))

	removed := codec.RemoveTokens(&collection, "B", "D", "Z")

	assert.Equal(t, 2, removed)
	assert.Equal(t, [][]string{{"A", ws, "C"}, {}}, renderAll(collection))

	l := codec.Encode(collection)
	assert.Equal(t, []int{0}, l.Sections)
	assert.Equal(t, []int{1}, l.SectionLayout[0].Whitespace)
}

func TestCustomTokenType(t *testing.T) {
	type token struct {
		ID   persist.DBID
		Name string
	}

	codec := NewCodec(func(t token) persist.DBID { return t.ID }, WithIDGenerator(NewSequentialIDGenerator("s")))
	tokens := []token{{ID: "1", Name: "one"}, {ID: "2", Name: "two"}}

	collection, err := codec.Decode(tokens, persist.TokenLayout{
		Sections:      []int{0},
		SectionLayout: []persist.CollectionSectionLayout{section(2, 1)},
	})
	require.NoError(t, err)

	assert.Equal(t, []persist.DBID{"1", "2"}, codec.TokenIDs(collection))
	assert.Equal(t, tokens, Tokens(collection))
}

func TestStagedCollection(t *testing.T) {
	t.Run("keeps insertion order", func(t *testing.T) {
		collection := NewStagedCollection[persist.DBID]()
		collection.Set("z", stage(1, "A"))
		collection.Set("a", stage(1, "B"))
		collection.Set("m", stage(1, "C"))
		collection.Set("a", stage(2, "D"))

		assert.Equal(t, []string{"z", "a", "m"}, collection.SectionIDs())
		assert.Equal(t, [][]string{{"A"}, {"D"}, {"C"}}, renderAll(collection))

		collection.Delete("a")
		assert.Equal(t, []string{"z", "m"}, collection.SectionIDs())
	})

	t.Run("serializes in section order", func(t *testing.T) {
		collection := NewStagedCollection[persist.DBID]()
		collection.Set("z", stage(2, "A", ws))
		collection.Set("a", stage(1, "B"))

		b, err := json.Marshal(collection)
		require.NoError(t, err)
		assert.JSONEq(t, `{"sections":[
			{"id":"z","columns":2,"items":[{"kind":"token","token":"A"},{"kind":"whitespace","id":"blank-b"}]},
			{"id":"a","columns":1,"items":[{"kind":"token","token":"B"}]}
		]}`, string(b))

		var decoded StagedCollection[persist.DBID]
		require.NoError(t, json.Unmarshal(b, &decoded))
		assert.Equal(t, collection.SectionIDs(), decoded.SectionIDs())
		assert.Equal(t, renderAll(collection), renderAll(decoded))
	})

	t.Run("rejects unknown item kinds", func(t *testing.T) {
		var decoded StagedCollection[persist.DBID]
		err := json.Unmarshal([]byte(`{"sections":[{"id":"a","columns":1,"items":[{"kind":"spacer"}]}]}`), &decoded)
		assert.Error(t, err)
	})
}
