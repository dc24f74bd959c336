package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/mikeydub/go-gallery-layout/service/layout"
	"github.com/mikeydub/go-gallery-layout/service/persist"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDecodeCmd(t *testing.T) {
	stored := `{"sections":[0,2],"section_layout":[{"columns":2,"whitespace":[0,1]},{"columns":null,"whitespace":[]}]}`

	t.Run("stages tokens and whitespace", func(t *testing.T) {
		out, err := execute(t, stored, "decode", "--tokens", "a,b,c", "-")
		require.NoError(t, err)

		var view layout.CollectionView[persist.DBID]
		require.NoError(t, json.Unmarshal([]byte(out), &view))

		require.Len(t, view.Sections, 2)
		assert.Equal(t, 2, view.Sections[0].Columns)
		assert.Equal(t, []string{"whitespace", "token", "whitespace", "token"}, kinds(view.Sections[0]))
		assert.Equal(t, layout.DefaultColumns, view.Sections[1].Columns)
		assert.Equal(t, persist.DBID("c"), *view.Sections[1].Items[0].Token)
	})

	t.Run("prints yaml", func(t *testing.T) {
		out, err := execute(t, stored, "decode", "--tokens", "a,b,c", "--ignore-whitespace", "-o", "yaml", "-")
		require.NoError(t, err)

		var view layout.CollectionView[persist.DBID]
		require.NoError(t, yaml.Unmarshal([]byte(out), &view))
		assert.Equal(t, []string{"token", "token"}, kinds(view.Sections[0]))
	})

	t.Run("reads mutation variables", func(t *testing.T) {
		vars := `{"collectionId":"c1","layout":{"sections":[0],"sectionLayout":[{"columns":3,"whitespace":[2]}]}}`
		out, err := execute(t, vars, "decode", "--graphql", "--tokens", "a,b", "-")
		require.NoError(t, err)

		var view layout.CollectionView[persist.DBID]
		require.NoError(t, json.Unmarshal([]byte(out), &view))
		assert.Equal(t, []string{"token", "token", "whitespace"}, kinds(view.Sections[0]))
	})

	t.Run("rejects layouts that do not fit", func(t *testing.T) {
		_, err := execute(t, `{"sections":[0,5],"section_layout":[{},{}]}`, "decode", "--tokens", "a,b", "-")
		assert.Error(t, err)
	})

	t.Run("rejects unknown output formats", func(t *testing.T) {
		_, err := execute(t, stored, "decode", "--tokens", "a,b,c", "-o", "xml", "-")
		assert.Error(t, err)
	})
}

func TestEncodeCmd(t *testing.T) {
	staged := `
sections:
- id: s1
  columns: 2
  items:
  - kind: token
    token: a
  - kind: whitespace
    id: blank-1
  - kind: token
    token: b
- id: s2
  columns: 4
  items:
  - kind: whitespace
    id: blank-2
- id: s3
  columns: 1
  items:
  - kind: token
    token: c
`
	out, err := execute(t, staged, "encode", "-")
	require.NoError(t, err)

	var encoded encodedCollection
	require.NoError(t, json.Unmarshal([]byte(out), &encoded))

	assert.Equal(t, []persist.DBID{"a", "b", "c"}, encoded.Tokens)
	assert.Equal(t, []int{0, 2}, encoded.Layout.Sections)
	assert.Equal(t, []persist.CollectionSectionLayout{
		{Columns: 2, Whitespace: []int{1}},
		{Columns: 1, Whitespace: []int{}},
	}, encoded.Layout.SectionLayout)
}

func TestValidateCmd(t *testing.T) {
	t.Run("fills in defaults", func(t *testing.T) {
		out, err := execute(t, `{"sections":[0],"section_layout":[{"columns":0}]}`, "validate", "--tokens", "a,b", "-")
		require.NoError(t, err)

		var validated persist.TokenLayout
		require.NoError(t, json.Unmarshal([]byte(out), &validated))
		assert.Equal(t, persist.DefaultLayout(), validated)
	})

	t.Run("rejects duplicate tokens", func(t *testing.T) {
		_, err := execute(t, `{"sections":[0],"section_layout":[{"columns":1}]}`, "validate", "--tokens", "a,a", "-")
		assert.Error(t, err)
	})
}

func TestUpgradeCmd(t *testing.T) {
	out, err := execute(t, "columns: 5\nwhitespace: [1, 2]\n", "upgrade", "-")
	require.NoError(t, err)

	var upgraded persist.TokenLayout
	require.NoError(t, json.Unmarshal([]byte(out), &upgraded))
	assert.Equal(t, persist.TokenLayout{
		Sections:      []int{0},
		SectionLayout: []persist.CollectionSectionLayout{{Columns: 5, Whitespace: []int{1, 2}}},
	}, upgraded)
}

func kinds(section layout.SectionView[persist.DBID]) []string {
	out := make([]string, len(section.Items))
	for i, item := range section.Items {
		out[i] = item.Kind
	}
	return out
}
