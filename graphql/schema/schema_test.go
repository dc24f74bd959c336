package schema

import (
	"encoding/json"
	"testing"

	"github.com/mikeydub/go-gallery-layout/graphql/model"
	"github.com/mikeydub/go-gallery-layout/service/persist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func variables(t *testing.T, raw string) map[string]any {
	var vars map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &vars))
	return vars
}

func TestSchema(t *testing.T) {
	s, err := Schema()
	require.NoError(t, err)
	assert.NotNil(t, s.Types["CollectionLayoutInput"])
	assert.NotNil(t, s.Mutation.Fields.ForName("updateCollectionLayout"))
}

func TestValidateLayoutInput(t *testing.T) {
	t.Run("coerces a valid layout", func(t *testing.T) {
		vars := variables(t, `{
			"collectionId": "2Mk3Gh",
			"layout": {
				"sections": [0, 2],
				"sectionLayout": [
					{"columns": 3, "whitespace": [0, 0, 1]},
					{"columns": 1, "whitespace": []}
				]
			}
		}`)

		id, input, err := ValidateLayoutInput(vars)
		require.NoError(t, err)

		assert.Equal(t, persist.DBID("2Mk3Gh"), id)
		assert.Equal(t, model.CollectionLayoutInput{
			Sections: []int{0, 2},
			SectionLayout: []*model.CollectionSectionLayoutInput{
				{Columns: 3, Whitespace: []int{0, 0, 1}},
				{Columns: 1, Whitespace: []int{}},
			},
		}, input)
	})

	cases := []struct {
		title string
		vars  string
	}{
		{
			title: "missing layout",
			vars:  `{"collectionId": "2Mk3Gh"}`,
		},
		{
			title: "null layout",
			vars:  `{"collectionId": "2Mk3Gh", "layout": null}`,
		},
		{
			title: "null section offset",
			vars:  `{"collectionId": "2Mk3Gh", "layout": {"sections": [0, null], "sectionLayout": []}}`,
		},
		{
			title: "null section layout",
			vars:  `{"collectionId": "2Mk3Gh", "layout": {"sections": [0], "sectionLayout": [null]}}`,
		},
		{
			title: "missing whitespace",
			vars:  `{"collectionId": "2Mk3Gh", "layout": {"sections": [0], "sectionLayout": [{"columns": 2}]}}`,
		},
		{
			title: "string columns",
			vars:  `{"collectionId": "2Mk3Gh", "layout": {"sections": [0], "sectionLayout": [{"columns": "two", "whitespace": []}]}}`,
		},
		{
			title: "unknown field",
			vars:  `{"collectionId": "2Mk3Gh", "layout": {"sections": [0], "sectionLayout": [], "columns": 3}}`,
		},
		{
			title: "fractional whitespace",
			vars:  `{"collectionId": "2Mk3Gh", "layout": {"sections": [0], "sectionLayout": [{"columns": 1, "whitespace": [1.5]}]}}`,
		},
		{
			title: "unsorted whitespace",
			vars:  `{"collectionId": "2Mk3Gh", "layout": {"sections": [0], "sectionLayout": [{"columns": 1, "whitespace": [2, 1]}]}}`,
		},
		{
			title: "too many columns",
			vars:  `{"collectionId": "2Mk3Gh", "layout": {"sections": [0], "sectionLayout": [{"columns": 11, "whitespace": []}]}}`,
		},
		{
			title: "mismatched sections",
			vars:  `{"collectionId": "2Mk3Gh", "layout": {"sections": [0, 2], "sectionLayout": [{"columns": 1, "whitespace": []}]}}`,
		},
	}

	for _, tc := range cases {
		t.Run("rejects "+tc.title, func(t *testing.T) {
			_, _, err := ValidateLayoutInput(variables(t, tc.vars))
			assert.Error(t, err)
		})
	}
}

func TestValidateLayoutQuery(t *testing.T) {
	id, err := ValidateLayoutQuery(map[string]any{"collectionId": "2Mk3Gh"})
	require.NoError(t, err)
	assert.Equal(t, persist.DBID("2Mk3Gh"), id)

	_, err = ValidateLayoutQuery(map[string]any{})
	assert.Error(t, err)
}
