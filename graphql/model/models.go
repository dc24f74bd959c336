package model

import (
	"github.com/mikeydub/go-gallery-layout/service/layout"
	"github.com/mikeydub/go-gallery-layout/service/persist"
	"github.com/mikeydub/go-gallery-layout/util"
)

// CollectionLayout is the layout of a collection as returned by the API. Every member is nullable.
type CollectionLayout struct {
	Sections      []*int                     `json:"sections"`
	SectionLayout []*CollectionSectionLayout `json:"sectionLayout"`
}

type CollectionSectionLayout struct {
	Columns    *int   `json:"columns"`
	Whitespace []*int `json:"whitespace"`
}

// CollectionLayoutInput is the layout sent when saving a collection
type CollectionLayoutInput struct {
	Sections      []int                           `json:"sections" yaml:"sections"`
	SectionLayout []*CollectionSectionLayoutInput `json:"sectionLayout" yaml:"sectionLayout"`
}

type CollectionSectionLayoutInput struct {
	Columns    int   `json:"columns" yaml:"columns"`
	Whitespace []int `json:"whitespace" yaml:"whitespace"`
}

// LayoutToLayoutModel converts a persisted layout to its API representation
func LayoutToLayoutModel(layout persist.TokenLayout) *CollectionLayout {
	output := CollectionLayout{
		Sections:      util.IntToPointerSlice(layout.Sections),
		SectionLayout: make([]*CollectionSectionLayout, len(layout.SectionLayout)),
	}

	for i, section := range layout.SectionLayout {
		columns := section.Columns.Int()
		output.SectionLayout[i] = &CollectionSectionLayout{
			Columns:    &columns,
			Whitespace: util.IntToPointerSlice(section.Whitespace),
		}
	}

	return &output
}

// ToTokenLayout drops null values from the layout. A null section layout is removed entirely
// and a null column count reads as unset.
func (l *CollectionLayout) ToTokenLayout() persist.TokenLayout {
	if l == nil {
		return persist.TokenLayout{Sections: []int{}, SectionLayout: []persist.CollectionSectionLayout{}}
	}

	output := persist.TokenLayout{
		Sections:      util.RemoveNilValues(l.Sections),
		SectionLayout: make([]persist.CollectionSectionLayout, 0, len(l.SectionLayout)),
	}

	for _, section := range l.SectionLayout {
		if section == nil {
			continue
		}
		output.SectionLayout = append(output.SectionLayout, persist.CollectionSectionLayout{
			Columns:    persist.NullInt32(util.FromPointer(section.Columns)),
			Whitespace: util.RemoveNilValues(section.Whitespace),
		})
	}

	return output
}

// LayoutToLayoutInput converts a persisted layout into the input of a save mutation
func LayoutToLayoutInput(layout persist.TokenLayout) CollectionLayoutInput {
	output := CollectionLayoutInput{
		Sections:      append([]int{}, layout.Sections...),
		SectionLayout: make([]*CollectionSectionLayoutInput, len(layout.SectionLayout)),
	}

	for i, section := range layout.SectionLayout {
		output.SectionLayout[i] = &CollectionSectionLayoutInput{
			Columns:    section.Columns.Int(),
			Whitespace: append([]int{}, section.Whitespace...),
		}
	}

	return output
}

// ToTokenLayout converts the input of a save mutation into a persisted layout
func (i CollectionLayoutInput) ToTokenLayout() persist.TokenLayout {
	output := persist.TokenLayout{
		Sections:      append([]int{}, i.Sections...),
		SectionLayout: make([]persist.CollectionSectionLayout, 0, len(i.SectionLayout)),
	}

	for _, section := range i.SectionLayout {
		if section == nil {
			continue
		}
		output.SectionLayout = append(output.SectionLayout, persist.CollectionSectionLayout{
			Columns:    persist.NullInt32(section.Columns),
			Whitespace: append([]int{}, section.Whitespace...),
		})
	}

	return output
}

// DecodeNullable stages tokens according to a layout as returned by the API, ignoring null members
func DecodeNullable[T any](codec *layout.Codec[T], tokens []T, l *CollectionLayout) (layout.StagedCollection[T], error) {
	return codec.Decode(tokens, l.ToTokenLayout())
}
