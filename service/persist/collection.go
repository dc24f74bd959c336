package persist

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

const (
	minColumns          = 0
	maxColumns          = 10
	defaultColumns      = 3
	maxWhitespace       = 1000
	maxTokensPerSection = 1000
)

// TokenLayout defines the layout of a collection of tokens
type TokenLayout struct {
	// v0 settings
	Columns    int   `json:"columns,omitempty" yaml:"columns,omitempty"`
	Whitespace []int `json:"whitespace,omitempty" yaml:"whitespace,omitempty"`
	// v1 settings
	Sections      []int                     `json:"sections" yaml:"sections" validate:"sorted_asc,non_negative"`
	SectionLayout []CollectionSectionLayout `json:"section_layout" yaml:"section_layout" validate:"dive"`
}

// CollectionSectionLayout defines the layout of a section in a collection
type CollectionSectionLayout struct {
	Columns    NullInt32 `json:"columns" yaml:"columns" validate:"columns"`
	Whitespace []int     `json:"whitespace" yaml:"whitespace" validate:"sorted_asc,non_negative"`
}

// CollectionLayoutRecord is the part of a collection row that determines how its tokens are laid out.
// Tokens are stored in the flattened order that Layout.Sections indexes into.
type CollectionLayoutRecord struct {
	ID          DBID            `json:"id"`
	OwnerUserID DBID            `json:"owner_user_id"`
	Version     NullInt32       `json:"version"`
	Tokens      []DBID          `json:"tokens"`
	Layout      TokenLayout     `json:"layout"`
	LastUpdated LastUpdatedTime `json:"last_updated"`
}

// CollectionLayoutUpdateInput represents the data that will be changed when rewriting a collection's layout
type CollectionLayoutUpdateInput struct {
	Tokens []DBID      `json:"tokens"`
	Layout TokenLayout `json:"layout"`
	// LastUpdated must match the stored value for the update to apply
	LastUpdated LastUpdatedTime `json:"last_updated"`
}

// CollectionLayoutRepository represents the interface for reading and rewriting collection layouts
type CollectionLayoutRepository interface {
	GetByID(context.Context, DBID) (CollectionLayoutRecord, error)
	ListIDs(ctx context.Context, after DBID, limit int) ([]DBID, error)
	// FilterLiveTokens returns the subset of tokens that are not deleted and still belong to the owner, in input order
	FilterLiveTokens(ctx context.Context, ownerID DBID, tokens []DBID) ([]DBID, error)
	UpdateLayout(context.Context, DBID, CollectionLayoutUpdateInput) error
}

// ErrCollectionNotFoundByID is returned when a collection is not found by ID
type ErrCollectionNotFoundByID struct {
	ID DBID
}

// ErrStaleCollection is returned when a collection changed between reading and rewriting its layout
type ErrStaleCollection struct {
	ID DBID
}

// ErrInvalidLayout is returned when a layout is invalid
type ErrInvalidLayout struct {
	Layout CollectionSectionLayout
	Reason string
}

func (e ErrCollectionNotFoundByID) Error() string {
	return fmt.Sprintf("collection not found by id: %s", e.ID)
}

func (e ErrStaleCollection) Error() string {
	return fmt.Sprintf("collection %s was modified concurrently", e.ID)
}

func (e ErrInvalidLayout) Error() string {
	return fmt.Sprintf("invalid layout: %s - %+v", e.Reason, e.Layout)
}

// IsLegacy reports whether the layout only carries v0 settings
func (l TokenLayout) IsLegacy() bool {
	return len(l.Sections) == 0 && len(l.SectionLayout) == 0 && (l.Columns != 0 || len(l.Whitespace) > 0)
}

// ValidateLayout ensures a layout is within constraints and if has unset properties, sets their defaults
func ValidateLayout(layout TokenLayout, tokens []DBID) (TokenLayout, error) {
	if len(layout.Sections) != len(layout.SectionLayout) {
		return TokenLayout{}, ErrInvalidLayout{
			Reason: fmt.Sprintf("%d sections but %d section layouts", len(layout.Sections), len(layout.SectionLayout)),
		}
	}

	for i, start := range layout.Sections {
		if start < 0 || start > len(tokens) || (i > 0 && start < layout.Sections[i-1]) {
			return TokenLayout{}, ErrInvalidLayout{
				Layout: layout.SectionLayout[i],
				Reason: fmt.Sprintf("section %d starts at invalid position %d", i, start),
			}
		}
	}

	validatedSections := make([]CollectionSectionLayout, len(layout.SectionLayout))
	for i, section := range layout.SectionLayout {
		validated, err := validateSectionLayout(section, tokensInSection(i, tokens, layout.Sections))
		if err != nil {
			return TokenLayout{}, err
		}
		validatedSections[i] = validated
	}
	layout.SectionLayout = validatedSections

	return layout, nil
}

// DefaultLayout is the layout of a collection with all of its tokens in a single section
func DefaultLayout() TokenLayout {
	return TokenLayout{
		Sections:      []int{0},
		SectionLayout: []CollectionSectionLayout{{Columns: defaultColumns, Whitespace: []int{}}},
	}
}

// ApplyDefaultColumns returns a copy of layout where sections without a column count use the
// stored default, matching what ValidateLayout writes
func ApplyDefaultColumns(layout TokenLayout) TokenLayout {
	if layout.SectionLayout == nil {
		return layout
	}
	sections := make([]CollectionSectionLayout, len(layout.SectionLayout))
	for i, section := range layout.SectionLayout {
		if section.Columns == 0 {
			section.Columns = defaultColumns
		}
		sections[i] = section
	}
	layout.SectionLayout = sections
	return layout
}

// StandardizeCollectionSections formats the input sections to make it more convenient to parse.
func StandardizeCollectionSections(sections []int) []int {
	if len(sections) == 0 {
		return []int{0}
	}
	if sections[0] != 0 {
		return append([]int{0}, sections...)
	}
	return sections
}

// UpgradeLayout converts a v0 (or missing) layout into a single v1 section and makes sure the
// first section starts at the first token. Layouts that are already standard are returned as is.
func UpgradeLayout(layout TokenLayout) TokenLayout {
	if len(layout.Sections) == 0 && len(layout.SectionLayout) == 0 {
		columns := NullInt32(layout.Columns)
		if columns == 0 {
			columns = defaultColumns
		}
		return TokenLayout{
			Sections: []int{0},
			SectionLayout: []CollectionSectionLayout{{
				Columns:    columns,
				Whitespace: append([]int{}, layout.Whitespace...),
			}},
		}
	}

	if len(layout.Sections) == 0 {
		return layout
	}

	sections := StandardizeCollectionSections(layout.Sections)
	if len(sections) == len(layout.Sections) {
		return layout
	}

	// Tokens before the first stored offset were in an implicit leading section
	return TokenLayout{
		Sections:      sections,
		SectionLayout: append([]CollectionSectionLayout{{Columns: defaultColumns, Whitespace: []int{}}}, layout.SectionLayout...),
	}
}

// tokensInSection returns the number of tokens in a section.
func tokensInSection(sectionPos int, tokens []DBID, sections []int) int {
	if sectionPos+1 >= len(sections) {
		return len(tokens[sections[sectionPos]:])
	}
	return sections[sectionPos+1] - sections[sectionPos]
}

func validateSectionLayout(layout CollectionSectionLayout, sectionTokenCount int) (CollectionSectionLayout, error) {
	if layout.Columns < minColumns || layout.Columns > maxColumns {
		return CollectionSectionLayout{}, ErrInvalidLayout{
			Layout: layout,
			Reason: fmt.Sprintf("columns must be between %d-%d", minColumns, maxColumns),
		}
	}

	if layout.Columns == 0 {
		layout.Columns = defaultColumns
	}

	if ws := len(layout.Whitespace); ws > maxWhitespace {
		return CollectionSectionLayout{}, ErrInvalidLayout{
			Layout: layout,
			Reason: fmt.Sprintf("up to %d whitespace blocks permitted", maxWhitespace),
		}
	}

	for i, idx := range layout.Whitespace {
		if idx < 0 || idx > sectionTokenCount {
			return CollectionSectionLayout{}, ErrInvalidLayout{
				Layout: layout,
				Reason: fmt.Sprintf("position of whitespace at %d is invalid: %d", i, idx),
			}
		}
	}

	if sectionTokenCount > maxTokensPerSection {
		return CollectionSectionLayout{}, ErrInvalidLayout{
			Layout: layout,
			Reason: fmt.Sprintf("up to %d tokens per section permitted", maxTokensPerSection),
		}
	}

	if layout.Whitespace == nil {
		layout.Whitespace = []int{}
	}

	return layout, nil
}

// Value implements the driver.Valuer interface for the TokenLayout type
func (l TokenLayout) Value() (driver.Value, error) {
	return json.Marshal(l)
}

// Scan implements the Scanner interface for the TokenLayout type
func (l *TokenLayout) Scan(value interface{}) error {
	if value == nil {
		*l = TokenLayout{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into TokenLayout", value)
	}
}
