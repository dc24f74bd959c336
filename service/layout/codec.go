package layout

import (
	"errors"
	"fmt"

	"github.com/mikeydub/go-gallery-layout/service/persist"
)

// Codec converts between persisted layouts and staged collections of tokens of type T
type Codec[T any] struct {
	tokenID func(T) persist.DBID
	newID   IDGenerator
}

type codecOptions struct {
	newID IDGenerator
}

// CodecOption configures a Codec
type CodecOption func(*codecOptions)

// WithIDGenerator sets the generator used for section and whitespace IDs
func WithIDGenerator(gen IDGenerator) CodecOption {
	return func(o *codecOptions) {
		o.newID = gen
	}
}

// NewCodec returns a Codec for tokens identified by tokenID
func NewCodec[T any](tokenID func(T) persist.DBID, opts ...CodecOption) *Codec[T] {
	o := codecOptions{newID: Generate12CharacterID}
	for _, opt := range opts {
		opt(&o)
	}
	return &Codec[T]{tokenID: tokenID, newID: o.newID}
}

// NewDBIDCodec returns a Codec whose tokens are their own IDs
func NewDBIDCodec(opts ...CodecOption) *Codec[persist.DBID] {
	return NewCodec(func(id persist.DBID) persist.DBID { return id }, opts...)
}

type decodeOptions struct {
	ignoreWhitespace bool
}

// DecodeOption configures a single Decode call
type DecodeOption func(*decodeOptions)

// IgnoreWhitespace skips staging whitespace blocks
func IgnoreWhitespace() DecodeOption {
	return func(o *decodeOptions) {
		o.ignoreWhitespace = true
	}
}

// Empty returns a collection with a single empty section
func (c *Codec[T]) Empty() StagedCollection[T] {
	collection := NewStagedCollection[T]()
	collection.Set(c.newID(), Section[T]{Items: []Item[T]{}, Columns: DefaultColumns})
	return collection
}

// Decode stages tokens according to a persisted layout. tokens must be in the flattened order that
// l.Sections indexes into. A collection without tokens decodes to a single empty section.
func (c *Codec[T]) Decode(tokens []T, l persist.TokenLayout, opts ...DecodeOption) (StagedCollection[T], error) {
	var o decodeOptions
	for _, opt := range opts {
		opt(&o)
	}

	if len(tokens) == 0 {
		return c.Empty(), nil
	}

	if len(l.Sections) != len(l.SectionLayout) {
		return StagedCollection[T]{}, ErrInvalidLayout{
			Section: -1,
			Reason:  fmt.Sprintf("%d sections but %d section layouts", len(l.Sections), len(l.SectionLayout)),
		}
	}

	if len(l.Sections) == 0 {
		return StagedCollection[T]{}, ErrInvalidLayout{
			Section: -1,
			Reason:  fmt.Sprintf("no sections for %d tokens", len(tokens)),
		}
	}

	if l.Sections[0] != 0 {
		return StagedCollection[T]{}, ErrInvalidLayout{
			Section: 0,
			Reason:  fmt.Sprintf("first section starts at %d instead of 0", l.Sections[0]),
		}
	}

	collection := NewStagedCollection[T]()

	for i, start := range l.Sections {
		end := len(tokens)
		if i+1 < len(l.Sections) {
			end = l.Sections[i+1]
		}

		if end < start {
			return StagedCollection[T]{}, ErrInvalidLayout{
				Section: i,
				Reason:  fmt.Sprintf("starts at %d after the next section at %d", start, end),
			}
		}

		if end > len(tokens) {
			return StagedCollection[T]{}, ErrInvalidLayout{
				Section: i,
				Reason:  fmt.Sprintf("ends at %d but there are %d tokens", end, len(tokens)),
			}
		}

		sectionLayout := l.SectionLayout[i]

		var items []Item[T]
		if o.ignoreWhitespace {
			items = stageTokens(tokens[start:end])
		} else {
			var err error
			items, err = InsertWhitespaceBlocks(tokens[start:end], sectionLayout.Whitespace, c.newID)
			if err != nil {
				var invalid ErrInvalidLayout
				if errors.As(err, &invalid) {
					invalid.Section = i
					return StagedCollection[T]{}, invalid
				}
				return StagedCollection[T]{}, err
			}
		}

		columns := sectionLayout.Columns.Int()
		if columns <= 0 {
			columns = DefaultColumns
		}

		id := c.newID()
		if _, ok := collection.Get(id); ok {
			return StagedCollection[T]{}, fmt.Errorf("generated duplicate section id %q", id)
		}
		collection.Set(id, Section[T]{Items: items, Columns: columns})
	}

	return collection, nil
}

// Encode returns the persisted layout of a staged collection. See Encode.
func (c *Codec[T]) Encode(collection StagedCollection[T]) persist.TokenLayout {
	return Encode(collection)
}

// Encode returns the persisted layout of a staged collection. Sections without tokens are dropped
// and take up no offset, so decoding the result never restores them.
func Encode[T any](collection StagedCollection[T]) persist.TokenLayout {
	l := persist.TokenLayout{
		Sections:      []int{},
		SectionLayout: []persist.CollectionSectionLayout{},
	}

	start := 0
	for _, section := range collection.Sections() {
		count := section.TokenCount()
		if count == 0 {
			continue
		}

		l.Sections = append(l.Sections, start)
		l.SectionLayout = append(l.SectionLayout, persist.CollectionSectionLayout{
			Columns:    persist.NullInt32(section.Columns),
			Whitespace: WhitespacePositions(section.Items),
		})
		start += count
	}

	return l
}

// Tokens returns the tokens of a collection in order, without whitespace
func Tokens[T any](collection StagedCollection[T]) []T {
	tokens := make([]T, 0)
	for _, section := range collection.Sections() {
		tokens = append(tokens, RemoveWhitespace(section.Items)...)
	}
	return tokens
}

// TokenIDs returns the IDs of the tokens of a collection in order, without whitespace
func (c *Codec[T]) TokenIDs(collection StagedCollection[T]) []persist.DBID {
	tokens := Tokens(collection)
	ids := make([]persist.DBID, len(tokens))
	for i, token := range tokens {
		ids[i] = c.tokenID(token)
	}
	return ids
}

// RemoveTokens unstages every token whose ID is in ids and returns how many were removed.
// Whitespace stays where it is and sections left without tokens are kept until encoded.
func (c *Codec[T]) RemoveTokens(collection *StagedCollection[T], ids ...persist.DBID) int {
	if len(ids) == 0 {
		return 0
	}

	remove := make(map[persist.DBID]bool, len(ids))
	for _, id := range ids {
		remove[id] = true
	}

	removed := 0
	for _, sectionID := range collection.SectionIDs() {
		section, _ := collection.Get(sectionID)
		items := make([]Item[T], 0, len(section.Items))
		for _, item := range section.Items {
			if item.IsToken() && remove[c.tokenID(item.Token)] {
				removed++
				continue
			}
			items = append(items, item)
		}
		section.Items = items
		collection.Set(sectionID, section)
	}

	return removed
}

// InsertWhitespace stages tokens with freshly generated whitespace blocks. See InsertWhitespaceBlocks.
func (c *Codec[T]) InsertWhitespace(tokens []T, positions []int) ([]Item[T], error) {
	return InsertWhitespaceBlocks(tokens, positions, c.newID)
}
