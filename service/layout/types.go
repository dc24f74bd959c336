package layout

import (
	"encoding/json"
	"fmt"
)

// DefaultColumns is the column count given to sections whose layout doesn't set one
const DefaultColumns = 1

// whitespaceIDPrefix is prepended to generated whitespace block IDs
const whitespaceIDPrefix = "blank-"

// ItemKind discriminates the members of a staged section
type ItemKind int

const (
	ItemKindToken ItemKind = iota
	ItemKindWhitespace
)

func (k ItemKind) String() string {
	switch k {
	case ItemKindToken:
		return "token"
	case ItemKindWhitespace:
		return "whitespace"
	}
	return fmt.Sprintf("ItemKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler
func (k ItemKind) MarshalText() ([]byte, error) {
	switch k {
	case ItemKindToken, ItemKindWhitespace:
		return []byte(k.String()), nil
	}
	return nil, fmt.Errorf("unknown item kind: %d", int(k))
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *ItemKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "token":
		*k = ItemKindToken
	case "whitespace":
		*k = ItemKindWhitespace
	default:
		return fmt.Errorf("unknown item kind: %q", string(text))
	}
	return nil
}

// WhitespaceBlock is a gap a user inserted between tokens. It only exists while staged.
type WhitespaceBlock struct {
	ID string `json:"id" yaml:"id"`
}

// Item is either a token or a whitespace block
type Item[T any] struct {
	Kind       ItemKind
	Token      T
	Whitespace WhitespaceBlock
}

// TokenItem stages a token
func TokenItem[T any](token T) Item[T] {
	return Item[T]{Kind: ItemKindToken, Token: token}
}

// WhitespaceItem stages a whitespace block
func WhitespaceItem[T any](block WhitespaceBlock) Item[T] {
	return Item[T]{Kind: ItemKindWhitespace, Whitespace: block}
}

func (i Item[T]) IsToken() bool {
	return i.Kind == ItemKindToken
}

func (i Item[T]) IsWhitespace() bool {
	return i.Kind == ItemKindWhitespace
}

// Section is an ordered run of staged items rendered in a grid of Columns columns
type Section[T any] struct {
	Items   []Item[T]
	Columns int
}

// TokenCount returns the number of tokens in the section, excluding whitespace
func (s Section[T]) TokenCount() int {
	count := 0
	for _, item := range s.Items {
		if item.IsToken() {
			count++
		}
	}
	return count
}

// StagedCollection maps section IDs to sections. Iteration order is insertion order, which is
// the top-to-bottom display order of the sections.
type StagedCollection[T any] struct {
	ids      []string
	sections map[string]Section[T]
}

// NewStagedCollection returns an empty collection
func NewStagedCollection[T any]() StagedCollection[T] {
	return StagedCollection[T]{sections: make(map[string]Section[T])}
}

// Set adds a section to the end of the collection, or replaces it in place if the ID is already staged
func (c *StagedCollection[T]) Set(id string, section Section[T]) {
	if c.sections == nil {
		c.sections = make(map[string]Section[T])
	}
	if _, ok := c.sections[id]; !ok {
		c.ids = append(c.ids, id)
	}
	c.sections[id] = section
}

// Get returns the section with the given ID
func (c StagedCollection[T]) Get(id string) (Section[T], bool) {
	s, ok := c.sections[id]
	return s, ok
}

// Delete removes a section, keeping the order of the others
func (c *StagedCollection[T]) Delete(id string) {
	if _, ok := c.sections[id]; !ok {
		return
	}
	delete(c.sections, id)
	for i, sid := range c.ids {
		if sid == id {
			c.ids = append(c.ids[:i:i], c.ids[i+1:]...)
			break
		}
	}
}

// Len returns the number of sections
func (c StagedCollection[T]) Len() int {
	return len(c.ids)
}

// SectionIDs returns the section IDs in display order
func (c StagedCollection[T]) SectionIDs() []string {
	return append([]string{}, c.ids...)
}

// Sections returns the sections in display order
func (c StagedCollection[T]) Sections() []Section[T] {
	out := make([]Section[T], len(c.ids))
	for i, id := range c.ids {
		out[i] = c.sections[id]
	}
	return out
}

// View returns an ordered, serializable snapshot of the collection
func (c StagedCollection[T]) View() CollectionView[T] {
	view := CollectionView[T]{Sections: make([]SectionView[T], len(c.ids))}
	for i, id := range c.ids {
		section := c.sections[id]
		items := make([]ItemView[T], len(section.Items))
		for j, item := range section.Items {
			if item.IsToken() {
				token := item.Token
				items[j] = ItemView[T]{Kind: ItemKindToken.String(), Token: &token}
			} else {
				items[j] = ItemView[T]{Kind: ItemKindWhitespace.String(), ID: item.Whitespace.ID}
			}
		}
		view.Sections[i] = SectionView[T]{ID: id, Columns: section.Columns, Items: items}
	}
	return view
}

// MarshalJSON encodes the collection as its View, keeping section order
func (c StagedCollection[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.View())
}

// UnmarshalJSON decodes a collection previously encoded with MarshalJSON
func (c *StagedCollection[T]) UnmarshalJSON(b []byte) error {
	var view CollectionView[T]
	if err := json.Unmarshal(b, &view); err != nil {
		return err
	}
	collection, err := view.Collection()
	if err != nil {
		return err
	}
	*c = collection
	return nil
}

// CollectionView is the ordered, serializable form of a StagedCollection
type CollectionView[T any] struct {
	Sections []SectionView[T] `json:"sections" yaml:"sections"`
}

// SectionView is the serializable form of a Section
type SectionView[T any] struct {
	ID      string        `json:"id" yaml:"id"`
	Columns int           `json:"columns" yaml:"columns"`
	Items   []ItemView[T] `json:"items" yaml:"items"`
}

// ItemView is the serializable form of an Item. Token is set for tokens and ID for whitespace.
type ItemView[T any] struct {
	Kind  string `json:"kind" yaml:"kind"`
	Token *T     `json:"token,omitempty" yaml:"token,omitempty"`
	ID    string `json:"id,omitempty" yaml:"id,omitempty"`
}

// Collection converts the view back into a StagedCollection
func (v CollectionView[T]) Collection() (StagedCollection[T], error) {
	collection := NewStagedCollection[T]()
	for _, sv := range v.Sections {
		if _, ok := collection.sections[sv.ID]; ok {
			return StagedCollection[T]{}, fmt.Errorf("duplicate section id %q", sv.ID)
		}
		items := make([]Item[T], len(sv.Items))
		for i, iv := range sv.Items {
			var kind ItemKind
			if err := kind.UnmarshalText([]byte(iv.Kind)); err != nil {
				return StagedCollection[T]{}, fmt.Errorf("section %q item %d: %w", sv.ID, i, err)
			}
			switch kind {
			case ItemKindToken:
				if iv.Token == nil {
					return StagedCollection[T]{}, fmt.Errorf("section %q item %d: token is missing", sv.ID, i)
				}
				items[i] = TokenItem(*iv.Token)
			case ItemKindWhitespace:
				items[i] = WhitespaceItem[T](WhitespaceBlock{ID: iv.ID})
			}
		}
		collection.Set(sv.ID, Section[T]{Items: items, Columns: sv.Columns})
	}
	return collection, nil
}
