// Package layout converts between the persisted layout of a collection and the staged,
// section-by-section representation used while a collection is being edited.
//
// A persisted layout stores the tokens of a collection as one flat list. Layout.Sections holds
// the offset of each section's first token in that list, and each entry of Layout.SectionLayout
// holds the section's column count and its whitespace positions. A whitespace position is the
// index, among the section's tokens only, of the token the gap sits before. For example the
// staged items
//
//	[x, x, A, x, B, C, D, x, E, x]
//
// (x is whitespace) have the tokens [A, B, C, D, E] and the whitespace list [0, 0, 1, 4, 5].
package layout
