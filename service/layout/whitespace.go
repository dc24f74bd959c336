package layout

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// InsertWhitespaceBlocks stages tokens and inserts one whitespace block for each saved position.
// Each position is the index of the token the block sits before, counting tokens only, so the
// insertion index is offset by the number of blocks already inserted. Positions must be sorted.
func InsertWhitespaceBlocks[T any](tokens []T, positions []int, gen IDGenerator) ([]Item[T], error) {
	result := make([]Item[T], 0, len(tokens)+len(positions))
	result = append(result, stageTokens(tokens)...)

	for offset, position := range positions {
		if position < 0 || position > len(tokens) {
			return nil, ErrInvalidLayout{
				Section: -1,
				Reason:  fmt.Sprintf("whitespace position %d is out of range for %d tokens", position, len(tokens)),
			}
		}
		if offset > 0 && position < positions[offset-1] {
			return nil, ErrInvalidLayout{
				Section: -1,
				Reason:  fmt.Sprintf("whitespace position %d comes after position %d", position, positions[offset-1]),
			}
		}
		result = slices.Insert(result, position+offset, WhitespaceItem[T](newWhitespaceBlock(gen)))
	}

	return result, nil
}

// WhitespacePositions returns, for every whitespace block in items, the number of tokens before it
func WhitespacePositions[T any](items []Item[T]) []int {
	tokenIndex := 0
	positions := []int{}
	for _, item := range items {
		if item.IsToken() {
			tokenIndex++
		} else {
			positions = append(positions, tokenIndex)
		}
	}
	return positions
}

// RemoveWhitespace returns the tokens of items in order
func RemoveWhitespace[T any](items []Item[T]) []T {
	tokens := make([]T, 0, len(items))
	for _, item := range items {
		if item.IsToken() {
			tokens = append(tokens, item.Token)
		}
	}
	return tokens
}

func stageTokens[T any](tokens []T) []Item[T] {
	items := make([]Item[T], len(tokens))
	for i, token := range tokens {
		items[i] = TokenItem(token)
	}
	return items
}
