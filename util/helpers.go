package util

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dedupe removes duplicate elements from a slice, preserving the order of the remaining elements.
func Dedupe[T comparable](src []T, filterInPlace bool) []T {
	var result []T
	if filterInPlace {
		result = src[:0]
	} else {
		result = make([]T, 0, len(src))
	}
	seen := make(map[T]bool)
	for _, x := range src {
		if !seen[x] {
			result = append(result, x)
			seen[x] = true
		}
	}
	return result
}

// Difference returns the elements of a that are not in b, in the order they appear in a.
func Difference[T comparable](a, b []T) []T {
	exclude := make(map[T]bool, len(b))
	for _, x := range b {
		exclude[x] = true
	}
	result := make([]T, 0)
	for _, x := range a {
		if !exclude[x] {
			result = append(result, x)
		}
	}
	return result
}

// Chunk splits a slice into consecutive chunks of at most size elements.
func Chunk[T any](s []T, size int) [][]T {
	if size <= 0 {
		return [][]T{s}
	}
	chunks := make([][]T, 0, (len(s)+size-1)/size)
	for size < len(s) {
		s, chunks = s[size:], append(chunks, s[:size:size])
	}
	if len(s) > 0 {
		chunks = append(chunks, s)
	}
	return chunks
}

// FromPointer returns the value of a pointer, or the zero value of the pointer's type if the pointer is nil.
func FromPointer[T any](s *T) T {
	if s == nil {
		var zero T
		return zero
	}
	return *s
}

// ToPointer returns a pointer to the parameter. Useful for a value that would otherwise need to be assigned
// to a variable before becoming addressable.
func ToPointer[T any](v T) *T {
	return &v
}

// IntToPointerSlice returns a slice to pointers of integer values.
func IntToPointerSlice(s []int) []*int {
	ret := make([]*int, len(s))
	for idx, it := range s {
		ret[idx] = ToPointer(it)
	}
	return ret
}

// RemoveNilValues dereferences the non-nil members of a slice of pointers, dropping the nil ones.
func RemoveNilValues[T any](s []*T) []T {
	ret := make([]T, 0, len(s))
	for _, it := range s {
		if it != nil {
			ret = append(ret, *it)
		}
	}
	return ret
}

// FindFile finds a file relative to the working directory
// by searching outer directories up to the search depth.
// Mostly for testing purposes.
func FindFile(f string, searchDepth int) (string, error) {
	if _, err := os.Stat(f); err == nil {
		return f, nil
	}

	for i := 0; i < searchDepth; i++ {
		f = filepath.Join("..", f)
		if _, err := os.Stat(f); err == nil {
			return f, nil
		}
	}

	return "", fmt.Errorf("could not find file '%s' in path", f)
}
