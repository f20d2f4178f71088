// Package internal holds iterator helpers shared by the tinyvm packages.
package internal

import (
	"cmp"
	"iter"
	"maps"
	"slices"
)

// Concat2 chains several key/value sequences into one.
// Later sequences may repeat keys of earlier ones; consumers that build
// maps from the result therefore see the last value win.
func Concat2[K any, V any](seqs ...iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, seq := range seqs {
			for key, value := range seq {
				if !yield(key, value) {
					return
				}
			}
		}
	}
}

// Sorted2 yields the entries of a map ordered by key.
func Sorted2[K cmp.Ordered, V any](m map[K]V) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, key := range slices.Sorted(maps.Keys(m)) {
			if !yield(key, m[key]) {
				return
			}
		}
	}
}

// SortedByValue yields the entries of a map ordered by value, then by key.
func SortedByValue[K cmp.Ordered, V cmp.Ordered](m map[K]V) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		keys := slices.SortedFunc(maps.Keys(m), func(a, b K) int {
			if c := cmp.Compare(m[a], m[b]); c != 0 {
				return c
			}
			return cmp.Compare(a, b)
		})
		for _, key := range keys {
			if !yield(key, m[key]) {
				return
			}
		}
	}
}
