// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bag provides a counting multiset used for transfer tallies.
package bag

import "sort"

// Bag tracks counts of elements.
type Bag[T comparable] struct {
	counts map[T]uint32
	size   uint32
}

// New creates an empty bag.
func New[T comparable]() Bag[T] {
	return Bag[T]{
		counts: make(map[T]uint32),
	}
}

// Add increments the count for an element.
func (b *Bag[T]) Add(element T) {
	b.counts[element]++
	b.size++
}

// AddCount adds multiple counts for an element.
func (b *Bag[T]) AddCount(element T, count uint32) {
	if count == 0 {
		return
	}
	b.counts[element] += count
	b.size += count
}

// Count returns the count for an element.
func (b *Bag[T]) Count(element T) uint32 {
	return b.counts[element]
}

// Len returns the total number of elements, with duplicates.
func (b *Bag[T]) Len() uint32 {
	return b.size
}

// List returns the unique elements in unspecified order.
func (b *Bag[T]) List() []T {
	list := make([]T, 0, len(b.counts))
	for element := range b.counts {
		list = append(list, element)
	}
	return list
}

// SortedList returns the unique elements ordered by less. Tallies that feed
// serialized output go through here so map iteration order never leaks into
// results.
func (b *Bag[T]) SortedList(less func(a, c T) bool) []T {
	list := b.List()
	sort.Slice(list, func(i, j int) bool { return less(list[i], list[j]) })
	return list
}
