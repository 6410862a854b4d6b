// Package stats holds the summary figures shown above every list screen.
// Every function is a pure reducer over an already loaded collection.
package stats

import "math"

// Percentage returns count/total*100 rounded to one decimal place.
// A zero or negative total yields 0.
func Percentage(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*1000) / 10
}

// CountIf counts the items matching pred.
func CountIf[T any](items []T, pred func(T) bool) int {
	n := 0
	for _, it := range items {
		if pred(it) {
			n++
		}
	}
	return n
}

// CountBy groups items by key and counts each group.
func CountBy[T any, K comparable](items []T, key func(T) K) map[K]int {
	counts := make(map[K]int)
	for _, it := range items {
		counts[key(it)]++
	}
	return counts
}

// Sum adds up a numeric field.
func Sum[T any](items []T, value func(T) float64) float64 {
	var total float64
	for _, it := range items {
		total += value(it)
	}
	return total
}

// SumIf adds up a numeric field over the items matching pred.
func SumIf[T any](items []T, pred func(T) bool, value func(T) float64) float64 {
	var total float64
	for _, it := range items {
		if pred(it) {
			total += value(it)
		}
	}
	return total
}
