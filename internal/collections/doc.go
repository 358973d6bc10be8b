// Package collections maps, orders and filters the listing and taxonomy
// feeds held in a snapshot.
//
// Event listings are ordered by timestamp. Every other collection is ordered
// by title or name using English collation, with byte order breaking ties so
// that distinct names always have a fixed order. Filters never modify their
// input.
package collections
