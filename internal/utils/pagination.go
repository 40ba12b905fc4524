// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import "strconv"

// AtoiDefault converts a string to an int using strconv.Atoi.
// If the string is empty or cannot be parsed as an integer,
// it returns the provided default value instead.
//
// Example:
//
//	n := utils.AtoiDefault("42", 0) // returns 42
//	n = utils.AtoiDefault("", 10)   // returns 10
//	n = utils.AtoiDefault("x", 5)   // returns 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Page is a normalized page/size pair.
type Page struct {
	Number int
	Size   int
}

// Offset returns the zero-based index of the first item on the page.
func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// TotalPages returns the number of pages needed for total items.
func (p Page) TotalPages(total int64) int {
	if total <= 0 || p.Size <= 0 {
		return 0
	}
	return int((total + int64(p.Size) - 1) / int64(p.Size))
}

// ParsePage reads page and size query values. Page defaults to 1, size
// defaults to def and is capped at max.
func ParsePage(page, size string, def, max int) Page {
	p := Page{Number: AtoiDefault(page, 1), Size: AtoiDefault(size, def)}
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = def
	}
	if p.Size > max {
		p.Size = max
	}
	return p
}
