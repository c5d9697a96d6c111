// pkg/core/category.go
package core

import (
	"errors"
	"fmt"
	"strings"
)

// Category identifies the kind of route a path annotates.
type Category string

const (
	CategoryElectrical Category = "EL"
	CategoryAirCon     Category = "AC"
	CategoryWaterPipe  Category = "WP"
	CategoryWaste      Category = "WA"
	CategoryGas        Category = "GS"
)

// Categories lists every category in keyboard order (digit 1 is the first).
var Categories = []Category{
	CategoryElectrical,
	CategoryAirCon,
	CategoryWaterPipe,
	CategoryWaste,
	CategoryGas,
}

var categoryColors = map[Category]string{
	CategoryElectrical: "#ffaa00",
	CategoryAirCon:     "#00ccff",
	CategoryWaterPipe:  "#0066ff",
	CategoryWaste:      "#66cc33",
	CategoryGas:        "#ff3333",
}

// ErrUnknownCategory is returned for category codes outside the fixed set.
var ErrUnknownCategory = errors.New("unknown path category")

// ParseCategory accepts a category code in any letter case.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := categoryColors[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// CategoryForDigit maps keyboard digits 1-5 to categories.
func CategoryForDigit(d int) (Category, error) {
	if d < 1 || d > len(Categories) {
		return "", fmt.Errorf("%w: digit %d", ErrUnknownCategory, d)
	}
	return Categories[d-1], nil
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	_, ok := categoryColors[c]
	return ok
}

// Color returns the display color as "#RRGGBB". Unknown categories render white.
func (c Category) Color() string {
	if col, ok := categoryColors[c]; ok {
		return col
	}
	return "#ffffff"
}
