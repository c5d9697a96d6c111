// internal/parser/parser.go

// Package parser turns raw command arguments into typed values for the
// handlers. Arguments arrive as strings from the WebSocket or the CLI.
package parser

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/OCAP2/panopath/internal/export"
	"github.com/OCAP2/panopath/pkg/core"
)

// trimQuotes removes surrounding double quotes and spaces.
func trimQuotes(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}

// parseFloat parses a finite float.
func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(trimQuotes(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("parseFloat: %q is not finite", s)
	}
	return f, nil
}

// parseIntFromFloat parses a string that may be an integer or float into int64.
// Browsers serialize every number as a JS double, so "3" and "3.0" are both valid.
func parseIntFromFloat(s string) (int64, error) {
	s = trimQuotes(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("parseIntFromFloat: %q is not a valid int64", s)
	}
	return int64(f), nil
}

// Parser provides pure []string -> typed value conversion.
// It has zero external dependencies beyond a logger.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// ParsePoint reads a surface point from args [x, y, z].
func (p *Parser) ParsePoint(args []string) (core.Vec3, error) {
	if len(args) < 3 {
		return core.Vec3{}, fmt.Errorf("point needs 3 coordinates, got %d", len(args))
	}
	var xyz [3]float64
	for i := range xyz {
		f, err := parseFloat(args[i])
		if err != nil {
			return core.Vec3{}, fmt.Errorf("coordinate %d: %w", i, err)
		}
		xyz[i] = f
	}
	return core.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

// ParseCategory reads a category code from args[0].
func (p *Parser) ParseCategory(args []string) (core.Category, error) {
	if len(args) < 1 {
		return "", fmt.Errorf("missing category")
	}
	return core.ParseCategory(trimQuotes(args[0]))
}

// ParseDigit reads a category shortcut digit from args[0].
func (p *Parser) ParseDigit(args []string) (int, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("missing digit")
	}
	d, err := parseIntFromFloat(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid digit: %w", err)
	}
	return int(d), nil
}

// ParseDocument reads an export document from args[0].
func (p *Parser) ParseDocument(args []string) (export.Document, error) {
	if len(args) < 1 {
		return export.Document{}, fmt.Errorf("missing document")
	}
	doc, err := export.Parse([]byte(args[0]))
	if err != nil {
		return export.Document{}, err
	}
	p.logger.Debug("Parsed path document", "version", doc.Version, "paths", len(doc.Paths))
	return doc, nil
}
