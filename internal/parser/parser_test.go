package parser

import (
	"log/slog"
	"testing"

	"github.com/OCAP2/panopath/internal/export"
	"github.com/OCAP2/panopath/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser() *Parser {
	return NewParser(slog.Default())
}

func TestParseIntFromFloat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"integer", "3", 3, false},
		{"float", "3.0", 3, false},
		{"quoted", `"5"`, 5, false},
		{"negative", "-2", -2, false},
		{"fractional rejects", "1.5", 0, true},
		{"empty string", "", 0, true},
		{"non-numeric", "abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIntFromFloat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParsePoint(t *testing.T) {
	p := newTestParser()
	tests := []struct {
		name    string
		args    []string
		want    core.Vec3
		wantErr bool
	}{
		{"plain", []string{"1", "2.5", "-3"}, core.Vec3{X: 1, Y: 2.5, Z: -3}, false},
		{"quoted and spaced", []string{` "499.9"`, "0", "1e1"}, core.Vec3{X: 499.9, Z: 10}, false},
		{"extra args ignored", []string{"1", "0", "0", "junk"}, core.Vec3{X: 1}, false},
		{"too few", []string{"1", "2"}, core.Vec3{}, true},
		{"not a number", []string{"1", "y", "0"}, core.Vec3{}, true},
		{"NaN", []string{"NaN", "0", "0"}, core.Vec3{}, true},
		{"Inf", []string{"0", "+Inf", "0"}, core.Vec3{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ParsePoint(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCategory(t *testing.T) {
	p := newTestParser()

	c, err := p.ParseCategory([]string{`"ac"`})
	require.NoError(t, err)
	assert.Equal(t, core.CategoryAirCon, c)

	_, err = p.ParseCategory([]string{"XX"})
	assert.ErrorIs(t, err, core.ErrUnknownCategory)

	_, err = p.ParseCategory(nil)
	assert.Error(t, err)
}

func TestParseDigit(t *testing.T) {
	p := newTestParser()

	d, err := p.ParseDigit([]string{"4.0"})
	require.NoError(t, err)
	assert.Equal(t, 4, d)

	_, err = p.ParseDigit([]string{"four"})
	assert.Error(t, err)
	_, err = p.ParseDigit(nil)
	assert.Error(t, err)
}

func TestParseDocument(t *testing.T) {
	p := newTestParser()

	doc, err := p.ParseDocument([]string{`{"version":"1.0","timestamp":1,"imageSize":[4096,2048],
		"paths":[{"type":"EL","color":"#ffaa00","points":[[0.5,0.5],[0.75,0.5]]}]}`})
	require.NoError(t, err)
	require.Len(t, doc.Paths, 1)
	assert.Equal(t, core.CategoryElectrical, doc.Paths[0].Type)

	_, err = p.ParseDocument([]string{`{"paths":[]}`})
	assert.ErrorIs(t, err, export.ErrInvalidDocument)

	_, err = p.ParseDocument(nil)
	assert.Error(t, err)
}
