// internal/export/document.go
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/OCAP2/panopath/internal/geo"
	"github.com/OCAP2/panopath/pkg/core"
)

// Version is written into every path document.
const Version = "1.0"

// ErrInvalidDocument is returned by Parse for documents that cannot be imported.
var ErrInvalidDocument = errors.New("invalid path document")

// Document is the downloadable JSON path document
type Document struct {
	Version   string         `json:"version"`
	Timestamp int64          `json:"timestamp"` // unix millis
	ImageSize [2]int         `json:"imageSize"`
	Paths     []DocumentPath `json:"paths"`
}

// DocumentPath is one finalized path, in projected coordinates
type DocumentPath struct {
	Type   core.Category `json:"type"`
	Color  string        `json:"color"`
	Points []core.UV     `json:"points"`
}

// Build projects every path onto the panorama and assembles a document.
func Build(paths []core.Path, width, height int, now time.Time) (Document, error) {
	doc := Document{
		Version:   Version,
		Timestamp: now.UnixMilli(),
		ImageSize: [2]int{width, height},
		Paths:     make([]DocumentPath, 0, len(paths)),
	}
	for i, p := range paths {
		uvs, err := geo.ProjectPath(p.Points)
		if err != nil {
			return Document{}, fmt.Errorf("path %d (%s): %w", i, p.ID, err)
		}
		doc.Paths = append(doc.Paths, DocumentPath{
			Type:   p.Category,
			Color:  p.Color(),
			Points: uvs,
		})
	}
	return doc, nil
}

// Marshal encodes the document as indented JSON.
func Marshal(doc Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// Parse decodes a path document. Unknown fields are ignored so newer
// documents with additive fields still import.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if doc.Version == "" {
		return Document{}, fmt.Errorf("%w: missing version", ErrInvalidDocument)
	}
	for i, p := range doc.Paths {
		if len(p.Points) < 2 {
			return Document{}, fmt.Errorf("%w: path %d has %d points", ErrInvalidDocument, i, len(p.Points))
		}
	}
	return doc, nil
}

// UVs returns the projected point lists of every path, in document order.
func (d Document) UVs() [][]core.UV {
	out := make([][]core.UV, len(d.Paths))
	for i, p := range d.Paths {
		out[i] = append([]core.UV(nil), p.Points...)
	}
	return out
}
