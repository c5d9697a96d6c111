// pkg/core/path.go
package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Strategy selects how a finalized path is turned into scene geometry.
type Strategy string

const (
	// StrategySegmented builds one cylinder per consecutive point pair.
	StrategySegmented Strategy = "segmented"
	// StrategyTube extrudes a tube along a smooth curve through all points.
	StrategyTube Strategy = "tube"
)

// ParseStrategy converts a config value into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategySegmented, "":
		return StrategySegmented, nil
	case StrategyTube:
		return StrategyTube, nil
	default:
		return "", fmt.Errorf("unknown path strategy: %s", s)
	}
}

// Path is a finalized annotation. Once created it is never modified; it only
// disappears through a clear-all.
type Path struct {
	ID        uuid.UUID `json:"id"`
	Category  Category  `json:"type"`
	Strategy  Strategy  `json:"strategy"`
	Points    []Vec3    `json:"points"`
	CreatedAt time.Time `json:"createdAt"`
}

// Color is the display color of the path's category.
func (p Path) Color() string {
	return p.Category.Color()
}
