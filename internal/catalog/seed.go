package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"vton/internal/domain"
)

// seed.json is a snapshot of the scraped storefront dataset; Reload treats
// it as the source of truth.
//
//go:embed seed.json
var seedJSON []byte

func seedGarments() ([]domain.Garment, error) {
	var garments []domain.Garment
	if err := json.Unmarshal(seedJSON, &garments); err != nil {
		return nil, fmt.Errorf("decode seed dataset: %w", err)
	}
	return garments, nil
}
