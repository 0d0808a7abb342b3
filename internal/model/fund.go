package model

import "fmt"

// AssetCategory selects the rule table used by the signal classifier.
type AssetCategory string

const (
	CategoryBrokerage          AssetCategory = "brokerage"
	CategoryDefensiveCommodity AssetCategory = "defensive_commodity"
	CategoryUSIndex            AssetCategory = "us_index"
	CategoryHighVolTech        AssetCategory = "high_vol_tech"
	CategoryBandWatch          AssetCategory = "band_watch"
	CategoryDefault            AssetCategory = "default"
)

// ParseAssetCategory validates a category name from configuration.
func ParseAssetCategory(s string) (AssetCategory, error) {
	switch c := AssetCategory(s); c {
	case CategoryBrokerage, CategoryDefensiveCommodity, CategoryUSIndex,
		CategoryHighVolTech, CategoryBandWatch, CategoryDefault:
		return c, nil
	}
	return "", fmt.Errorf("unknown asset category %q", s)
}

// Fund is one watchlist entry with its category already resolved.
type Fund struct {
	Code     string        `json:"code"`
	Name     string        `json:"name"`
	Category AssetCategory `json:"category"`
}
