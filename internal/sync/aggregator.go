package sync

import (
	"strings"

	"stylesync/internal/catalog"
	"stylesync/internal/services/ssactivewear"
)

// Maps is the flattened matrix view of a style's color rows that the
// reconciler builds variants from. Outer keys are color names, inner keys
// size names; ImageBySKU is keyed by variant SKU.
type Maps struct {
	ColorSizes      map[string][]string
	ColorSizeSKUs   map[string]map[string]string
	ColorSizeQtys   map[string]map[string]int
	ColorSizePrices map[string]map[string]float64
	ImageBySKU      map[string]string

	colorOrder []string
}

// Colors returns the included color names in distributor order.
func (m *Maps) Colors() []string {
	return m.colorOrder
}

// Sizes returns the union of size names across all included colors, in
// first-seen order.
func (m *Maps) Sizes() []string {
	seen := map[string]bool{}
	sizes := []string{}
	for _, color := range m.colorOrder {
		for _, size := range m.ColorSizes[color] {
			if seen[size] {
				continue
			}
			seen[size] = true
			sizes = append(sizes, size)
		}
	}
	return sizes
}

// Empty reports whether no color survived selection.
func (m *Maps) Empty() bool {
	return len(m.colorOrder) == 0
}

// Aggregate folds grouped color records into variant-building maps,
// restricted to the selected color names. An empty selection includes every
// color. Quantities for a color/size pair that appears twice accumulate;
// image URLs are resolved against the CDN base. Pure function of its inputs.
func Aggregate(colors []ssactivewear.ColorRecord, selected []string, cdnBaseURL string) *Maps {
	include := map[string]bool{}
	for _, name := range selected {
		name = strings.TrimSpace(name)
		if name != "" {
			include[name] = true
		}
	}

	maps := &Maps{
		ColorSizes:      map[string][]string{},
		ColorSizeSKUs:   map[string]map[string]string{},
		ColorSizeQtys:   map[string]map[string]int{},
		ColorSizePrices: map[string]map[string]float64{},
		ImageBySKU:      map[string]string{},
	}

	for _, color := range colors {
		name := strings.TrimSpace(color.ColorName)
		if name == "" {
			continue
		}
		if len(include) > 0 && !include[name] {
			continue
		}

		if _, exists := maps.ColorSizes[name]; !exists {
			maps.colorOrder = append(maps.colorOrder, name)
			maps.ColorSizes[name] = []string{}
			maps.ColorSizeSKUs[name] = map[string]string{}
			maps.ColorSizeQtys[name] = map[string]int{}
			maps.ColorSizePrices[name] = map[string]float64{}
		}

		for _, size := range color.SizeNames {
			maps.ColorSizes[name] = appendUnique(maps.ColorSizes[name], size)

			if sku, ok := color.SizeSkus[size]; ok && sku != "" {
				maps.ColorSizeSKUs[name][size] = sku
				if color.ColorFrontImage != "" {
					maps.ImageBySKU[sku] = catalog.ResolveImageURL(cdnBaseURL, color.ColorFrontImage)
				}
			}
			if price, ok := color.SizePrices[size]; ok {
				maps.ColorSizePrices[name][size] = price
			}
			if qty, ok := color.SizeQtys[size]; ok {
				maps.ColorSizeQtys[name][size] += qty
			}
		}
	}

	return maps
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
