package ssactivewear

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/clbanning/mxj/v2"
)

// maxScalarDepth bounds the recursive descent of ExtractScalar so a
// pathologically nested payload cannot exhaust the stack.
const maxScalarDepth = 8

// ExtractScalar unwraps the inconsistent scalar shapes the distributor API
// produces: JSON responses hand back plain values where the XML-derived ones
// wrap the same field in a single-element list or map. Descends into the
// first element until a scalar is reached; returns "" for anything else.
func ExtractScalar(value interface{}) string {
	return extractScalar(value, 0)
}

func extractScalar(value interface{}, depth int) string {
	if depth > maxScalarDepth {
		return ""
	}

	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case []interface{}:
		if len(v) == 0 {
			return ""
		}
		return extractScalar(v[0], depth+1)
	case map[string]interface{}:
		if len(v) == 0 {
			return ""
		}
		// No positional "first" in a map; take the first key in sorted
		// order so repeated parses of the same payload agree.
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return extractScalar(v[keys[0]], depth+1)
	default:
		return ""
	}
}

// SumWarehouseQty totals the per-warehouse quantities of one SKU row. The
// warehouse list arrives under either key casing, sometimes nested one level,
// and a single warehouse may come through as a bare record instead of a
// one-element list. Returns 0 when the shape matches none of those.
func SumWarehouseQty(item map[string]interface{}) int {
	raw := pick(item, "warehouses", "Warehouses")
	if raw == nil {
		return 0
	}

	if m, ok := raw.(map[string]interface{}); ok {
		if inner := pick(m, "warehouse", "Warehouse"); inner != nil {
			raw = inner
		}
	}

	var rows []interface{}
	switch v := raw.(type) {
	case []interface{}:
		rows = v
	case map[string]interface{}:
		rows = []interface{}{v}
	default:
		return 0
	}

	total := 0
	for _, row := range rows {
		warehouse, ok := row.(map[string]interface{})
		if !ok {
			continue
		}
		if qty := pick(warehouse, "qty", "Qty"); qty != nil {
			n, _ := strconv.Atoi(ExtractScalar(qty))
			total += n
		}
	}

	return total
}

// ParseAPIResponse decodes a raw distributor payload into the shape JSON
// decoding produces, falling back to XML when the body is not JSON. Total
// failure yields an empty map rather than an error; callers treat empty as
// "no data".
func ParseAPIResponse(body []byte) interface{} {
	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err == nil {
		switch decoded.(type) {
		case map[string]interface{}, []interface{}:
			return decoded
		}
	}

	if m, err := mxj.NewMapXml(body); err == nil {
		return dropXMLRoot(map[string]interface{}(m))
	}

	return map[string]interface{}{}
}

// dropXMLRoot unwraps the document root element mxj keeps, so an XML body
// like <ArrayOfSku><Sku>...</Sku></ArrayOfSku> yields the {"Sku": [...]}
// mapping its JSON counterpart would have produced.
func dropXMLRoot(decoded map[string]interface{}) interface{} {
	if len(decoded) != 1 {
		return decoded
	}
	for _, inner := range decoded {
		switch inner.(type) {
		case map[string]interface{}, []interface{}:
			return inner
		}
	}
	return decoded
}

// pick returns the first present key from candidates, nil when none match.
func pick(m map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

// pickScalar is pick followed by ExtractScalar.
func pickScalar(m map[string]interface{}, keys ...string) string {
	return ExtractScalar(pick(m, keys...))
}
