package classifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	sniperrors "sjsage522/profitsniper/pkg/errors"
)

// Brand is one entry of the brand table
type Brand struct {
	Name             string   `json:"name"`
	Variants         []string `json:"variants"`
	ExcludedKeywords []string `json:"excluded_keywords,omitempty"`
}

// BrandTable is matched in order; the first brand with a matching variant wins
type BrandTable []Brand

// Names lists the canonical brand names in table order
func (t BrandTable) Names() []string {
	names := make([]string, 0, len(t))
	for _, b := range t {
		names = append(names, b.Name)
	}
	return names
}

// LoadBrands reads a brand file. Both the object form {"Brand": {"variants": [...]}}
// and the array form [{"name": "Brand", "variants": [...]}] are accepted; object
// keys keep their file order.
func LoadBrands(path string) (BrandTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, sniperrors.NewConfiguration("failed to read brand file "+path, err)
	}
	table, err := ParseBrands(data)
	if err != nil {
		return nil, sniperrors.NewConfiguration("failed to parse brand file "+path, err)
	}
	if len(table) == 0 {
		return nil, sniperrors.NewConfiguration("brand file "+path+" has no brands", nil)
	}
	return table, nil
}

// ParseBrands decodes either brand file form
func ParseBrands(data []byte) (BrandTable, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty brand data")
	}

	if data[0] == '[' {
		var table BrandTable
		if err := json.Unmarshal(data, &table); err != nil {
			return nil, err
		}
		return normalize(table), nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	start, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := start.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("brand data must be a JSON object or array")
	}

	var table BrandTable
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected brand key %v", tok)
		}
		var b Brand
		if err := dec.Decode(&b); err != nil {
			return nil, fmt.Errorf("brand %q: %w", name, err)
		}
		b.Name = name
		table = append(table, b)
	}
	return normalize(table), nil
}

// normalize defaults missing variants to the brand name
func normalize(table BrandTable) BrandTable {
	out := make(BrandTable, 0, len(table))
	for _, b := range table {
		b.Name = strings.TrimSpace(b.Name)
		if b.Name == "" {
			continue
		}
		if len(b.Variants) == 0 {
			b.Variants = []string{b.Name}
		}
		out = append(out, b)
	}
	return out
}
