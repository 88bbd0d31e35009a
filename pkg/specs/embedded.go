package specs

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var embeddedData embed.FS

// LoadEmbeddedBundle parses the vendor-spec bundle built into the binary.
// This is the bundle the registry starts with before any host-driven
// Refresh.
func LoadEmbeddedBundle() (Bundle, error) {
	entries, err := embeddedData.ReadDir("data")
	if err != nil {
		return Bundle{}, fmt.Errorf("specs: reading embedded bundle: %w", err)
	}

	var bundle Bundle
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		raw, err := embeddedData.ReadFile("data/" + entry.Name())
		if err != nil {
			return Bundle{}, fmt.Errorf("specs: reading %s: %w", entry.Name(), err)
		}
		var v VendorSpec
		if err := yaml.Unmarshal(raw, &v); err != nil {
			return Bundle{}, fmt.Errorf("specs: parsing %s: %w", entry.Name(), err)
		}
		bundle.Vendors = append(bundle.Vendors, v)
	}
	return bundle, nil
}

// ParseBundle parses a bundle from a set of named YAML documents, as a host
// would when handing the registry a freshly fetched spec distribution
// (spec §4.1's background refresh contract).
func ParseBundle(files map[string][]byte) (Bundle, error) {
	var bundle Bundle
	for name, raw := range files {
		var v VendorSpec
		if err := yaml.Unmarshal(raw, &v); err != nil {
			return Bundle{}, fmt.Errorf("specs: parsing %s: %w", name, err)
		}
		bundle.Vendors = append(bundle.Vendors, v)
	}
	return bundle, nil
}
