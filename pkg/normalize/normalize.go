// Package normalize implements spec §4.2: a pure, deterministic mapping
// from a raw channel label to its canonical label, independent of load
// order and idempotent on its own output.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

func fold(s string) string {
	return foldCaser.String(strings.TrimSpace(s))
}

// Registry is the subset of pkg/specs.Registry the normalizer depends on,
// kept as a narrow interface so pkg/normalize never imports pkg/specs'
// embedding/refresh machinery.
type Registry interface {
	ResolveCanonical(rawName, vendorHint string) (string, bool)
}

// Overrides is a case-insensitive user mapping from raw name to canonical
// name, taking priority over every other source.
type Overrides map[string]string

// lookup is a case-insensitive get against a plain map, used for both
// Overrides and the built-in table.
func lookup(m map[string]string, key string) (string, bool) {
	folded := fold(key)
	for k, v := range m {
		if fold(k) == folded {
			return v, true
		}
	}
	return "", false
}

// Canonicalize applies the priority chain of spec §4.2:
//  1. a case-insensitive match in overrides,
//  2. else a match in the built-in table,
//  3. else a match via registry.ResolveCanonical,
//  4. else the raw name, whitespace-trimmed.
//
// vendorHint, if non-empty, is passed through to the registry so its own
// tie-break rule (spec §9(a)) can prefer the currently-loading vendor.
func Canonicalize(rawName string, overrides Overrides, registry Registry, vendorHint string) string {
	if overrides != nil {
		if v, ok := lookup(overrides, rawName); ok {
			return v
		}
	}
	if v, ok := lookup(builtinTable, rawName); ok {
		return v
	}
	if registry != nil {
		if v, ok := registry.ResolveCanonical(rawName, vendorHint); ok {
			return v
		}
	}
	return strings.TrimSpace(rawName)
}
