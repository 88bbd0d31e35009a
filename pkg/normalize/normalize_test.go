package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeRegistry struct {
	table map[string]string
}

func (f fakeRegistry) ResolveCanonical(rawName, _ string) (string, bool) {
	v, ok := f.table[fold(rawName)]
	return v, ok
}

func TestCanonicalize_PriorityOrder(t *testing.T) {
	overrides := Overrides{"Boost": "ManifoldBoost"}
	reg := fakeRegistry{table: map[string]string{fold("Act_AFR"): "AFR"}}

	// 1. a case-insensitive override match wins over the registry.
	assert.Equal(t, "ManifoldBoost", Canonicalize("boost", overrides, reg, ""))

	// 2. built-in table wins over the registry.
	assert.Equal(t, "RPM", Canonicalize("RPM", overrides, reg, ""))

	// 3. registry wins when neither overrides nor built-ins match.
	assert.Equal(t, "AFR", Canonicalize("Act_AFR", overrides, reg, ""))

	// 4. fall back to trimmed raw name.
	assert.Equal(t, "Weird_Channel_9", Canonicalize("  Weird_Channel_9  ", overrides, reg, ""))
}

func TestCanonicalize_Idempotent(t *testing.T) {
	overrides := Overrides{"Boost": "ManifoldBoost"}
	reg := fakeRegistry{table: map[string]string{fold("Act_AFR"): "AFR"}}

	for _, raw := range []string{"boost", "RPM", "Act_AFR", "Unmapped"} {
		once := Canonicalize(raw, overrides, reg, "")
		twice := Canonicalize(once, overrides, reg, "")
		assert.Equal(t, once, twice, "normalize(normalize(%q)) should equal normalize(%q)", raw, raw)
	}
}

func TestCanonicalize_NilOverridesAndRegistry(t *testing.T) {
	assert.Equal(t, "Whatever", Canonicalize("Whatever", nil, nil, ""))
	assert.Equal(t, "RPM", Canonicalize("rpm", nil, nil, ""))
}
