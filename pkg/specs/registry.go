package specs

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

func fold(s string) string {
	return foldCaser.String(strings.TrimSpace(s))
}

// RefreshError is returned by Refresh when a new bundle could not be
// published; the registry retains its prior snapshot (spec §4.1).
type RefreshError struct {
	Detail string
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("specs: refresh failed: %s", e.Detail)
}

type aliasClaim struct {
	vendor    string
	canonical string
}

// snapshot is the full, immutable table published atomically. Readers on
// the hot path (parsing, formula validation) load a *snapshot and never
// block on a writer.
type snapshot struct {
	vendors    []VendorSpec
	aliases    map[string][]aliasClaim // folded alias -> claims
	metadata   map[string]ChannelSpec  // canonical name -> spec
	byExt      map[string][]VendorSpec // extension (with dot, lowercased) -> vendors
}

// Registry is the read-mostly spec index described in spec §4.1: readers
// are lock-free on the steady path because the table is published as an
// immutable snapshot behind an atomic pointer; a writer swaps the pointer
// and readers see either the old or the new full table, never a mixture.
type Registry struct {
	current atomic.Pointer[snapshot]
	log     *slog.Logger
}

// New builds a Registry seeded with the given bundle. logger, if nil,
// defaults to a discard handler; Refresh logs failures to it at Warn.
func New(bundle Bundle, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	snap, err := buildSnapshot(bundle)
	if err != nil {
		return nil, err
	}
	r := &Registry{log: logger}
	r.current.Store(snap)
	return r, nil
}

// NewWithEmbedded builds a Registry seeded with the binary's embedded
// vendor-spec bundle.
func NewWithEmbedded(logger *slog.Logger) (*Registry, error) {
	bundle, err := LoadEmbeddedBundle()
	if err != nil {
		return nil, err
	}
	return New(bundle, logger)
}

func buildSnapshot(bundle Bundle) (*snapshot, error) {
	if len(bundle.Vendors) == 0 {
		return nil, &RefreshError{Detail: "bundle has no vendor specs"}
	}

	vendors := append([]VendorSpec(nil), bundle.Vendors...)
	sort.Slice(vendors, func(i, j int) bool { return vendors[i].Name < vendors[j].Name })

	snap := &snapshot{
		vendors:  vendors,
		aliases:  make(map[string][]aliasClaim),
		metadata: make(map[string]ChannelSpec),
		byExt:    make(map[string][]VendorSpec),
	}

	for _, v := range vendors {
		for _, ext := range v.Extensions {
			key := strings.ToLower(ext)
			snap.byExt[key] = append(snap.byExt[key], v)
		}
		for _, ch := range v.Channels {
			if _, exists := snap.metadata[ch.Canonical]; !exists {
				snap.metadata[ch.Canonical] = ch
			}
			for _, alias := range ch.Aliases {
				key := fold(alias)
				snap.aliases[key] = append(snap.aliases[key], aliasClaim{vendor: v.Name, canonical: ch.Canonical})
			}
			// A channel's canonical name is itself always a valid alias.
			key := fold(ch.Canonical)
			snap.aliases[key] = append(snap.aliases[key], aliasClaim{vendor: v.Name, canonical: ch.Canonical})
		}
	}

	return snap, nil
}

// ResolveCanonical looks up rawName in the alias pool, case-insensitively.
// vendorHint, if non-empty, names the vendor spec of the format currently
// being loaded; per spec §4.1/§9(a), a claim from that vendor wins ties.
// Otherwise the lexicographically first canonical name among the claims
// wins — documented and deterministic.
func (r *Registry) ResolveCanonical(rawName, vendorHint string) (string, bool) {
	snap := r.current.Load()
	claims := snap.aliases[fold(rawName)]
	if len(claims) == 0 {
		return "", false
	}

	if vendorHint != "" {
		for _, c := range claims {
			if c.vendor == vendorHint {
				return c.canonical, true
			}
		}
	}

	best := claims[0].canonical
	for _, c := range claims[1:] {
		if c.canonical < best {
			best = c.canonical
		}
	}
	return best, true
}

// Metadata returns the ChannelSpec registered for a canonical name.
func (r *Registry) Metadata(canonicalName string) (ChannelSpec, bool) {
	snap := r.current.Load()
	spec, ok := snap.metadata[canonicalName]
	return spec, ok
}

// AdaptersForExtension returns the vendor specs that declare ext (with or
// without a leading dot) among their extensions, used as a hint to reorder
// signature checks during format detection.
func (r *Registry) AdaptersForExtension(ext string) []VendorSpec {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	snap := r.current.Load()
	out := snap.byExt[strings.ToLower(ext)]
	return append([]VendorSpec(nil), out...)
}

// Refresh atomically swaps in a new bundle. On success, all readers that
// load the registry afterward see the full new table; in-flight readers
// that already loaded the old snapshot keep using it to completion. On
// failure the registry retains its prior snapshot and returns a
// *RefreshError for the host to surface.
func (r *Registry) Refresh(bundle Bundle) error {
	snap, err := buildSnapshot(bundle)
	if err != nil {
		r.log.Warn("spec refresh failed", "error", err)
		return err
	}
	r.current.Store(snap)
	return nil
}

// Vendors returns every vendor spec currently published, sorted by name.
func (r *Registry) Vendors() []VendorSpec {
	snap := r.current.Load()
	return append([]VendorSpec(nil), snap.vendors...)
}
