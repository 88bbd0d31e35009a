package specs

// ChannelSpec is display metadata for one canonical channel, as declared by
// a vendor (or protocol) specification.
type ChannelSpec struct {
	Canonical string   `yaml:"canonical"`
	Display   string   `yaml:"display"`
	Category  string   `yaml:"category"`
	Unit      string   `yaml:"unit"`
	Min       *float64 `yaml:"min"`
	Max       *float64 `yaml:"max"`
	Precision *int     `yaml:"precision"`
	Aliases   []string `yaml:"aliases"`
}

// VendorSpec is one vendor's (or protocol's) channel vocabulary plus, for
// file-format vendors, a format descriptor used as a detection hint.
// Protocol specs (Protocol == true) set neither Extensions, HeaderSignature
// nor Magic: they contribute to the alias pool only, never to parsing.
type VendorSpec struct {
	Name            string        `yaml:"name"`
	Protocol        bool          `yaml:"protocol"`
	Extensions      []string      `yaml:"extensions"`
	HeaderSignature string        `yaml:"header_signature"`
	Magic           string        `yaml:"magic"`
	Delimiter       string        `yaml:"delimiter"`
	Channels        []ChannelSpec `yaml:"channels"`
}

// Bundle is a named collection of VendorSpecs, the unit of atomic
// publication and of a host-driven refresh (spec §4.1).
type Bundle struct {
	Vendors []VendorSpec
}
