package ingest

import (
	"bytes"
	"path/filepath"
	"strings"
)

// sniffWindow is how much of the head of a stream format signatures are
// searched within, per spec §6's "within the first 4 KB".
const sniffWindow = 4096

// Registry returns the parsers available for detection, in a stable,
// signature-priority order. Extension hints only reorder this list; they
// never skip a signature check (spec §6: "Detection is by signature, not
// by extension").
func Registry() []Parser {
	return []Parser{
		&NSPParser{},
		&EMUParser{},
		&RomRaiderParser{},
		&MLGParser{},
		&AiMParser{},
		&LinkParser{},
	}
}

// Detect returns the parser whose signature matches head, preferring (but
// not requiring) the parsers associated with the file extension of path.
func Detect(path string, head []byte) (Parser, error) {
	if len(head) > sniffWindow {
		head = head[:sniffWindow]
	}

	candidates := Registry()
	ext := strings.ToLower(filepath.Ext(path))
	if ext != "" {
		candidates = reorderByExtension(candidates, ext)
	}

	for _, p := range candidates {
		if p.Sniff(head) {
			return p, nil
		}
	}
	return nil, &UnsupportedFormatError{Detail: "no parser signature matched " + path}
}

func reorderByExtension(parsers []Parser, ext string) []Parser {
	hinted := extensionHints[ext]
	if len(hinted) == 0 {
		return parsers
	}
	hintSet := make(map[string]bool, len(hinted))
	for _, name := range hinted {
		hintSet[name] = true
	}

	var first, rest []Parser
	for _, p := range parsers {
		if hintSet[p.Name()] {
			first = append(first, p)
		} else {
			rest = append(rest, p)
		}
	}
	return append(first, rest...)
}

var extensionHints = map[string][]string{
	".csv": {"NSP", "EMU", "RomRaider"},
	".mlg": {"MLG"},
	".xrk": {"AiM"},
	".drk": {"AiM"},
	".llg": {"Link"},
}

// containsLinePrefix reports whether any line of head, after trimming leading
// whitespace, starts with prefix.
func containsLinePrefix(head []byte, prefix string) bool {
	for _, line := range bytes.Split(head, []byte("\n")) {
		trimmed := bytes.TrimLeft(line, " \t\r")
		if bytes.HasPrefix(trimmed, []byte(prefix)) {
			return true
		}
	}
	return false
}

// containsField reports whether any line of head contains field as a
// delimiter-separated token, trying both ';' and '\t' delimiters.
func containsField(head []byte, field string) bool {
	for _, line := range bytes.Split(head, []byte("\n")) {
		for _, delim := range []byte{';', '\t'} {
			for _, tok := range bytes.Split(line, []byte{delim}) {
				if strings.EqualFold(strings.TrimSpace(string(tok)), field) {
					return true
				}
			}
		}
	}
	return false
}
