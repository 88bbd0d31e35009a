package formula

import "github.com/ultralog/ultralog/pkg/logmodel"

// Verdict is the outcome of validating a formula against a specific log.
type Verdict int

const (
	VerdictOK Verdict = iota
	VerdictMissingReference
	VerdictCyclic
	VerdictParseError
)

func (v Verdict) String() string {
	switch v {
	case VerdictOK:
		return "ok"
	case VerdictMissingReference:
		return "missing-reference"
	case VerdictCyclic:
		return "cyclic"
	case VerdictParseError:
		return "parse-error"
	default:
		return "unknown"
	}
}

// ValidationResult is what validate(template, log) returns per §4.5: the
// resolved reference set and a verdict.
type ValidationResult struct {
	References []string
	Verdict    Verdict
	Err        error
}

// Validate parses formulaText, rejects a self-reference under selfName
// (the template's own name, forbidden among its bound references), and
// resolves every reference against log's channels. Cross-template cycle
// detection among already-instantiated computed channels is done by
// pkg/library, which has the dependency graph; this function only ever
// returns VerdictCyclic for the self-reference case.
func Validate(formulaText, selfName string, log *logmodel.Log) ValidationResult {
	expr, err := Parse(formulaText)
	if err != nil {
		return ValidationResult{Verdict: VerdictParseError, Err: err}
	}

	refs := ExtractRefs(expr)

	for _, r := range refs {
		if selfName != "" && r == selfName {
			return ValidationResult{
				References: refs,
				Verdict:    VerdictCyclic,
				Err:        &CyclicReferenceError{Path: []string{selfName, selfName}},
			}
		}
	}

	if log != nil {
		cols := NewColumnIndex(log)
		for _, r := range refs {
			if _, ok := cols[r]; !ok {
				return ValidationResult{
					References: refs,
					Verdict:    VerdictMissingReference,
					Err:        &UnresolvedReferenceError{Name: r},
				}
			}
		}
	}

	return ValidationResult{References: refs, Verdict: VerdictOK}
}
