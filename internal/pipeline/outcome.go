package pipeline

import "fmt"

// Outcome is the aggregate status of a pipeline run. Values are ordered by
// severity; a run's outcome never improves once degraded.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeUnstable
	OutcomeFailure
	OutcomeAborted
)

var outcomeStrings = [...]string{
	"success",
	"unstable",
	"failure",
	"aborted",
}

// Merge returns the more severe of the two outcomes.
func (o Outcome) Merge(other Outcome) Outcome {
	if other > o {
		return other
	}

	return o
}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeStrings) {
		return ""
	}

	return outcomeStrings[o]
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(b []byte) error {
	str := string(b)
	for i, name := range outcomeStrings {
		if name == str {
			*o = Outcome(i)
			return nil
		}
	}

	return fmt.Errorf("invalid outcome %q", str)
}
