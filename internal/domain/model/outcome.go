package model

// Outcome is a 1X2 call on a fixture. The zero value means the outcome is
// not known, e.g. a result whose feed carried neither a winner nor full-time
// scores.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeHome
	OutcomeDraw
	OutcomeAway
)

// Code returns the wire form: "1", "X" or "2". Unknown yields "".
func (o Outcome) Code() string {
	switch o {
	case OutcomeHome:
		return "1"
	case OutcomeDraw:
		return "X"
	case OutcomeAway:
		return "2"
	default:
		return ""
	}
}

// String reports the code, or "unknown" for the zero value.
func (o Outcome) String() string {
	if o == OutcomeUnknown {
		return "unknown"
	}
	return o.Code()
}

// ParseOutcome maps "1", "X" or "2" to an Outcome. Anything else reports
// false.
func ParseOutcome(s string) (Outcome, bool) {
	switch s {
	case "1":
		return OutcomeHome, true
	case "X":
		return OutcomeDraw, true
	case "2":
		return OutcomeAway, true
	default:
		return OutcomeUnknown, false
	}
}

// VerdictStatus classifies a scored prediction. The zero value is Unmatched
// so a verdict never defaults to a graded state.
type VerdictStatus int

const (
	StatusUnmatched VerdictStatus = iota
	StatusCorrect
	StatusIncorrect
)

// Code returns the wire form: "Y", "N" or "UNMATCHED".
func (s VerdictStatus) Code() string {
	switch s {
	case StatusCorrect:
		return "Y"
	case StatusIncorrect:
		return "N"
	default:
		return "UNMATCHED"
	}
}

// String reports a lowercase label for logs and metrics.
func (s VerdictStatus) String() string {
	switch s {
	case StatusCorrect:
		return "correct"
	case StatusIncorrect:
		return "incorrect"
	default:
		return "unmatched"
	}
}

// ParseVerdictStatus maps "Y", "N" or "UNMATCHED" to a VerdictStatus.
// Anything else reports false.
func ParseVerdictStatus(s string) (VerdictStatus, bool) {
	switch s {
	case "Y":
		return StatusCorrect, true
	case "N":
		return StatusIncorrect, true
	case "UNMATCHED":
		return StatusUnmatched, true
	default:
		return StatusUnmatched, false
	}
}
