package domain

// OutcomeKind tags a stage or strategy result
type OutcomeKind int

const (
	// Unresolved means the stage ran and found no confident code
	Unresolved OutcomeKind = iota
	// Matched means the stage produced an authoritative code
	Matched
	// Failed means the stage could not run to completion, usually a store error
	Failed
)

func (k OutcomeKind) String() string {
	switch k {
	case Matched:
		return "matched"
	case Failed:
		return "failed"
	default:
		return "unresolved"
	}
}

// Outcome is the tagged result of a resolution stage.
// Code is set only for Matched, Err only for Failed.
type Outcome struct {
	Kind   OutcomeKind
	Code   string
	Reason string
	Err    error
}

// MatchedCode builds a Matched outcome
func MatchedCode(code, reason string) Outcome {
	return Outcome{Kind: Matched, Code: code, Reason: reason}
}

// NoMatch builds an Unresolved outcome
func NoMatch(reason string) Outcome {
	return Outcome{Kind: Unresolved, Reason: reason}
}

// StageFailed builds a Failed outcome
func StageFailed(err error) Outcome {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	return Outcome{Kind: Failed, Reason: reason, Err: err}
}

// IsMatched reports whether the outcome carries a code
func (o Outcome) IsMatched() bool {
	return o.Kind == Matched && o.Code != ""
}
