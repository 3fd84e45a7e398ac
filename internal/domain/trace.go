package domain

// StageStatus is the per-stage status recorded in a trace
type StageStatus string

const (
	StatusHit   StageStatus = "hit"
	StatusMiss  StageStatus = "miss"
	StatusError StageStatus = "error"
)

// StageRecord is one ordered entry of a ResolutionTrace
type StageRecord struct {
	Stage      string           `json:"stage"`
	Status     StageStatus      `json:"status"`
	Detail     string           `json:"detail,omitempty"`
	Candidates []MatchCandidate `json:"candidates,omitempty"`
}

// FinalDecision names the resolved code and the stage that produced it
type FinalDecision struct {
	Code string `json:"code"`
	By   string `json:"by"`
}

// ResolutionTrace is the audit record of every stage attempted for one listing
type ResolutionTrace struct {
	ID     string        `json:"id"`
	Stages []StageRecord `json:"stages"`
	Final  FinalDecision `json:"final"`
}

// Record appends a stage entry
func (t *ResolutionTrace) Record(stage string, status StageStatus, detail string) *StageRecord {
	t.Stages = append(t.Stages, StageRecord{Stage: stage, Status: status, Detail: detail})
	return &t.Stages[len(t.Stages)-1]
}

// Resolution is what callers receive for one listing
type Resolution struct {
	Code  string           `json:"code"`
	By    string           `json:"by"`
	Trace *ResolutionTrace `json:"trace,omitempty"`
}

// Resolved reports whether the resolution produced a real catalog code
func (r *Resolution) Resolved() bool {
	return r != nil && r.Code != "" && r.Code != UnresolvedCode
}
