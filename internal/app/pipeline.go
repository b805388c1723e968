package app

import "fmt"

// pipelineState is the progress marker of one transfer request. Steps are
// strictly sequential: no state may be skipped and none may run out of
// order. Failure is terminal and reachable from every non-terminal state.
type pipelineState int

const (
	stateIdle pipelineState = iota
	stateShareFetched
	stateShareDecrypted
	stateSessionOpen
	stateEnvelopeBuilt
	stateSigned
	stateSubmitted
	stateDone
	stateFailed
)

var pipelineStateNames = map[pipelineState]string{
	stateIdle:           "idle",
	stateShareFetched:   "share_fetched",
	stateShareDecrypted: "share_decrypted",
	stateSessionOpen:    "session_open",
	stateEnvelopeBuilt:  "envelope_built",
	stateSigned:         "signed",
	stateSubmitted:      "submitted",
	stateDone:           "done",
	stateFailed:         "failed",
}

func (s pipelineState) String() string {
	if name, ok := pipelineStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// pipeline tracks one request's walk through the signing state machine.
// It lives only for the duration of a single request; the orchestrator
// holds no state across requests.
type pipeline struct {
	state pipelineState
}

func newPipeline() *pipeline {
	return &pipeline{state: stateIdle}
}

// advance moves to the next state. Only the immediate successor is legal;
// anything else is a programming error surfaced loudly rather than a
// silently skipped step.
func (p *pipeline) advance(next pipelineState) error {
	if p.state == stateDone || p.state == stateFailed {
		return fmt.Errorf("pipeline is terminal in state %s", p.state)
	}
	if next != p.state+1 || next == stateFailed {
		return fmt.Errorf("illegal pipeline transition %s -> %s", p.state, next)
	}
	p.state = next
	return nil
}

// fail marks the pipeline terminally failed
func (p *pipeline) fail() {
	if p.state != stateDone {
		p.state = stateFailed
	}
}

// current returns the current state
func (p *pipeline) current() pipelineState {
	return p.state
}
