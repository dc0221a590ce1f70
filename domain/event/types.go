package event

// Type classifies domain events.
type Type string

// Event types recorded by the orchestrator.
const (
	// Episode lifecycle
	TypeEpisodeStarted Type = "episode.started"
	TypeEpisodeEnded   Type = "episode.ended"

	// Control transfer
	TypeAgentActivated Type = "agent.activated"
	TypeAgentReleased  Type = "agent.released"
	TypeAgentDone      Type = "agent.done"

	// Step processing
	TypeActionDecoded     Type = "action.decoded"
	TypeProcedureExecuted Type = "procedure.executed"
	TypeStepCompleted     Type = "step.completed"
)

// EpisodeStartedPayload contains data for episode.started events.
type EpisodeStartedPayload struct {
	InitialAgent string   `json:"initial_agent"`
	Agents       []string `json:"agents"`
}

// EpisodeEndedPayload contains data for episode.ended events.
type EpisodeEndedPayload struct {
	Steps     int    `json:"steps"`
	LastAgent string `json:"last_agent"`
	Handoffs  int    `json:"handoffs"`
	Aborted   bool   `json:"aborted,omitempty"`
}

// AgentActivatedPayload contains data for agent.activated events.
type AgentActivatedPayload struct {
	Agent   string `json:"agent"`
	AgentID string `json:"agent_id"`
	// Trigger is "switch" or "done", empty on reset.
	Trigger string `json:"trigger,omitempty"`
}

// AgentReleasedPayload contains data for agent.released events.
type AgentReleasedPayload struct {
	Agent   string `json:"agent"`
	AgentID string `json:"agent_id"`
	To      string `json:"to"`
}

// AgentDonePayload contains data for agent.done events.
type AgentDonePayload struct {
	Agent   string `json:"agent"`
	AgentID string `json:"agent_id"`
	// Next is empty when the episode ends.
	Next string `json:"next,omitempty"`
}

// ActionDecodedPayload contains data for action.decoded events.
type ActionDecodedPayload struct {
	AgentID string `json:"agent_id"`
	Kind    string `json:"kind"`
	Action  string `json:"action"`
}

// ProcedureExecutedPayload contains data for procedure.executed events.
type ProcedureExecutedPayload struct {
	AgentID   string `json:"agent_id"`
	Procedure string `json:"procedure"`
}

// StepCompletedPayload contains data for step.completed events.
type StepCompletedPayload struct {
	Step    int                `json:"step"`
	Rewards map[string]float64 `json:"rewards"`
	Dones   map[string]bool    `json:"dones"`
	AllDone bool               `json:"all_done"`
}
