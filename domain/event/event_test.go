package event_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/globalapptesting/hrl-go/domain/event"
)

func TestNewEvent(t *testing.T) {
	t.Parallel()

	t.Run("creates event with valid payload", func(t *testing.T) {
		t.Parallel()

		payload := event.AgentActivatedPayload{Agent: "motion", AgentID: "motion_2", Trigger: "switch"}

		e, err := event.NewEvent("ep-123", event.TypeAgentActivated, payload)
		if err != nil {
			t.Fatalf("NewEvent() error = %v", err)
		}

		if e.EpisodeID != "ep-123" {
			t.Errorf("NewEvent() EpisodeID = %s, want ep-123", e.EpisodeID)
		}
		if e.Type != event.TypeAgentActivated {
			t.Errorf("NewEvent() Type = %s, want agent.activated", e.Type)
		}
		if e.Timestamp.IsZero() {
			t.Error("NewEvent() Timestamp should not be zero")
		}
		if e.Version != 1 {
			t.Errorf("NewEvent() Version = %d, want 1", e.Version)
		}
		if e.Sequence != 0 {
			t.Errorf("NewEvent() Sequence = %d, want 0 until appended", e.Sequence)
		}
	})

	t.Run("returns error for unmarshalable payload", func(t *testing.T) {
		t.Parallel()

		_, err := event.NewEvent("ep-123", event.TypeEpisodeStarted, make(chan int))
		if err == nil {
			t.Error("NewEvent() should return error for unmarshalable payload")
		}
	})

	t.Run("handles nil payload", func(t *testing.T) {
		t.Parallel()

		e, err := event.NewEvent("ep-123", event.TypeEpisodeStarted, nil)
		if err != nil {
			t.Fatalf("NewEvent() error = %v", err)
		}
		if string(e.Payload) != "null" {
			t.Errorf("NewEvent() Payload = %s, want null", string(e.Payload))
		}
	})
}

func TestEvent_UnmarshalPayload(t *testing.T) {
	t.Parallel()

	t.Run("unmarshals step payload", func(t *testing.T) {
		t.Parallel()

		original := event.StepCompletedPayload{
			Step:    3,
			Rewards: map[string]float64{"motion_0": 1, "strategy_0": 0},
			Dones:   map[string]bool{"motion_0": true, "strategy_0": false},
		}

		e, _ := event.NewEvent("ep-123", event.TypeStepCompleted, original)

		var decoded event.StepCompletedPayload
		if err := e.UnmarshalPayload(&decoded); err != nil {
			t.Fatalf("UnmarshalPayload() error = %v", err)
		}

		if decoded.Step != 3 || decoded.Rewards["motion_0"] != 1 || !decoded.Dones["motion_0"] {
			t.Errorf("UnmarshalPayload() = %+v, want %+v", decoded, original)
		}
		if decoded.AllDone {
			t.Error("UnmarshalPayload() AllDone = true, want false")
		}
	})

	t.Run("returns error for invalid JSON", func(t *testing.T) {
		t.Parallel()

		e := event.Event{Payload: json.RawMessage(`invalid json`)}

		var decoded event.AgentDonePayload
		if err := e.UnmarshalPayload(&decoded); err == nil {
			t.Error("UnmarshalPayload() should return error for invalid JSON")
		}
	})
}

func TestEventTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		eventType event.Type
		expected  string
	}{
		{event.TypeEpisodeStarted, "episode.started"},
		{event.TypeEpisodeEnded, "episode.ended"},
		{event.TypeAgentActivated, "agent.activated"},
		{event.TypeAgentReleased, "agent.released"},
		{event.TypeAgentDone, "agent.done"},
		{event.TypeActionDecoded, "action.decoded"},
		{event.TypeProcedureExecuted, "procedure.executed"},
		{event.TypeStepCompleted, "step.completed"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()

			if string(tt.eventType) != tt.expected {
				t.Errorf("Event type = %s, want %s", tt.eventType, tt.expected)
			}
		})
	}
}

func TestAgentDonePayload_OmitsEmptyNext(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(event.AgentDonePayload{Agent: "strategy", AgentID: "strategy_0"})
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	want := `{"agent":"strategy","agent_id":"strategy_0"}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}
}

func TestEvent_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		event   event.Event
		wantErr bool
	}{
		{"valid", event.Event{EpisodeID: "ep", Type: event.TypeAgentDone}, false},
		{"missing episode", event.Event{Type: event.TypeAgentDone}, true},
		{"missing type", event.Event{EpisodeID: "ep"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.event.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, event.ErrInvalidEvent) {
				t.Errorf("Validate() error = %v, want ErrInvalidEvent", err)
			}
		})
	}
}
