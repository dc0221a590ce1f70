package environment_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/globalapptesting/hrl-go/domain/action"
	"github.com/globalapptesting/hrl-go/domain/environment"
)

type push struct{ action.Plain }

type jump struct{ action.Plain }

type line struct{}

func (line) InitialState() int { return 0 }

func (line) Step(state int, a action.Action) (int, error) {
	if _, ok := a.(push); ok {
		return state + 1, nil
	}
	return state, environment.UnknownAction(a)
}

func (line) CommonInfo(state int) map[string]any {
	return map[string]any{"position": state}
}

func TestDomain(t *testing.T) {
	t.Parallel()

	var d environment.Domain[int] = line{}
	s := d.InitialState()

	s, err := d.Step(s, push{})
	if err != nil || s != 1 {
		t.Fatalf("Step(push) = %d, %v, want 1, nil", s, err)
	}

	s, err = d.Step(s, jump{})
	if !errors.Is(err, environment.ErrUnknownAction) {
		t.Errorf("Step(jump) error = %v, want ErrUnknownAction", err)
	}
	if !strings.Contains(err.Error(), "environment_test.jump") {
		t.Errorf("error %q should name the action type", err)
	}
	if s != 1 {
		t.Errorf("Step(jump) state = %d, want unchanged 1", s)
	}

	p, ok := d.(environment.CommonInfoProvider[int])
	if !ok {
		t.Fatal("line should provide common info")
	}
	if got := p.CommonInfo(s)["position"]; got != 1 {
		t.Errorf("CommonInfo()[position] = %v, want 1", got)
	}
}
