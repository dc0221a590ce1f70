package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestInstallStdoutTracing(t *testing.T) {
	if _, err := InstallStdoutTracing(TraceConfig{ServiceName: "hrl"}); err == nil {
		t.Error("expected error without an output")
	}

	var out bytes.Buffer
	shutdown, err := InstallStdoutTracing(TraceConfig{
		ServiceName: "hrl",
		Output:      &out,
		SampleRate:  1,
	})
	if err != nil {
		t.Fatalf("InstallStdoutTracing() error = %v", err)
	}

	_, span := StartSpan(context.Background(), nil, "orchestrator.step")
	EndSpan(span, nil)
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error = %v", err)
	}

	if !strings.Contains(out.String(), "orchestrator.step") {
		t.Errorf("span not written, got: %s", out.String())
	}
}

func TestInstallOTLPTracing(t *testing.T) {
	if _, err := InstallOTLPTracing(context.Background(), TraceConfig{ServiceName: "hrl"}); err == nil {
		t.Error("expected error without an endpoint")
	}

	shutdown, err := InstallOTLPTracing(context.Background(), TraceConfig{
		ServiceName: "hrl",
		Endpoint:    "localhost:4317",
		Insecure:    true,
	})
	if err != nil {
		t.Fatalf("InstallOTLPTracing() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = shutdown(ctx)
}
