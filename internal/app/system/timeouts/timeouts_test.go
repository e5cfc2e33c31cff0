package timeouts_test

import (
	"context"
	"testing"
	"time"

	"github.com/imaggar-technologies/brintelli/internal/app/system/timeouts"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfigure_IgnoresZero(t *testing.T) {
	t.Cleanup(timeouts.Reset)

	timeouts.Configure(timeouts.Config{Short: 7 * time.Second})
	if got := timeouts.Short(); got != 7*time.Second {
		t.Errorf("Short = %v, want 7s", got)
	}
	if got := timeouts.Medium(); got != timeouts.DefaultMedium {
		t.Errorf("Medium = %v, want default", got)
	}
}

func TestConfigureFromEnv(t *testing.T) {
	t.Cleanup(timeouts.Reset)
	t.Setenv("BRINTELLI_TIMEOUT_BATCH", "5m")
	t.Setenv("BRINTELLI_TIMEOUT_PING", "nonsense")
	t.Setenv("BRINTELLI_TIMEOUT_LONG", "-1s")

	if n := timeouts.ConfigureFromEnv(); n != 1 {
		t.Errorf("configured %d values, want 1", n)
	}
	c := timeouts.Current()
	if c.Batch != 5*time.Minute {
		t.Errorf("Batch = %v, want 5m", c.Batch)
	}
	if c.Ping != timeouts.DefaultPing || c.Long != timeouts.DefaultLong {
		t.Errorf("invalid values should be ignored, got %+v", c)
	}
}

func TestWithTimeout_LogsOnDeadline(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	ctx, cancel := timeouts.WithTimeout(context.Background(), time.Millisecond, zap.New(core), "lead import")
	<-ctx.Done()
	cancel()

	if logs.Len() != 1 {
		t.Fatalf("expected one warning, got %d", logs.Len())
	}
	if op := logs.All()[0].ContextMap()["operation"]; op != "lead import" {
		t.Errorf("operation = %v", op)
	}
}

func TestWithTimeout_QuietOnCancel(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	_, cancel := timeouts.WithTimeout(context.Background(), time.Minute, zap.New(core), "lookup")
	cancel()
	if logs.Len() != 0 {
		t.Errorf("expected no warnings, got %d", logs.Len())
	}
}
