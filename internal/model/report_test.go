package model

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// TestNewRun tests the Run constructor.
func TestNewRun(t *testing.T) {
	t.Parallel()

	run := NewRun()

	t.Run("assigns a UUID", func(t *testing.T) {
		t.Parallel()
		if _, err := uuid.Parse(run.ID); err != nil {
			t.Errorf("ID %q is not a UUID: %v", run.ID, err)
		}
	})

	t.Run("sets start timestamp", func(t *testing.T) {
		t.Parallel()
		if run.StartedAt.IsZero() {
			t.Error("expected StartedAt to be set")
		}
		if time.Since(run.StartedAt) > time.Second {
			t.Error("StartedAt is too old")
		}
	})

	t.Run("initializes Results", func(t *testing.T) {
		t.Parallel()
		if run.Results == nil {
			t.Error("expected Results to be initialized")
		}
	})

	t.Run("IDs are unique", func(t *testing.T) {
		t.Parallel()
		if NewRun().ID == run.ID {
			t.Error("expected distinct run IDs")
		}
	})
}

// TestRunAddWarning tests warning deduplication.
func TestRunAddWarning(t *testing.T) {
	t.Parallel()

	run := NewRun()
	run.AddWarning("empty pattern set")
	run.AddWarning("empty pattern set")
	run.AddWarning("other")

	if len(run.Warnings) != 2 {
		t.Errorf("got %d warnings, expected 2", len(run.Warnings))
	}
}

// TestRunFinish tests error and duration recording.
func TestRunFinish(t *testing.T) {
	t.Parallel()

	t.Run("records error message", func(t *testing.T) {
		t.Parallel()

		run := NewRun()
		run.Finish(errors.New("boom"))

		if run.ErrorMessage != "boom" {
			t.Errorf("got %q, expected %q", run.ErrorMessage, "boom")
		}
		if run.Duration < 0 {
			t.Errorf("negative duration %v", run.Duration)
		}
	})

	t.Run("nil error leaves message empty", func(t *testing.T) {
		t.Parallel()

		run := NewRun()
		run.AddSkipped("https://example.com/a", "timeout")
		run.Finish(nil)

		if run.ErrorMessage != "" {
			t.Errorf("expected empty message, got %q", run.ErrorMessage)
		}
		rs := run.ResultSet()
		if rs.RunID != run.ID || len(rs.Skipped) != 1 {
			t.Errorf("unexpected result set %+v", rs)
		}
	})
}
