package cmd

import (
	"strings"
	"testing"
)

func resetChallengeFlags(t *testing.T) {
	t.Helper()
	challengeStart, challengeDays, challengeRequired = dateValue{}, 0, 0
	t.Cleanup(func() { challengeStart, challengeDays, challengeRequired = dateValue{}, 0, 0 })
}

func TestChallengeProgress_NoWindow(t *testing.T) {
	configTestEnv(t)
	flagUser = "alice"

	out := captureStdout(t, func() {
		if err := runChallengeProgress(nil, nil); err != nil {
			t.Fatalf("runChallengeProgress: %v", err)
		}
	})
	if !strings.Contains(out, "no active challenge") {
		t.Errorf("expected fallback status, got:\n%s", out)
	}
	if !strings.Contains(out, "0 of 7 days") {
		t.Errorf("expected default 0 of 7, got:\n%s", out)
	}
}

func TestChallengeLifecycle(t *testing.T) {
	configTestEnv(t)
	resetChallengeFlags(t)
	flagUser = "admin"

	challengeDays, challengeRequired = 10, 2
	out := captureStdout(t, func() {
		if err := runChallengeCreate(nil, nil); err != nil {
			t.Fatalf("runChallengeCreate: %v", err)
		}
	})
	if !strings.Contains(out, "is live") {
		t.Errorf("expected creation message, got:\n%s", out)
	}

	flagUser = "alice"
	captureStdout(t, func() {
		if err := runPostAdd(nil, []string{"day", "one"}); err != nil {
			t.Fatalf("runPostAdd: %v", err)
		}
	})

	out = captureStdout(t, func() {
		if err := runChallengeProgress(nil, nil); err != nil {
			t.Fatalf("runChallengeProgress: %v", err)
		}
	})
	if !strings.Contains(out, "1 of 2 days") {
		t.Errorf("expected 1 of 2 written, got:\n%s", out)
	}
	if !strings.Contains(out, "50%") {
		t.Errorf("expected 50%%, got:\n%s", out)
	}

	out = captureStdout(t, func() {
		if err := runChallengeBoard(nil, nil); err != nil {
			t.Fatalf("runChallengeBoard: %v", err)
		}
	})
	if !strings.Contains(out, "alice") {
		t.Errorf("expected alice on the board, got:\n%s", out)
	}

	out = captureStdout(t, func() {
		if err := runChallengeShow(nil, []string{"1"}); err != nil {
			t.Fatalf("runChallengeShow: %v", err)
		}
	})
	if !strings.Contains(out, "2 of 10 days") {
		t.Errorf("expected window details, got:\n%s", out)
	}

	captureStdout(t, func() {
		if err := runChallengeEnd(nil, nil); err != nil {
			t.Fatalf("runChallengeEnd: %v", err)
		}
	})
	out = captureStdout(t, func() {
		if err := runChallengeShow(nil, nil); err != nil {
			t.Fatalf("runChallengeShow: %v", err)
		}
	})
	if !strings.Contains(out, "No active challenge") {
		t.Errorf("expected no active window after end, got:\n%s", out)
	}

	out = captureStdout(t, func() {
		if err := runChallengeList(nil, nil); err != nil {
			t.Fatalf("runChallengeList: %v", err)
		}
	})
	if !strings.Contains(out, "#1") {
		t.Errorf("expected ended window in list, got:\n%s", out)
	}
}

func TestChallengeCreate_RejectsRequiredAboveTotal(t *testing.T) {
	configTestEnv(t)
	resetChallengeFlags(t)

	challengeDays, challengeRequired = 5, 6
	if err := runChallengeCreate(nil, nil); err == nil {
		t.Fatal("expected error when required exceeds total")
	}
}

func TestChallengeShow_BadID(t *testing.T) {
	configTestEnv(t)

	if err := runChallengeShow(nil, []string{"abc"}); err == nil {
		t.Fatal("expected error for non-numeric ID")
	}
	if err := runChallengeShow(nil, []string{"42"}); err == nil {
		t.Fatal("expected not-found error for unknown window")
	}
}
