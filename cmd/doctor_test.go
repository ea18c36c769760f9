package cmd

import (
	"context"
	"strings"
	"testing"

	"github.com/rnwolfe/devlog/internal/config"
)

func TestCheckConfig_Defaults(t *testing.T) {
	configTestEnv(t)

	r := checkConfig()
	if !r.ok {
		t.Fatalf("expected defaults to pass, got detail: %q", r.detail)
	}
	if !strings.Contains(r.detail, "defaults") {
		t.Errorf("expected detail to mention defaults, got: %q", r.detail)
	}
}

func TestCheckConfig_Present(t *testing.T) {
	configTestEnv(t)

	cfg, err := config.LoadFile()
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	cfg.User.ID = "alice"
	if err := config.Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	r := checkConfig()
	if !r.ok {
		t.Fatalf("expected checkConfig to pass, got detail: %q", r.detail)
	}
	if !strings.Contains(r.detail, "config.toml") {
		t.Errorf("expected detail to mention config.toml, got: %q", r.detail)
	}
}

func TestCheckConfig_Invalid(t *testing.T) {
	configTestEnv(t)
	t.Setenv("DEVLOG_STREAK_POLICY", "lenient")

	r := checkConfig()
	if r.ok {
		t.Fatal("expected an invalid policy to fail the check")
	}
	if r.fixHint == "" {
		t.Error("expected a fix hint")
	}
}

func TestDoctorChecks_CleanStore(t *testing.T) {
	configTestEnv(t)
	flagUser = "alice"
	ctx := context.Background()

	s, err := openSession(ctx)
	if err != nil {
		t.Fatalf("openSession: %v", err)
	}
	defer s.Close()

	for _, r := range []checkResult{checkUser(s), checkClock(s), checkWindows(ctx, s), checkAggregates(ctx, s)} {
		if !r.ok {
			t.Errorf("%s failed: %s", r.name, r.detail)
		}
	}
}

func TestCheckUser_Missing(t *testing.T) {
	configTestEnv(t)

	s, err := openSession(context.Background())
	if err != nil {
		t.Fatalf("openSession: %v", err)
	}
	defer s.Close()

	r := checkUser(s)
	if r.ok {
		t.Fatal("expected checkUser to fail with no user")
	}
	if !strings.Contains(r.fixHint, "user.id") {
		t.Errorf("expected fix hint to mention user.id, got: %q", r.fixHint)
	}
}

func TestRunDoctor_NoUserFails(t *testing.T) {
	configTestEnv(t)

	var err error
	out := captureStdout(t, func() {
		err = runDoctor(nil, nil)
	})
	if err == nil {
		t.Fatal("expected runDoctor to report a failed check")
	}
	if !strings.Contains(out, "Challenges") {
		t.Errorf("expected challenge check in output, got:\n%s", out)
	}
}
