package exec

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestArgv(t *testing.T) {
	args, err := Argv(`notify-send 'hello there' "a \"b\"" c\ d`)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"notify-send", "hello there", `a "b"`, "c d"}
	if strings.Join(args, "|") != strings.Join(want, "|") {
		t.Errorf("args = %q", args)
	}
	for _, bad := range []string{"", "   ", "echo 'open"} {
		if _, err := Argv(bad); err == nil {
			t.Errorf("%q: no error", bad)
		}
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		name   string
		cmd    Command
		status int
		stdout string
	}{
		{"echo", Command{Line: "echo hello", MaxReply: 100}, 0, "hello\n"},
		{"status", Command{Line: "sh -c 'exit 3'", MaxReply: 100}, 3, ""},
		{"truncated", Command{Line: "echo 0123456789", MaxReply: 4}, 0, "0123"},
		{"discarded", Command{Line: "echo 0123456789"}, 0, ""},
		{"stdin", Command{Line: "cat", StdIn: []byte("abc"), MaxReply: 100}, 0, "abc"},
		{"shell", Command{Line: "echo $KW_TEST", UseShell: true, Env: []string{"KW_TEST=bar"}, MaxReply: 100}, 0, "bar\n"},
	} {
		r := Run(ctx, tc.cmd)
		if !r.Processed {
			t.Errorf("%s: not processed: %s", tc.name, r.StdErr)
			continue
		}
		if r.Status != tc.status || string(r.StdOut) != tc.stdout {
			t.Errorf("%s: status %d stdout %q, want %d %q", tc.name, r.Status, r.StdOut, tc.status, tc.stdout)
		}
	}
}

func TestRunArgs(t *testing.T) {
	r := Run(context.Background(), Command{ID: "x", Line: "printf '%s-%s' a 'b c'", MaxReply: 100})
	if r.Command != "printf" || len(r.Args) != 3 || string(r.StdOut) != "a-b c" {
		t.Errorf("got %+v", r)
	}
}

func TestRunMissing(t *testing.T) {
	r := Run(context.Background(), Command{Line: "/nonexistent/keyweaver-test"})
	if r.Processed || r.Status != -1 || len(r.StdErr) == 0 {
		t.Errorf("got %+v", r)
	}
	r = Run(context.Background(), Command{Line: "echo 'open"})
	if r.Processed || r.Status != -1 {
		t.Errorf("bad quoting: got %+v", r)
	}
}

func TestRunTimeout(t *testing.T) {
	start := time.Now()
	r := Run(context.Background(), Command{Line: "sleep 5", Timeout: 100 * time.Millisecond})
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("took %v", elapsed)
	}
	if r.Status != -15 {
		t.Errorf("status = %d, want -15 (SIGTERM)", r.Status)
	}
}

func TestRunCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	r := Run(ctx, Command{Line: "sh -c 'sleep 5; echo late'", MaxReply: 100})
	if r.Status >= 0 || len(r.StdOut) != 0 {
		t.Errorf("got %+v", r)
	}
}
