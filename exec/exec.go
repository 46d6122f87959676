package exec

/*
  Runs the command lines bound to exec: actions, each in its own process
  group so a timeout takes the whole tree down.
*/

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/kballard/go-shellquote"
)

const killGrace = time.Second / 2

type Command struct {
	ID       string
	Line     string   // shell words, split with POSIX quoting rules
	UseShell bool     // hand Line to /bin/sh -c instead
	Env      []string // added to the daemon's environment
	Dir      string
	StdIn    []byte
	Timeout  time.Duration // 0: until ctx is done
	MaxReply int64         // bytes kept per output stream, 0: discard
	NoWait   bool          // start and forget, output goes to /dev/null
}

type Result struct {
	ID        string   `json:"id"`
	Processed bool     `json:"processed"` // was it ever started?
	Command   string   `json:"command"`
	Args      []string `json:"args,omitempty"`
	Status    int      `json:"status"`
	StdOut    []byte   `json:"stdout,omitempty"`
	StdErr    []byte   `json:"stderr,omitempty"`
}

func (r *Result) String() string {
	return fmt.Sprintf("exec %s %q: status %d", r.ID, r.Command, r.Status)
}

// Argv splits a command line into words.
func Argv(line string) ([]string, error) {
	args, err := shellquote.Split(line)
	if err != nil {
		return nil, fmt.Errorf("Parse error: %q: %w", line, err)
	}
	if len(args) == 0 {
		return nil, errors.New("Parse error: empty command line")
	}
	return args, nil
}

// Run starts c and waits for it unless c.NoWait is set. Failures are
// reported in the Result: Status -1 when the command could not start.
func Run(ctx context.Context, c Command) *Result {
	r := &Result{ID: c.ID, Command: c.Line}

	var cmd *exec.Cmd
	if c.UseShell {
		cmd = exec.Command("/bin/sh", "-c", c.Line)
	} else {
		args, err := Argv(c.Line)
		if err != nil {
			r.Status = -1
			r.StdErr = []byte(err.Error())
			return r
		}
		r.Command, r.Args = args[0], args[1:]
		cmd = exec.Command(args[0], args[1:]...)
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stdin = bytes.NewReader(c.StdIn)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(cmd.Environ(), c.Env...)
	}

	var stdoutIn, stderrIn io.ReadCloser
	if !c.NoWait {
		stdoutIn, _ = cmd.StdoutPipe()
		stderrIn, _ = cmd.StderrPipe()
	}

	if err := cmd.Start(); err != nil {
		r.Status = -1
		r.StdErr = []byte(err.Error())
		return r
	}
	r.Processed = true
	if c.NoWait {
		go cmd.Wait() // reap
		return r
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	done := make(chan struct{})
	defer close(done)
	go func(pid int) {
		select {
		case <-done:
			return
		case <-ctx.Done():
		}
		// Signal the group: cmd.Process.Signal would leave orphans.
		syscall.Kill(-pid, syscall.SIGTERM)
		select {
		case <-done:
		case <-time.After(killGrace):
			syscall.Kill(-pid, syscall.SIGKILL)
		}
	}(cmd.Process.Pid)

	var stdout, stderr bytes.Buffer
	var errStdout, errStderr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		errStdout = capture(&stdout, stdoutIn, c.MaxReply)
	}()
	errStderr = capture(&stderr, stderrIn, c.MaxReply)
	wg.Wait()

	err := cmd.Wait()
	r.StdOut = stdout.Bytes()
	r.StdErr = stderr.Bytes()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			r.Status = exitErr.ExitCode()
			if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
				r.Status = -int(ws.Signal())
			}
		} else {
			r.Status = -1
			r.StdErr = append(r.StdErr, err.Error()...)
		}
	}
	switch {
	case errStdout != nil:
		r.StdOut = []byte(errStdout.Error())
		r.Status = -254
	case errStderr != nil:
		r.StdErr = []byte(errStderr.Error())
		r.Status = -255
	}
	return r
}

// capture keeps at most limit bytes of in and drains the rest.
func capture(w io.Writer, in io.Reader, limit int64) error {
	_, err := io.CopyN(w, in, limit)
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = io.Copy(io.Discard, in)
	return err
}
