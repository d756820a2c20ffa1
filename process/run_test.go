package process_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/transcriber/process"
)

func TestRun(t *testing.T) {
	tests := []struct {
		name       string
		cmd        process.Command
		wantErr    bool
		wantExit   int
		wantStdout string
		wantStderr string
	}{
		{name: "argv", cmd: process.Command{Binary: "echo", Args: []string{"hello", "world"}}, wantStdout: "hello world"},
		{name: "stdin", cmd: process.Command{Binary: "cat", Stdin: strings.NewReader("from stdin")}, wantStdout: "from stdin"},
		{name: "stderr", cmd: process.Command{Binary: "sh", Args: []string{"-c", "echo oops >&2"}}, wantStderr: "oops"},
		{name: "env", cmd: process.Command{Binary: "sh", Args: []string{"-c", "echo $MY_TEST_VAR"}, Env: []string{"MY_TEST_VAR=hello123"}}, wantStdout: "hello123"},
		{name: "exit code", cmd: process.Command{Binary: "sh", Args: []string{"-c", "exit 42"}}, wantErr: true, wantExit: 42},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := process.Run(context.Background(), tc.cmd)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Run() error = %v, wantErr %v", err, tc.wantErr)
			}
			if res.ExitCode != tc.wantExit {
				t.Errorf("exit code = %d, want %d", res.ExitCode, tc.wantExit)
			}
			if got := strings.TrimSpace(string(res.Stdout)); got != tc.wantStdout {
				t.Errorf("stdout = %q, want %q", got, tc.wantStdout)
			}
			if got := strings.TrimSpace(string(res.Stderr)); got != tc.wantStderr {
				t.Errorf("stderr = %q, want %q", got, tc.wantStderr)
			}
		})
	}
}

func TestRunContextKillsGroup(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	res, err := process.Run(ctx, process.Command{Binary: "sh", Args: []string{"-c", "sleep 10 & wait"}, GracePeriod: 500 * time.Millisecond})
	if err == nil || !strings.Contains(err.Error(), "killed by context") {
		t.Fatalf("expected context kill, got %v", err)
	}
	if res.Duration > 5*time.Second {
		t.Fatalf("process took too long to kill: %v", res.Duration)
	}
}

func TestRunRequiresBinary(t *testing.T) {
	if _, err := process.Run(context.Background(), process.Command{}); err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestRunMissingBinary(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{Binary: "definitely-not-a-real-binary-xyz"})
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
	if result.ExitCode != -1 {
		t.Errorf("expected exit code -1, got %d", result.ExitCode)
	}
	if process.Available("definitely-not-a-real-binary-xyz") {
		t.Error("expected missing binary to be unavailable")
	}
	if !process.Available("sh") {
		t.Error("expected sh to be available")
	}
}

func TestTemplateExpand(t *testing.T) {
	tmpl, err := process.ParseTemplate(`recognize --model "base en" --file {input} --lang={language}`)
	if err != nil {
		t.Fatalf("ParseTemplate failed: %v", err)
	}
	cmd := tmpl.Expand(map[string]string{"input": "/tmp/my file.wav", "language": "en-US"})
	if cmd.Binary != "recognize" || tmpl.Binary() != "recognize" {
		t.Fatalf("unexpected binary %q", cmd.Binary)
	}
	want := []string{"--model", "base en", "--file", "/tmp/my file.wav", "--lang=en-US"}
	if len(cmd.Args) != len(want) {
		t.Fatalf("expected %v, got %v", want, cmd.Args)
	}
	for i := range want {
		if cmd.Args[i] != want[i] {
			t.Errorf("arg %d: expected %q, got %q", i, want[i], cmd.Args[i])
		}
	}
	if cmd.String() != "recognize --model base en --file /tmp/my file.wav --lang=en-US" {
		t.Errorf("unexpected String() %q", cmd.String())
	}
}

func TestParseTemplateErrors(t *testing.T) {
	for _, line := range []string{"", `unterminated "quote`} {
		if _, err := process.ParseTemplate(line); err == nil {
			t.Errorf("expected error for %q", line)
		}
	}
}

func TestStderrTail(t *testing.T) {
	r := &process.Result{Stderr: []byte("banner\nconfig\nInvalid data found when processing input\n")}
	if got := r.StderrTail(1); got != "Invalid data found when processing input" {
		t.Errorf("unexpected tail %q", got)
	}
	var nilResult *process.Result
	if nilResult.StderrTail(3) != "" {
		t.Error("expected empty tail for nil result")
	}
}

func TestRunnerTimeout(t *testing.T) {
	r := process.NewRunner("ffmpeg", process.Config{Timeout: 50 * time.Millisecond, GracePeriod: 100 * time.Millisecond, MaxConcurrent: 1})
	_, err := r.Run(context.Background(), process.Command{Binary: "sleep", Args: []string{"5"}})
	if err == nil || !strings.Contains(err.Error(), "killed by context") {
		t.Fatalf("expected timeout kill, got %v", err)
	}
}

func TestRunnerConcurrencyCap(t *testing.T) {
	r := process.NewRunner("ffmpeg", process.Config{MaxConcurrent: 1})
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(context.Background(), process.Command{Binary: "sleep", Args: []string{"0.3"}})
	}()
	time.Sleep(50 * time.Millisecond)

	_, err := r.Run(context.Background(), process.Command{Binary: "true"})
	if err == nil {
		t.Error("expected second run to be rejected while the slot is busy")
	}
	<-done
}
