// Package process runs external tools such as ffmpeg and command-line
// recognizers as subprocesses with graceful cancellation.
package process

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-shellwords"
)

// Command configures a subprocess to execute.
type Command struct {
	// Binary is the executable path or name (resolved via PATH).
	Binary string
	// Args are the command-line arguments.
	Args []string
	// Dir is the working directory. If empty, uses the current directory.
	Dir string
	// Env is additional environment variables (key=value). Merged with os.Environ.
	Env []string
	// Stdin provides input to the process. May be nil.
	Stdin io.Reader
	// GracePeriod is how long to wait after SIGTERM before SIGKILL.
	// Defaults to 5 seconds if zero.
	GracePeriod time.Duration
}

// String renders the command line for logs.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Binary
	}
	return c.Binary + " " + strings.Join(c.Args, " ")
}

// Template is a shell-style command line with {name} placeholders,
// e.g. "whisper-cli --model base --file {input} --lang {language}".
type Template struct {
	words []string
}

// ParseTemplate splits line with shell quoting rules.
func ParseTemplate(line string) (*Template, error) {
	words, err := shellwords.NewParser().Parse(line)
	if err != nil {
		return nil, fmt.Errorf("process: parse command %q: %w", line, err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("process: command is empty")
	}
	return &Template{words: words}, nil
}

// Expand substitutes {name} placeholders in every word and returns the command.
// Substitution happens after splitting so values containing spaces stay a single argument.
func (t *Template) Expand(vars map[string]string) Command {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	r := strings.NewReplacer(pairs...)

	words := make([]string, len(t.words))
	for i, w := range t.words {
		words[i] = r.Replace(w)
	}
	return Command{Binary: words[0], Args: words[1:]}
}

// Binary returns the executable named by the template.
func (t *Template) Binary() string {
	return t.words[0]
}
