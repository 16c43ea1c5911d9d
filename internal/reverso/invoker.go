package reverso

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

// Collaborator is anything that can answer a translation request with a payload.
//
// A returned error means no payload could be obtained at all. Failures the
// collaborator reports itself come back as a payload whose OK is false.
type Collaborator interface {
	Invoke(ctx context.Context, req Request) (Payload, error)
}

// Config holds configuration for the helper process
type Config struct {
	Command []string      // Command line of the helper, e.g. ["node", "reverso_helper.js"]
	Timeout time.Duration // Upper bound for a single invocation, 0 disables it
}

// DefaultConfig returns the default helper configuration
func DefaultConfig() *Config {
	return &Config{
		Command: []string{"node", "reverso_helper.js"},
		Timeout: 30 * time.Second,
	}
}

// waitDelay bounds how long Invoke waits for the helper's output pipes after
// the process itself has exited or been killed. A grandchild inheriting them
// would otherwise keep Invoke blocked past its timeout.
const waitDelay = 2 * time.Second

// Invoker runs the helper process once per call
type Invoker struct {
	config *Config
}

// NewInvoker creates a new invoker with the given configuration
func NewInvoker(config *Config) (*Invoker, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if len(config.Command) == 0 || strings.TrimSpace(config.Command[0]) == "" {
		return nil, fmt.Errorf("helper command cannot be empty")
	}

	if config.Timeout < 0 {
		return nil, fmt.Errorf("helper timeout cannot be negative: %s", config.Timeout)
	}

	return &Invoker{config: config}, nil
}

// Runtime returns the executable the helper is launched with
func (i *Invoker) Runtime() string {
	return i.config.Command[0]
}

// Invoke sends req to a fresh helper process and waits for it to exit.
func (i *Invoker) Invoke(ctx context.Context, req Request) (Payload, error) {
	envelope, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode helper request: %w", err)
	}

	runCtx := ctx
	if i.config.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, i.config.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, i.config.Command[0], i.config.Command[1:]...)
	cmd.Stdin = bytes.NewReader(envelope)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	if errors.Is(err, exec.ErrWaitDelay) {
		// Clean exit, but something still held stdout open.
		log.Warn().Str("mode", string(req.Mode)).Msg("Helper output pipes outlived the process")
		err = nil
	}

	event := log.Debug().
		Str("mode", string(req.Mode)).
		Str("runtime", i.Runtime()).
		Dur("dur", time.Since(start))
	if cmd.ProcessState != nil {
		event = event.Int("exit_code", cmd.ProcessState.ExitCode())
	}
	event.Msg("Helper process finished")

	// The context check comes first: a killed child also reports an exit error.
	if err != nil && runCtx.Err() != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("helper invocation aborted: %w", ctx.Err())
		}

		return nil, fmt.Errorf("%w after %s", ErrTimeout, i.config.Timeout)
	}

	var exitErr *exec.ExitError

	switch {
	case err == nil:
		if !isObject(stdout.Bytes()) {
			log.Warn().
				Str("mode", string(req.Mode)).
				Str("stdout", truncate(stdout.String(), 200)).
				Msg("Helper exited cleanly with unparsable output")

			return nil, fmt.Errorf("%w: %q", ErrMalformedOutput, truncate(stdout.String(), 200))
		}

		return Payload(stdout.Bytes()), nil

	case errors.As(err, &exitErr):
		log.Warn().
			Str("mode", string(req.Mode)).
			Int("exit_code", exitErr.ExitCode()).
			Msg("Helper exited with failure")

		return failureFromStderr(stderr.Bytes()), nil

	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		runtime := i.Runtime()
		log.Warn().Err(err).Str("runtime", runtime).Msg("Helper runtime not found")

		return Failure(fmt.Sprintf("%s not found. Ensure '%s' is on PATH.", runtime, runtime)), nil

	default:
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
}

// failureFromStderr prefers the helper's own JSON failure document and falls
// back to the raw diagnostic text.
func failureFromStderr(stderr []byte) Payload {
	if isObject(stderr) {
		return Payload(stderr)
	}

	message := strings.TrimSpace(string(stderr))
	if message == "" {
		message = "Unknown error"
	}

	return Failure(message)
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}

	return s[:n] + "..."
}
