package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"belegsort/internal/accounts"
)

const (
	defaultTimeout    = 120 * time.Second
	defaultRetryCount = 1
	defaultRetryDelay = 5 * time.Second
)

// Result captures the metadata extracted from one document. RawText always
// holds the analyzer output (or the error context when invocation failed).
type Result struct {
	Date           string
	Vendor         string
	DocumentType   string
	Recipient      string
	Customer       string
	Account        string
	Amount         string
	Description    string
	RawText        string
	ParseSucceeded bool
}

// Executor abstracts analyzer process execution for testability.
type Executor interface {
	Run(ctx context.Context, dir string, argv []string, stdin string) (stdout, stderr string, err error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, dir string, argv []string, stdin string) (string, string, error) {
	if len(argv) == 0 {
		return "", "", errors.New("empty analyzer command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec
	cmd.Dir = dir
	cmd.Stdin = strings.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// Config captures the runtime settings for the analyzer CLI.
type Config struct {
	// Command is the argv resolved by deps.ResolveAnalyzerCommand.
	Command            []string
	Model              string
	TimeoutSeconds     int
	CustomInstructions string
}

// Client runs the analyzer for individual documents.
type Client struct {
	cfg        Config
	exec       Executor
	retryCount int
	retryDelay time.Duration
	sleeper    func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithRetry overrides the retry count and fixed backoff delay.
func WithRetry(count int, delay time.Duration) Option {
	return func(c *Client) {
		c.retryCount = count
		c.retryDelay = delay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs an analyzer client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if len(cfg.Command) == 0 {
		return nil, errors.New("analyzer command required")
	}
	client := &Client{
		cfg:        cfg,
		exec:       commandExecutor{},
		retryCount: defaultRetryCount,
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Analyze runs the analyzer on one file and interprets the output. The
// returned Result always carries the raw output; ParseSucceeded reports
// whether usable structured metadata was extracted.
func (c *Client) Analyze(ctx context.Context, filePath, companyName string, table *accounts.Table) Result {
	prompt := BuildPrompt(filepath.Base(filePath), companyName, table, c.cfg.CustomInstructions)

	argv := append([]string{}, c.cfg.Command...)
	if strings.TrimSpace(c.cfg.Model) != "" {
		argv = append(argv, "--model", c.cfg.Model)
	}

	timeout := defaultTimeout
	if c.cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(c.cfg.TimeoutSeconds) * time.Second
	}

	var lastErr error
	var lastStderr string
	attempts := c.retryCount + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return failedResult(fmt.Sprintf("analysis canceled: %v", ctx.Err()))
		}

		runCtx, cancel := context.WithTimeout(ctx, timeout)
		stdout, stderr, err := c.exec.Run(runCtx, filepath.Dir(filePath), argv, prompt)
		cancel()

		if err == nil {
			clean := cleanOutput(stdout)
			result, ok := parseResult(clean, table)
			if ok {
				result.RawText = clean
				return result
			}
			return failedResult(clean)
		}

		lastErr = err
		lastStderr = strings.TrimSpace(stderr)
		if errors.Is(ctx.Err(), context.Canceled) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			break
		}
		if attempt < attempts {
			c.sleep(ctx, c.retryDelay)
		}
	}

	detail := fmt.Sprintf("analyzer invocation failed after %d attempt(s): %v", attempts, lastErr)
	if lastStderr != "" {
		detail += "\n" + lastStderr
	}
	return failedResult(detail)
}

func failedResult(raw string) Result {
	return Result{RawText: raw, ParseSucceeded: false}
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// cleanOutput removes tool chatter lines that some analyzer builds emit
// alongside the payload.
func cleanOutput(raw string) string {
	lines := strings.Split(raw, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.Contains(line, "IDEClient") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
