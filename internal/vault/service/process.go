package service

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Markers printed by the external authorization program. The line after
// each marker carries the value.
const (
	URLSentinel   = "Visit the following URL to authenticate:"
	TokenSentinel = "Here's your access token:"
)

// DefaultHandshakeCommand is the authorization program; the API key is
// appended as the last argument.
var DefaultHandshakeCommand = []string{"poetry", "run", "twitter-plugin-gamesdk", "auth", "-k"}

// errSentinelMissing reports that output ended before the marker and value.
var errSentinelMissing = errors.New("output ended before marker")

const (
	stderrTailBytes  = 4 << 10
	processWaitDelay = 2 * time.Second
)

// authProcess is one running authorization program. Its stdout is consumed
// line by line: first by the initiating request up to the URL, then by the
// watcher up to the token.
type authProcess struct {
	cmd    *exec.Cmd
	stdout *io.PipeReader
	lines  *bufio.Scanner
	stderr *tailBuffer
	exited chan struct{}

	waitErr error
}

// startAuthProcess launches command+apiKey under ctx. Cancelling ctx kills
// the process, and the output stream then ends.
func startAuthProcess(ctx context.Context, command []string, apiKey string) (*authProcess, error) {
	if len(command) == 0 {
		return nil, errors.New("handshake command is empty")
	}

	args := append(append([]string{}, command[1:]...), apiKey)
	cmd := exec.CommandContext(ctx, command[0], args...) // #nosec G204 - command is operator configuration

	pr, pw := io.Pipe()
	stderr := &tailBuffer{limit: stderrTailBytes}
	cmd.Stdout = pw
	cmd.Stderr = stderr
	// Descendants that inherit stdout must not keep Wait blocked after a kill.
	cmd.WaitDelay = processWaitDelay

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", command[0], err)
	}

	p := &authProcess{
		cmd:    cmd,
		stdout: pr,
		lines:  bufio.NewScanner(pr),
		stderr: stderr,
		exited: make(chan struct{}),
	}

	go func() {
		p.waitErr = cmd.Wait()
		_ = pw.Close()
		close(p.exited)
	}()

	return p, nil
}

// valueAfter scans for a line containing marker and returns the trimmed line
// that follows it.
func (p *authProcess) valueAfter(marker string) (string, error) {
	for p.lines.Scan() {
		if !strings.Contains(p.lines.Text(), marker) {
			continue
		}
		if !p.lines.Scan() {
			break
		}
		if v := strings.TrimSpace(p.lines.Text()); v != "" {
			return v, nil
		}
		break
	}
	if err := p.lines.Err(); err != nil {
		return "", err
	}
	return "", errSentinelMissing
}

// release drains remaining output so the process is never blocked writing,
// then waits for it to exit. Callers cancel the process context first when
// they want it gone.
func (p *authProcess) release() {
	go func() { _, _ = io.Copy(io.Discard, p.stdout) }()
	<-p.exited
}

// exitErr returns the result of Wait once the process has exited, and nil
// while it is still running.
func (p *authProcess) exitErr() error {
	select {
	case <-p.exited:
		return p.waitErr
	default:
		return nil
	}
}

// stderrTail returns the last bytes the process wrote to stderr.
func (p *authProcess) stderrTail() string {
	return strings.TrimSpace(p.stderr.String())
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(p)
	if len(p) > b.limit {
		p = p[len(p)-b.limit:]
	}
	if over := b.buf.Len() + len(p) - b.limit; over > 0 {
		b.buf.Next(over)
	}
	b.buf.Write(p)
	return n, nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
