package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const rssPollInterval = 200 * time.Millisecond

// runWithLimits starts cmd, pipes input to its stdin, and enforces the
// timeout and memory cap concurrently: one goroutine waits on the process,
// a second samples its RSS every rssPollInterval. Whichever fires first
// wins and the other is a no-op once the process is gone.
func runWithLimits(ctx context.Context, cmd *exec.Cmd, input string, limits ResourceLimits) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, limits.Timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return Result{}, fmt.Errorf("sandbox: stdin pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("sandbox: spawn: %w", err)
	}

	go func() {
		defer stdin.Close()
		_, _ = io.WriteString(stdin, input)
	}()

	g, gctx := errgroup.WithContext(ctx)
	sampleCtx, stopSampling := context.WithCancel(gctx)
	defer stopSampling()
	killedCh := make(chan KillReason, 1)

	g.Go(func() error {
		defer stopSampling()
		return waitForExitOrKill(gctx, cmd, killedCh)
	})
	g.Go(func() error {
		return sampleRSSUntilDone(sampleCtx, cmd, limits.MaxMemoryBytes(), killedCh)
	})

	waitErr := g.Wait()

	killed := KillNone
	select {
	case killed = <-killedCh:
	default:
	}

	exitCode := 0
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	} else if killed != KillNone {
		exitCode = -1
	}

	result := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
		Killed:   killed != KillNone,
		KilledBy: killed,
	}

	if killed != KillNone {
		return result, nil
	}
	if waitErr != nil {
		if _, ok := waitErr.(*exec.ExitError); !ok {
			return result, waitErr
		}
	}
	return result, nil
}

// waitForExitOrKill waits for the process to exit naturally, or kills it
// when the context's timeout fires first.
func waitForExitOrKill(ctx context.Context, cmd *exec.Cmd, killedCh chan<- KillReason) error {
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			if _, ok := err.(*exec.ExitError); ok {
				return nil
			}
			return err
		}
		return nil
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		select {
		case killedCh <- KillTimeout:
		default:
		}
		return nil
	}
}

// sampleRSSUntilDone polls the child's RSS and kills it if it exceeds
// maxBytes. It returns when ctx is done (process exited or timed out
// elsewhere) so it never blocks errgroup.Wait indefinitely.
func sampleRSSUntilDone(ctx context.Context, cmd *exec.Cmd, maxBytes uint64, killedCh chan<- KillReason) error {
	if maxBytes == 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(rssPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if cmd.Process == nil {
				continue
			}
			rss, ok := readRSSBytes(cmd.Process.Pid)
			if !ok {
				continue
			}
			if rss > maxBytes {
				_ = cmd.Process.Kill()
				select {
				case killedCh <- KillOOM:
				default:
				}
				return nil
			}
		}
	}
}

// readRSSBytes reads VmRSS from /proc/<pid>/status on Linux. On other
// platforms (or if /proc is unavailable) it reports ok=false and the
// memory cap becomes advisory only for this sample.
func readRSSBytes(pid int) (uint64, bool) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/status", pid))
	if err != nil {
		return 0, false
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "VmRSS:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0, false
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0, false
		}
		return kb * 1024, true
	}
	return 0, false
}
