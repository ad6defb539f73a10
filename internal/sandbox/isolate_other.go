//go:build !linux

package sandbox

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// isolate has no grounding for non-Linux OS-level isolation in the
// reference material (original_source's sandbox crate only ships a Linux
// backend — no macos.rs/windows.rs were present in the filtered tree), so
// L2/L3 are unavailable here; callers should fall back to L1 or refuse.
func isolate(ctx context.Context, cfg Config, runtimePaths RuntimePaths, workDir string, mode NetworkMode, proxyEnv []string) (*exec.Cmd, error) {
	return nil, fmt.Errorf("sandbox: OS-level isolation is only implemented for linux (running on %s)", runtime.GOOS)
}
