// Package envconfig reads the SKILLLITE_* environment variables spec.md
// §6 names (with legacy SKILLBOX_* aliases) into a single Config the CLI
// wiring layer hands to each component. Grounded in
// internal/config/env.go's getenv-with-default helpers, generalized with
// an alias fallback instead of a single key.
package envconfig

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the resolved set of environment-controlled knobs spec.md §6
// recognises. Every field has a zero-value-safe default applied by Load;
// nothing here is required to be set.
type Config struct {
	WorkspaceRoot string // workspace root a skill is resolved/executed against
	OutputDir     string // output directory for skill-produced artifacts

	APIKey  string
	Model   string
	BaseURL string

	SandboxLevel int // 1, 2, or 3; validated by the caller via sandbox.Level

	MemoryLimitMB  int // 0 means "use the sandbox package default"
	TimeoutSeconds int // 0 means "use the sandbox package default"

	NetworkProxyDisabled bool // force-disables the per-invocation filtering proxy

	CompactionThreshold int // rune budget before transcript compaction is triggered

	SummarizeThreshold int    // char threshold before a tool result is summarised (C11)
	SummarizeStrategy  string // "head_tail_only" | "head_tail_extract" | "map_reduce_full"

	EvolutionEnabled bool // gates the evolution subsystem's background task
}

// Load builds a Config from the current process environment. Call
// LoadDotEnv first if a .env file should be merged into the environment.
func Load() Config {
	return Config{
		WorkspaceRoot: getString("WORKSPACE_ROOT", ""),
		OutputDir:     getString("OUTPUT_DIR", ""),

		APIKey:  getString("API_KEY", ""),
		Model:   getString("MODEL", ""),
		BaseURL: getString("BASE_URL", ""),

		SandboxLevel: getInt("SANDBOX_LEVEL", 3),

		MemoryLimitMB:  getInt("MEMORY_LIMIT_MB", 0),
		TimeoutSeconds: getInt("TIMEOUT_SECONDS", 0),

		NetworkProxyDisabled: getBool("NETWORK_PROXY_DISABLED", false),

		CompactionThreshold: getInt("COMPACTION_THRESHOLD", 0),

		SummarizeThreshold: getInt("SUMMARIZE_THRESHOLD", 30000),
		SummarizeStrategy:  getString("SUMMARIZE_STRATEGY", "head_tail_extract"),

		EvolutionEnabled: getBool("EVOLUTION_ENABLED", false),
	}
}

// LoadDotEnv merges a .env file into the process environment before Load
// is called, mirroring internal/config/env.go's search order: explicit
// paths first, then the running executable's directory (walking up to
// catch a project root above a bin/ subdirectory), then the current
// working directory. Silent if nothing is found — system env vars alone
// are a valid configuration.
func LoadDotEnv(paths ...string) {
	if len(paths) > 0 {
		if err := godotenv.Load(paths...); err != nil {
			log.Printf("[envconfig] no .env file at specified path(s), using system environment variables")
		}
		return
	}

	candidates := resolveDotEnvCandidates()
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err != nil {
				log.Printf("[envconfig] failed to load .env from %s: %v", p, err)
			} else {
				log.Printf("[envconfig] loaded .env from %s", p)
			}
			return
		}
	}
	log.Printf("[envconfig] no .env file found (searched: %v), using system environment variables", candidates)
}
