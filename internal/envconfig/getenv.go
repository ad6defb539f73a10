package envconfig

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
)

const (
	primaryPrefix = "SKILLLITE_"
	legacyPrefix  = "SKILLBOX_"
)

// lookup reads key under the primary SKILLLITE_ prefix, falling back to
// the legacy SKILLBOX_ prefix when unset — spec.md §6's "legacy
// SKILLBOX_* aliases" requirement. Primary always wins when both are set.
func lookup(key string) (string, bool) {
	if v, ok := os.LookupEnv(primaryPrefix + key); ok {
		return v, true
	}
	if v, ok := os.LookupEnv(legacyPrefix + key); ok {
		return v, true
	}
	return "", false
}

func getString(key, defaultValue string) string {
	if v, ok := lookup(key); ok {
		return v
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	v, ok := lookup(key)
	if !ok || v == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[envconfig] WARNING: invalid integer for %s=%q, using default %d", key, v, defaultValue)
		return defaultValue
	}
	return parsed
}

func getBool(key string, defaultValue bool) bool {
	v, ok := lookup(key)
	if !ok || v == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[envconfig] WARNING: invalid boolean for %s=%q, using default %t", key, v, defaultValue)
		return defaultValue
	}
	return parsed
}

// resolveDotEnvCandidates returns the ordered list of .env paths to
// probe, exported via LoadDotEnv's internals so tests can verify
// resolution without side effects.
func resolveDotEnvCandidates() []string {
	var candidates []string
	seen := map[string]bool{}

	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			candidates = append(candidates, p)
		}
	}

	if exe, err := os.Executable(); err == nil {
		if real, err := filepath.EvalSymlinks(exe); err == nil {
			exe = real
		}
		dir := filepath.Dir(exe)
		for i := 0; i <= 3; i++ {
			add(filepath.Join(dir, ".env"))
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		add(filepath.Join(cwd, ".env"))
	}

	return candidates
}
