// Package resolve implements the three-layer dependency resolution
// pipeline: lock file → model inference with registry verification →
// offline allow-list. Exactly one non-empty layer ever produces a result;
// earlier layers short-circuit later ones (spec.md §4.2).
package resolve

import (
	"context"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/skilllite/skilllite/internal/llm"
	"github.com/skilllite/skilllite/internal/manifest"
)

const lockFileName = ".skilllite.lock"

// Dependencies is the pipeline's result.
type Dependencies struct {
	Packages        []string
	Resolver        manifest.Resolver
	UnknownPackages []string // populated only when strict validation was requested
}

// ResolveSync runs Lock → Allow-list (no model layer), for contexts with no
// completion capability available (CLI-only flows).
func ResolveSync(workspaceDir string, m *manifest.Manifest, strict bool) (Dependencies, error) {
	return resolve(context.Background(), workspaceDir, m, nil, strict)
}

// Resolve runs the full Lock → Model → Allow-list pipeline. provider may be
// nil, in which case the model layer is skipped exactly like ResolveSync.
func Resolve(ctx context.Context, workspaceDir string, m *manifest.Manifest, provider llm.Provider, strict bool) (Dependencies, error) {
	return resolve(ctx, workspaceDir, m, provider, strict)
}

func resolve(ctx context.Context, workspaceDir string, m *manifest.Manifest, provider llm.Provider, strict bool) (Dependencies, error) {
	lockPath := filepath.Join(workspaceDir, lockFileName)
	lock, err := manifest.LoadLockFile(lockPath)
	if err != nil {
		lock = manifest.LockFile{}
	}

	// Layer 1: lock.
	if entry, ok := lock[m.Name]; ok && entry.IsFresh(m.Compatibility) && len(entry.ResolvedPackages) > 0 {
		return Dependencies{Packages: entry.ResolvedPackages, Resolver: manifest.ResolverLock}, nil
	}

	language := string(m.Language)
	compat := strings.TrimSpace(m.Compatibility)

	// Layer 2: model inference, only when a provider is given and the
	// compatibility string is non-empty.
	if provider != nil && compat != "" {
		if packages := resolveFromModel(ctx, provider, compat, language); len(packages) > 0 {
			unknown := validateUnknown(packages, language, strict)
			persist(lockPath, lock, m, language, packages, manifest.ResolverLLM)
			return Dependencies{Packages: packages, Resolver: manifest.ResolverLLM, UnknownPackages: unknown}, nil
		}
	}

	// Layer 3: allow-list.
	if compat != "" {
		if packages := ResolveFromWhitelist(compat, language); len(packages) > 0 {
			unknown := validateUnknown(packages, language, strict)
			persist(lockPath, lock, m, language, packages, manifest.ResolverAllowlist)
			return Dependencies{Packages: packages, Resolver: manifest.ResolverAllowlist, UnknownPackages: unknown}, nil
		}
	}

	return Dependencies{Resolver: manifest.ResolverNone}, nil
}

func validateUnknown(packages []string, language string, strict bool) []string {
	if !strict {
		return nil
	}
	return ValidateAgainstWhitelist(packages, language)
}

func persist(lockPath string, lock manifest.LockFile, m *manifest.Manifest, language string, packages []string, resolver manifest.Resolver) {
	sorted := append([]string(nil), packages...)
	sort.Strings(sorted)
	if lock == nil {
		lock = manifest.LockFile{}
	}
	lock[m.Name] = manifest.LockEntry{
		CompatibilityHash: manifest.HashCompatibility(m.Compatibility),
		Language:          m.Language,
		ResolvedPackages:  sorted,
		ResolvedAt:        time.Now(),
		Resolver:          resolver,
	}
	// Best-effort: a lock write failure degrades to "resolve again next
	// time", not a pipeline failure.
	_ = manifest.SaveLockFile(lockPath, lock)
}

// ResolveFromWhitelist tokenises compat and matches against the embedded
// allow-list for language, including alias resolution.
func ResolveFromWhitelist(compat, language string) []string {
	packages, aliases := whitelistFor(language)
	if packages == nil {
		return nil
	}
	lower := strings.ToLower(compat)

	var matched []string
	seen := make(map[string]bool)
	for _, pkg := range packages {
		if isWordBoundaryMatch(lower, strings.ToLower(pkg)) {
			if !seen[pkg] {
				matched = append(matched, pkg)
				seen[pkg] = true
			}
		}
	}
	for alias, canonical := range aliases {
		if isWordBoundaryMatch(lower, strings.ToLower(alias)) {
			if !seen[canonical] {
				matched = append(matched, canonical)
				seen[canonical] = true
			}
		}
	}
	return matched
}

// ValidateAgainstWhitelist returns the subset of packages not present in
// the allow-list for language (after lowercasing, underscore→hyphen
// normalisation, and stripping pip extras like "[dev]").
func ValidateAgainstWhitelist(packages []string, language string) []string {
	known := knownSetFor(language)
	var unknown []string
	for _, p := range packages {
		normalized := strings.ReplaceAll(strings.ToLower(p), "_", "-")
		base, _, _ := strings.Cut(normalized, "[")
		if !known[base] {
			unknown = append(unknown, p)
		}
	}
	return unknown
}

func whitelistFor(language string) ([]string, map[string]string) {
	switch language {
	case "python":
		return pythonPackages, pythonAliases
	case "node":
		return nodePackages, nodeAliases
	default:
		return nil, nil
	}
}

func knownSetFor(language string) map[string]bool {
	packages, _ := whitelistFor(language)
	known := make(map[string]bool, len(packages))
	for _, p := range packages {
		known[strings.ToLower(p)] = true
	}
	return known
}

// isWordBoundaryMatch reports whether word occurs in text with non-
// alphanumeric (or absent) neighbours on both sides, so "requests" never
// matches inside "request".
func isWordBoundaryMatch(text, word string) bool {
	if word == "" {
		return false
	}
	textRunes := []rune(text)
	wordRunes := []rune(word)
	for i := 0; i+len(wordRunes) <= len(textRunes); i++ {
		match := true
		for j, wc := range wordRunes {
			if textRunes[i+j] != wc {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		beforeOK := i == 0 || !isAlnum(textRunes[i-1])
		afterPos := i + len(wordRunes)
		afterOK := afterPos >= len(textRunes) || !isAlnum(textRunes[afterPos])
		if beforeOK && afterOK {
			return true
		}
	}
	return false
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// resolveFromModel prompts provider for installable package names, then
// verifies each candidate against its registry before returning any.
func resolveFromModel(ctx context.Context, provider llm.Provider, compat, language string) []string {
	prompt := "Extract the exact installable package names from this compatibility string.\n" +
		"Language: " + language + "\n" +
		"Compatibility: \"" + compat + "\"\n\n" +
		"Rules:\n" +
		"- Only return package names that can be installed via pip (Python) or npm (Node.js).\n" +
		"- Do NOT include standard library modules (os, sys, json, etc.).\n" +
		"- Do NOT include language runtimes (Python, Node.js).\n" +
		"- Do NOT include system tools (git, docker, etc.).\n" +
		"- Return one package name per line, nothing else.\n" +
		"- If no installable packages, return NONE.\n\n" +
		"Output:"

	resp, err := provider.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, nil)
	if err != nil {
		return nil
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" || strings.EqualFold(text, "NONE") {
		return nil
	}

	var candidates []string
	for _, line := range strings.Split(text, "\n") {
		cleaned := strings.TrimFunc(strings.TrimSpace(line), func(r rune) bool {
			return !isAlnum(r) && r != '-' && r != '_' && r != '.'
		})
		if cleaned == "" {
			continue
		}
		candidates = append(candidates, strings.ToLower(cleaned))
	}
	if len(candidates) == 0 {
		return nil
	}

	var verified []string
	for _, pkg := range candidates {
		if verifyPackage(ctx, pkg, language) {
			verified = append(verified, pkg)
		}
	}
	return verified
}

var registryHTTPClient = &http.Client{Timeout: 5 * time.Second}

// verifyPackage HEADs the package's registry entry (PyPI for python, npm
// for node) and reports whether it exists.
func verifyPackage(ctx context.Context, name, language string) bool {
	var url string
	switch language {
	case "python":
		url = "https://pypi.org/pypi/" + name + "/json"
	case "node":
		url = "https://registry.npmjs.org/" + name
	default:
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	resp, err := registryHTTPClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
