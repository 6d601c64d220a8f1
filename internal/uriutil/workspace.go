package uriutil

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var envVarPattern = regexp.MustCompile(`\$\{(\w+)\}`)

// GetRealPath substitutes ${VAR} references from the environment; unset
// variables are left literal rather than erroring, since a missing
// optional SDK variable should not abort initialization-options building.
func GetRealPath(path string) string {
	return envVarPattern.ReplaceAllStringFunc(path, func(m string) string {
		name := envVarPattern.FindStringSubmatch(m)[1]
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return m
	})
}

// NormalizePath resolves env-var substitution, joins a relative path
// against base, and cleans "." / ".." segments without touching the
// filesystem.
func NormalizePath(path, base string) string {
	resolved := GetRealPath(path)
	if !filepath.IsAbs(resolved) && base != "" {
		resolved = filepath.Join(base, resolved)
	}
	return cleanPathComponents(resolved)
}

func cleanPathComponents(path string) string {
	sep := "/"
	if strings.Contains(path, "\\") {
		sep = "\\"
	}
	parts := strings.Split(path, sep)
	prefix := ""
	if len(parts) > 0 && parts[0] == "" {
		prefix = sep
		parts = parts[1:]
	}
	var out []string
	for _, p := range parts {
		switch p {
		case "", ".":
			continue
		case "..":
			if len(out) > 0 && out[len(out)-1] != ".." {
				out = out[:len(out)-1]
			} else if prefix == "" {
				out = append(out, p)
			}
		default:
			out = append(out, p)
		}
	}
	return prefix + strings.Join(out, sep)
}

// StripTrailingSeparator removes a single trailing '/' or '\\', if present.
func StripTrailingSeparator(path string) string {
	if path == "" {
		return path
	}
	last := path[len(path)-1]
	if last == '/' || last == '\\' {
		return path[:len(path)-1]
	}
	return path
}

// MergeUniqueStrings appends items of b to a that are not already present
// in a, preserving order (a's order first, then new items from b in their
// relative order).
func MergeUniqueStrings(a, b []string) []string {
	seen := make(map[string]struct{}, len(a))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	for _, s := range b {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
