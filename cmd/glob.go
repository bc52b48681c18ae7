// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// sourceExt is the extension of cool source files.
const sourceExt = ".cl"

// expandArgs expands arguments, resolving patterns ending with "/..." to all
// .cl files found recursively under the given directory, and drops the
// paths matching any exclude pattern. Non-pattern arguments pass through
// unchanged.
func expandArgs(args []string, excludes []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		if dir, ok := strings.CutSuffix(arg, "/..."); ok {
			if dir == "" {
				dir = "."
			}
			files, err := findSourceFiles(dir)
			if err != nil {
				return nil, fmt.Errorf("expanding %s: %w", arg, err)
			}
			out = append(out, files...)
		} else {
			out = append(out, arg)
		}
	}
	return filterExcludes(out, excludes), nil
}

func findSourceFiles(root string) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if filepath.Ext(path) == sourceExt {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// filterExcludes returns the paths not matching any pattern in excludes.
func filterExcludes(paths []string, excludes []string) []string {
	if len(excludes) == 0 {
		return paths
	}
	var out []string
	for _, p := range paths {
		if !matchesAny(p, excludes) {
			out = append(out, p)
		}
	}
	return out
}

// matchesAny reports whether a pattern matches the full path, its base
// name or any of its directory components.
func matchesAny(path string, patterns []string) bool {
	path = filepath.ToSlash(path)
	components := splitPath(path)
	for _, pat := range patterns {
		if ok, _ := filepath.Match(pat, path); ok {
			return true
		}
		for _, c := range components {
			if ok, _ := filepath.Match(pat, c); ok {
				return true
			}
		}
	}
	return false
}

func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(filepath.ToSlash(path), "/") {
		if p != "" && p != "." {
			parts = append(parts, p)
		}
	}
	return parts
}
