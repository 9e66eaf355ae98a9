package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// collectFiles expands globs and walks directories, keeping files with one of exts.
// A plain file argument is taken as is.
func collectFiles(args []string, exts ...string) ([]string, error) {
	var files []string

	for _, arg := range args {
		if !isPattern(arg) {
			info, err := os.Stat(arg)
			if err != nil {
				return nil, fmt.Errorf("file not found: %s", arg)
			}
			if !info.IsDir() {
				files = append(files, arg)
				continue
			}
			found, err := walkDir(arg, exts)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
			continue
		}

		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", arg, err)
		}
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				continue
			}
			if info.IsDir() {
				found, err := walkDir(match, exts)
				if err != nil {
					return nil, err
				}
				files = append(files, found...)
			} else if hasExt(match, exts) {
				files = append(files, match)
			}
		}
	}

	return files, nil
}

func walkDir(root string, exts []string) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && hasExt(path, exts) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func isPattern(arg string) bool {
	return strings.ContainsAny(arg, "*?[")
}

func hasExt(path string, exts []string) bool {
	return slices.Contains(exts, strings.ToLower(filepath.Ext(path)))
}
