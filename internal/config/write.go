package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SetKeyInFile updates or adds an option in the config file, preserving
// comments and formatting. An empty section means the global options.
//
// If the key exists in the section its line is replaced in place. Otherwise
// the line is inserted at the end of the section (global keys go before the
// first section header), and a missing section is appended to the file.
func SetKeyInFile(path, section, key, value string) error {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config file: %w", err)
	}

	var lines []string
	if len(data) > 0 {
		lines = strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	}

	newLine := key
	if value != "" {
		newLine = key + " " + value
	}

	var (
		current     string
		found       bool
		sectionSeen = section == ""
		// insertIndex is one past the last line belonging to section.
		insertIndex = -1
	)
	if section == "" {
		insertIndex = len(lines)
	}

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			if current == section && section == "" && insertIndex == len(lines) {
				insertIndex = i
			}
			current = strings.TrimSpace(strings.Trim(trimmed, "[]"))
			if current == section {
				sectionSeen = true
				insertIndex = i + 1
			}
			continue
		}

		if current != section {
			continue
		}

		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if section != "" {
			insertIndex = i + 1
		}

		name, _, _ := strings.Cut(trimmed, " ")
		if name == key {
			lines[i] = newLine
			found = true
			break
		}
	}

	switch {
	case found:
	case !sectionSeen:
		if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) != "" {
			lines = append(lines, "")
		}
		lines = append(lines, "["+section+"]", newLine)
	default:
		// Keep the blank line that separates global options from sections.
		for section == "" && insertIndex > 0 && insertIndex < len(lines) && strings.TrimSpace(lines[insertIndex-1]) == "" {
			insertIndex--
		}
		lines = append(lines[:insertIndex], append([]string{newLine}, lines[insertIndex:]...)...)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return writeFileAtomic(path, []byte(strings.Join(lines, "\n")+"\n"), 0644)
}

// writeFileAtomic writes data to a temporary file in the same directory and
// renames it over path.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	name := tmp.Name()
	cleanup := func() { _ = os.Remove(name) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("writing temporary file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("syncing temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("closing temporary file: %w", err)
	}
	if err := os.Chmod(name, perm); err != nil {
		cleanup()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(name, path); err != nil {
		cleanup()
		return fmt.Errorf("replacing config file: %w", err)
	}
	return nil
}
