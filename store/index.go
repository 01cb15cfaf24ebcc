/*
Copyright 2025, 2026 the quince authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package store

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/quincefed/quince/danger"
)

// IndexAdd prepends a line to an index file, deduplicating first.
// Index files are newest-first.
func IndexAdd(path, line string) error {
	old, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	for l := range strings.Lines(danger.String(old)) {
		if strings.TrimSuffix(l, "\n") == line {
			return nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	content := make([]byte, 0, len(line)+1+len(old))
	content = append(content, line...)
	content = append(content, '\n')
	content = append(content, old...)

	return os.WriteFile(path, content, 0o644)
}

// IndexRemove removes a line from an index file, if present.
func IndexRemove(path, line string) error {
	old, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var b strings.Builder
	found := false
	for l := range strings.Lines(danger.String(old)) {
		if strings.TrimSuffix(l, "\n") == line {
			found = true
			continue
		}
		b.WriteString(l)
	}

	if !found {
		return nil
	}

	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// IndexContains reports whether an index file contains a line.
func IndexContains(path, line string) bool {
	old, err := os.ReadFile(path)
	if err != nil {
		return false
	}

	for l := range strings.Lines(danger.String(old)) {
		if strings.TrimSuffix(l, "\n") == line {
			return true
		}
	}

	return false
}

// IndexLines returns all lines of an index file, newest first.
func IndexLines(path string) ([]string, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var lines []string
	for l := range strings.Lines(danger.String(body)) {
		l = strings.TrimSuffix(l, "\n")
		if l != "" {
			lines = append(lines, l)
		}
	}

	return lines, nil
}
