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
	"encoding/json"
	"os"
	"strings"

	"github.com/quincefed/quince/ap"
)

// EditsPath returns the path of a post's edit history file.
func EditsPath(postPath string) string {
	return strings.TrimSuffix(postPath, ".json") + ".edits"
}

// ArchiveEdit records the prior version of an edited post in its edit
// history file, keyed by the prior version's updated or published timestamp.
func ArchiveEdit(postPath string, prior *ap.Activity) error {
	key := ""
	if o, ok := prior.Object.(*ap.Object); ok {
		if !o.Updated.IsZero() {
			key = o.Updated.UTC().Format("2006-01-02T15:04:05Z")
		} else if !o.Published.IsZero() {
			key = o.Published.UTC().Format("2006-01-02T15:04:05Z")
		}
	}
	if key == "" && !prior.Published.IsZero() {
		key = prior.Published.UTC().Format("2006-01-02T15:04:05Z")
	}
	if key == "" {
		key = "unknown"
	}

	path := EditsPath(postPath)

	history := map[string]json.RawMessage{}
	if body, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(body, &history); err != nil {
			history = map[string]json.RawMessage{}
		}
	}

	snapshot, err := json.Marshal(prior)
	if err != nil {
		return err
	}
	history[key] = snapshot

	return WriteJSON(path, history)
}

// EditHistory loads a post's edit history file.
func EditHistory(postPath string) (map[string]json.RawMessage, error) {
	body, err := os.ReadFile(EditsPath(postPath))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, err
	}

	history := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &history); err != nil {
		return nil, err
	}

	return history, nil
}
