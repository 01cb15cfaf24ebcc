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
	"fmt"
	"os"
	"path/filepath"

	"github.com/quincefed/quince/ap"
)

// WriteJSON marshals v and writes it to path in a single whole-file write,
// creating parent directories if needed.
func WriteJSON(path string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, body, 0o644)
}

// ReadActivity reads and parses one stored activity file.
func ReadActivity(path string) (*ap.Activity, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var activity ap.Activity
	if err := json.Unmarshal(body, &activity); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return &activity, nil
}

// ReadObject reads a stored activity file and returns its embedded object,
// unwrapping a Create if needed.
func ReadObject(path string) (*ap.Object, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var activity ap.Activity
	if err := json.Unmarshal(body, &activity); err == nil {
		if o, ok := activity.Object.(*ap.Object); ok && activity.Type == ap.Create {
			return o, nil
		}
	}

	var object ap.Object
	if err := json.Unmarshal(body, &object); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return &object, nil
}

// LocatePost finds the file a post is stored under, in any of the account's
// boxes. Returns an empty string if the post is not stored locally.
func (st *Store) LocatePost(nickname, id string) string {
	for _, box := range []string{"inbox", "outbox", "tlblogs"} {
		path := st.PostPath(nickname, box, id)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LocatePostAnyAccount finds a post file under any local account.
func (st *Store) LocatePostAnyAccount(id string) string {
	nicknames, err := st.Accounts()
	if err != nil {
		return ""
	}

	for _, nickname := range nicknames {
		if path := st.LocatePost(nickname, id); path != "" {
			return path
		}
	}

	return ""
}
