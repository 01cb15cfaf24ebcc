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
)

// Notification marker files. Their presence signals an unseen event of that
// kind; the rendering layer deletes them once shown.
const (
	NewDM           = ".newDM"
	NewReply        = ".newReply"
	NewLike         = ".newLike"
	NewReaction     = ".newReaction"
	NewPatch        = ".newPatch"
	NewNotifiedPost = ".newNotifiedPost"

	// last-value files, used to suppress immediate duplicate notifications
	PrevLike     = ".prevLike"
	PrevReaction = ".prevReaction"
)

// WriteMarker creates a notification marker file for an account.
func (st *Store) WriteMarker(nickname, marker, content string) error {
	dir := st.AccountDir(nickname)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, marker), []byte(content), 0o644)
}

// MarkerExists reports whether an account has an unseen marker of this kind.
func (st *Store) MarkerExists(nickname, marker string) bool {
	_, err := os.Stat(filepath.Join(st.AccountDir(nickname), marker))
	return err == nil
}

// WriteMarkerIfChanged creates a marker unless the matching last-value file
// already holds the same content, then records the content as the last value.
// Returns whether the marker was written.
func (st *Store) WriteMarkerIfChanged(nickname, marker, prev, content string) (bool, error) {
	prevPath := filepath.Join(st.AccountDir(nickname), prev)
	if old, err := os.ReadFile(prevPath); err == nil && string(old) == content {
		return false, nil
	}

	if err := st.WriteMarker(nickname, marker, content); err != nil {
		return false, err
	}

	return true, os.WriteFile(prevPath, []byte(content), 0o644)
}
