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
	"net/url"
	"os"
	"path/filepath"
	"time"
)

func (st *Store) lastSeenPath(nickname, actor string) string {
	return filepath.Join(st.AccountDir(nickname), "lastseen", url.QueryEscape(actor))
}

// UpdateLastSeen records when a remote actor was last seen by an account,
// at most once per interval. Used for dormant-account detection.
func (st *Store) UpdateLastSeen(nickname, actor string, now time.Time, interval time.Duration) error {
	path := st.lastSeenPath(nickname, actor)

	if info, err := os.Stat(path); err == nil && now.Sub(info.ModTime()) < interval {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, []byte(now.UTC().Format("2006-01-02T15:04:05Z")), 0o644)
}

func (st *Store) lastPostPath(nickname, actor string) string {
	return filepath.Join(st.AccountDir(nickname), "lastpost", url.QueryEscape(actor))
}

// RecordLastPost records the most recent post ID seen from an actor,
// used to tell a same-author edit from a new post.
func (st *Store) RecordLastPost(nickname, actor, postID string) error {
	path := st.lastPostPath(nickname, actor)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(postID), 0o644)
}

// LastPost returns the most recent post ID seen from an actor, if any.
func (st *Store) LastPost(nickname, actor string) string {
	body, err := os.ReadFile(st.lastPostPath(nickname, actor))
	if err != nil {
		return ""
	}
	return string(body)
}
