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

// Package store reads and writes the flat-file account tree.
//
// Every account lives under accounts/<nickname>@<domain>/ with one JSON file
// per post and plain-text index files, one post filename per line,
// newest first.
package store

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// SharedInboxAccount is the pseudo-account receiving followers-addressed
// posts, fanned out locally by the queue consumer.
const SharedInboxAccount = "inbox"

// Store is a flat-file account store rooted at BaseDir, serving the instance
// at Domain.
type Store struct {
	BaseDir string
	Domain  string
}

// Handle returns the nickname@domain form of a local account.
func (st *Store) Handle(nickname string) string {
	return nickname + "@" + st.Domain
}

// AccountDir returns the directory holding an account's boxes.
func (st *Store) AccountDir(nickname string) string {
	return filepath.Join(st.BaseDir, "accounts", st.Handle(nickname))
}

// AccountExists reports whether a local account directory exists.
func (st *Store) AccountExists(nickname string) bool {
	info, err := os.Stat(st.AccountDir(nickname))
	return err == nil && info.IsDir()
}

// Accounts lists the nicknames of all local accounts, the shared inbox
// pseudo-account excluded.
func (st *Store) Accounts() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(st.BaseDir, "accounts"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var nicknames []string
	suffix := "@" + st.Domain
	for _, e := range entries {
		if !e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		nickname := strings.TrimSuffix(e.Name(), suffix)
		if nickname == SharedInboxAccount {
			continue
		}
		nicknames = append(nicknames, nickname)
	}

	return nicknames, nil
}

// Actor returns the actor URL of a local account.
func (st *Store) Actor(nickname string) string {
	return fmt.Sprintf("https://%s/users/%s", st.Domain, nickname)
}

// LocalNickname extracts the nickname from a local actor URL, or returns
// false if the URL does not belong to this instance.
func (st *Store) LocalNickname(actor string) (string, bool) {
	for _, pattern := range []string{"/users/", "/profile/", "/channel/", "/accounts/", "/@"} {
		prefix := "https://" + st.Domain + pattern
		if rest, ok := strings.CutPrefix(actor, prefix); ok && rest != "" && !strings.Contains(rest, "/") {
			return rest, true
		}
	}
	return "", false
}

// IsLocal reports whether a URL belongs to this instance.
func (st *Store) IsLocal(id string) bool {
	return strings.HasPrefix(id, "https://"+st.Domain+"/")
}

// PostFilename returns the file name a post is stored under, a URL-safe
// transform of its ID.
func PostFilename(id string) string {
	return url.QueryEscape(id) + ".json"
}

// BoxDir returns the directory of one of an account's boxes
// (inbox, outbox, queue, tlblogs).
func (st *Store) BoxDir(nickname, box string) string {
	return filepath.Join(st.AccountDir(nickname), box)
}

// BoxIndex returns the path of a box's timeline index file, one post
// filename per line, newest first.
func (st *Store) BoxIndex(nickname, box string) string {
	return filepath.Join(st.AccountDir(nickname), box+".index")
}

// PostPath returns the path a post is stored under in the given box.
func (st *Store) PostPath(nickname, box, id string) string {
	return filepath.Join(st.BoxDir(nickname, box), PostFilename(id))
}
