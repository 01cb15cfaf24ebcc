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

package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quincefed/quince/ap"
	"github.com/quincefed/quince/store"
)

// HasParams is the cheap shape check the HTTP layer runs before enqueueing:
// an activity without these fields can never be processed.
func HasParams(raw json.RawMessage) bool {
	var activity struct {
		ID     string          `json:"id"`
		Type   string          `json:"type"`
		Actor  string          `json:"actor"`
		Object json.RawMessage `json:"object"`
	}

	if err := json.Unmarshal(raw, &activity); err != nil {
		return false
	}

	return activity.Type != "" && activity.Actor != "" && len(activity.Object) > 0
}

// Permitted rejects obviously non-federation-permitted input before it ever
// reaches the queue: non-https actors and senders from blocked domains.
func Permitted(actor string, blocked func(domain string) bool) bool {
	rest, ok := strings.CutPrefix(actor, "https://")
	if !ok {
		return false
	}

	domain, _, _ := strings.Cut(rest, "/")
	if domain == "" {
		return false
	}

	return blocked == nil || !blocked(domain)
}

// Save writes a queue item file under the recipient's queue directory and
// returns its path. This is the producer half of the queue; the file name
// carries the arrival timestamp so consumption order is explicit.
func Save(st *store.Store, item *Item, now time.Time) (string, error) {
	if item.Nickname == "" {
		return "", errors.New("queue item has no recipient")
	}

	var activity ap.Activity
	if err := json.Unmarshal(item.Post, &activity); err != nil {
		return "", fmt.Errorf("failed to parse post: %w", err)
	}

	if item.ID == "" {
		item.ID = activity.ID
	}
	if item.OriginalID == "" {
		item.OriginalID = activity.ID
	}
	if len(item.Original) == 0 {
		item.Original = item.Post
	}
	if item.Destination == "" {
		item.Destination = st.PostPath(item.Nickname, "inbox", activity.ID)
	}

	name := fmt.Sprintf("%020d-%s.json", now.UnixNano(), uuid.NewString())
	path := filepath.Join(st.BoxDir(item.Nickname, "queue"), name)

	if err := store.WriteJSON(path, item); err != nil {
		return "", err
	}

	item.Filename = path
	return path, nil
}
