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

// Package queue implements the durable, file-backed inbox queue.
//
// Every received activity is written once as a queue item file by the HTTP
// layer and consumed exactly once by the queue consumer loop. Queue items
// left on disk by a crashed process are recovered by a directory rescan.
package queue

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Item wraps one received activity plus its delivery metadata. It is the
// wire contract between the HTTP-receiving layer and the consumer loop.
type Item struct {
	ID           string            `json:"id"`
	OriginalID   string            `json:"originalId"`
	Actor        string            `json:"actor"`
	Nickname     string            `json:"nickname"`
	Domain       string            `json:"domain"`
	PostNickname string            `json:"postNickname"`
	PostDomain   string            `json:"postDomain"`
	SharedInbox  bool              `json:"sharedInbox"`
	Published    string            `json:"published"`
	HTTPHeaders  map[string]string `json:"httpHeaders"`
	Path         string            `json:"path"`
	Post         json.RawMessage   `json:"post"`
	Original     json.RawMessage   `json:"original"`
	Digest       string            `json:"digest"`
	Filename     string            `json:"filename"`
	Destination  string            `json:"destination"`
	Mitm         bool              `json:"mitm"`
}

const itemSchema = `{
	"type": "object",
	"required": ["id", "actor", "nickname", "domain", "post", "original", "destination"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"originalId": {"type": "string"},
		"actor": {"type": "string", "minLength": 1},
		"nickname": {"type": "string", "minLength": 1},
		"domain": {"type": "string", "minLength": 1},
		"postNickname": {"type": "string"},
		"postDomain": {"type": "string"},
		"sharedInbox": {"type": "boolean"},
		"published": {"type": "string"},
		"httpHeaders": {"type": "object"},
		"path": {"type": "string"},
		"post": {"type": "object"},
		"original": {"type": "object"},
		"digest": {"type": "string"},
		"destination": {"type": "string", "minLength": 1},
		"mitm": {"type": "boolean"}
	}
}`

var compiledItemSchema = jsonschema.MustCompileString("item.json", itemSchema)

// Load reads and validates a queue item file.
// A file that fails to parse or validate is junk and must not be retried.
func Load(path string) (*Item, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse queue item %s: %w", path, err)
	}

	if err := compiledItemSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("invalid queue item %s: %w", path, err)
	}

	var item Item
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("failed to parse queue item %s: %w", path, err)
	}

	item.Filename = path
	return &item, nil
}

// PostHandle returns the sender's nickname@domain, used for quotas and
// blocking.
func (item *Item) PostHandle() string {
	if item.PostNickname == "" || item.PostDomain == "" {
		return ""
	}
	return item.PostNickname + "@" + item.PostDomain
}

// DestinationFor returns the item's destination path with the shared inbox
// handle substituted by a concrete recipient handle.
func (item *Item) DestinationFor(sharedHandle, handle string) string {
	return strings.Replace(item.Destination, sharedHandle, handle, 1)
}
