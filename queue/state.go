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
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/quincefed/quince/store"
)

// State is the consumer's in-memory view of the on-disk queue: an ordered
// list of queue file paths, oldest first. The files are the durable queue;
// this list is only an ordering cache and can be rebuilt at any time with
// [State.Rescan].
type State struct {
	Store *store.Store
	items []string
}

// arrival extracts the arrival timestamp encoded in a queue file name.
// Files without one sort before everything else so they drain first.
func arrival(path string) int64 {
	name := filepath.Base(path)
	prefix, _, ok := strings.Cut(name, "-")
	if !ok {
		return 0
	}

	ns, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0
	}

	return ns
}

// Len returns the number of known queue items.
func (q *State) Len() int {
	return len(q.items)
}

// Push appends a queue file to the in-memory list.
func (q *State) Push(path string) {
	q.items = append(q.items, path)
}

// Oldest returns the queue file with the earliest arrival timestamp.
func (q *State) Oldest() string {
	if len(q.items) == 0 {
		return ""
	}
	return q.items[0]
}

// Drop removes a queue file from the in-memory list and from disk.
func (q *State) Drop(path string) {
	for i, p := range q.items {
		if p == path {
			q.items = append(q.items[:i], q.items[i+1:]...)
			break
		}
	}
	os.Remove(path)
}

// Evict removes a queue file from the in-memory list only.
func (q *State) Evict(path string) {
	for i, p := range q.items {
		if p == path {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}

// Rescan rebuilds the in-memory list from every account's queue directory.
// This is the recovery path after a crash or restart: unacknowledged items
// are still on disk and re-enter the list in arrival order.
func (q *State) Rescan() error {
	nicknames, err := q.Store.Accounts()
	if err != nil {
		return err
	}
	nicknames = append(nicknames, store.SharedInboxAccount)

	var items []string
	for _, nickname := range nicknames {
		dir := q.Store.BoxDir(nickname, "queue")
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}

		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
				continue
			}
			items = append(items, filepath.Join(dir, e.Name()))
		}
	}

	sort.Slice(items, func(i, j int) bool {
		ti, tj := arrival(items[i]), arrival(items[j])
		if ti != tj {
			return ti < tj
		}
		return items[i] < items[j]
	})

	q.items = items
	return nil
}
