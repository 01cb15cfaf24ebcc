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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quincefed/quince/store"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()

	st := &store.Store{BaseDir: t.TempDir(), Domain: "quince.example"}
	require.NoError(t, os.MkdirAll(st.AccountDir("alice"), 0o755))
	require.NoError(t, os.MkdirAll(st.AccountDir("bob"), 0o755))
	return st
}

func testItem(actor, id string) *Item {
	post, _ := json.Marshal(map[string]any{
		"id":     id,
		"type":   "Create",
		"actor":  actor,
		"object": map[string]any{"id": id + "#note", "type": "Note", "content": "hi"},
	})

	return &Item{
		Actor:        actor,
		Nickname:     "alice",
		Domain:       "quince.example",
		PostNickname: "bob",
		PostDomain:   "b.example",
		Post:         post,
	}
}

func TestSaveLoad_Happyflow(t *testing.T) {
	st := testStore(t)

	item := testItem("https://b.example/users/bob", "https://b.example/statuses/1")
	path, err := Save(st, item, time.Now())
	require.NoError(t, err)

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://b.example/statuses/1", loaded.ID)
	assert.Equal(t, "https://b.example/statuses/1", loaded.OriginalID)
	assert.Equal(t, path, loaded.Filename)
	assert.Equal(t, st.PostPath("alice", "inbox", "https://b.example/statuses/1"), loaded.Destination)
	assert.JSONEq(t, string(item.Post), string(loaded.Original))
}

func TestLoad_MissingFields(t *testing.T) {
	st := testStore(t)

	dir := st.BoxDir("alice", "queue")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	path := filepath.Join(dir, "00000000000000000001-x.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":"a","actor":"b"}`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_Corrupt(t *testing.T) {
	st := testStore(t)

	dir := st.BoxDir("alice", "queue")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	path := filepath.Join(dir, "00000000000000000001-x.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestRescan_ArrivalOrderAcrossAccounts(t *testing.T) {
	st := testStore(t)

	base := time.Date(2026, time.August, 31, 10, 0, 0, 0, time.UTC)

	second := testItem("https://b.example/users/bob", "https://b.example/statuses/2")
	second.Nickname = "bob"
	secondPath, err := Save(st, second, base.Add(time.Second))
	require.NoError(t, err)

	first := testItem("https://b.example/users/bob", "https://b.example/statuses/1")
	firstPath, err := Save(st, first, base)
	require.NoError(t, err)

	q := &State{Store: st}
	require.NoError(t, q.Rescan())

	assert.Equal(t, 2, q.Len())
	assert.Equal(t, firstPath, q.Oldest())

	q.Drop(firstPath)
	assert.Equal(t, secondPath, q.Oldest())
}

func TestDrop_RemovesFile(t *testing.T) {
	st := testStore(t)

	item := testItem("https://b.example/users/bob", "https://b.example/statuses/1")
	path, err := Save(st, item, time.Now())
	require.NoError(t, err)

	q := &State{Store: st}
	require.NoError(t, q.Rescan())

	q.Drop(path)
	assert.Equal(t, 0, q.Len())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestEvict_KeepsFile(t *testing.T) {
	st := testStore(t)

	item := testItem("https://b.example/users/bob", "https://b.example/statuses/1")
	path, err := Save(st, item, time.Now())
	require.NoError(t, err)

	q := &State{Store: st}
	require.NoError(t, q.Rescan())

	q.Evict(path)
	assert.Equal(t, 0, q.Len())
	_, err = os.Stat(path)
	assert.NoError(t, err)

	// a rescan recovers the evicted file
	require.NoError(t, q.Rescan())
	assert.Equal(t, 1, q.Len())
}

func TestHasParams(t *testing.T) {
	assert.True(t, HasParams([]byte(`{"id":"a","type":"Create","actor":"b","object":{}}`)))
	assert.False(t, HasParams([]byte(`{"id":"a","type":"Create","actor":"b"}`)))
	assert.False(t, HasParams([]byte(`{"id":"a","actor":"b","object":{}}`)))
	assert.False(t, HasParams([]byte(`not json`)))
}

func TestPermitted(t *testing.T) {
	blocked := func(domain string) bool { return domain == "evil.example" }

	assert.True(t, Permitted("https://b.example/users/bob", blocked))
	assert.False(t, Permitted("https://evil.example/users/mallory", blocked))
	assert.False(t, Permitted("http://b.example/users/bob", blocked))
	assert.False(t, Permitted("https:///users/bob", blocked))
}

func TestDestinationFor(t *testing.T) {
	item := &Item{Destination: "/var/quince/accounts/inbox@quince.example/inbox/post.json"}
	assert.Equal(t,
		"/var/quince/accounts/alice@quince.example/inbox/post.json",
		item.DestinationFor("inbox@quince.example", "alice@quince.example"))
}
