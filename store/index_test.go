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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexAdd_NewestFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inbox.index")

	require.NoError(t, IndexAdd(path, "a.json"))
	require.NoError(t, IndexAdd(path, "b.json"))
	require.NoError(t, IndexAdd(path, "c.json"))

	lines, err := IndexLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"c.json", "b.json", "a.json"}, lines)
}

func TestIndexAdd_Dedupe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inbox.index")

	require.NoError(t, IndexAdd(path, "a.json"))
	require.NoError(t, IndexAdd(path, "b.json"))
	require.NoError(t, IndexAdd(path, "a.json"))

	lines, err := IndexLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.json", "a.json"}, lines)
}

func TestIndexRemove_Happyflow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inbox.index")

	require.NoError(t, IndexAdd(path, "a.json"))
	require.NoError(t, IndexAdd(path, "b.json"))

	require.NoError(t, IndexRemove(path, "a.json"))
	assert.False(t, IndexContains(path, "a.json"))
	assert.True(t, IndexContains(path, "b.json"))

	// removing twice is a no-op
	require.NoError(t, IndexRemove(path, "a.json"))
}

func TestIndexRemove_MissingFile(t *testing.T) {
	assert.NoError(t, IndexRemove(filepath.Join(t.TempDir(), "no.index"), "a.json"))
}

func TestIndexLines_MissingFile(t *testing.T) {
	lines, err := IndexLines(filepath.Join(t.TempDir(), "no.index"))
	assert.NoError(t, err)
	assert.Empty(t, lines)
}
