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

package ap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollectionAdd_OnePerActor(t *testing.T) {
	c := Collection{}

	assert.True(t, c.Add(CollectionItem{Type: Like, Actor: "https://a.example/users/alice"}))
	assert.False(t, c.Add(CollectionItem{Type: Like, Actor: "https://a.example/users/alice"}))
	assert.True(t, c.Add(CollectionItem{Type: Like, Actor: "https://b.example/users/bob"}))

	assert.Equal(t, 2, c.TotalItems)
	assert.Len(t, c.Items, 2)
}

func TestCollectionRemove_Happyflow(t *testing.T) {
	c := Collection{}
	c.Add(CollectionItem{Type: EmojiReact, Actor: "https://a.example/users/alice", Content: "😀"})
	c.Add(CollectionItem{Type: EmojiReact, Actor: "https://b.example/users/bob", Content: "🎉"})

	assert.True(t, c.Remove("https://a.example/users/alice"))
	assert.Equal(t, 1, c.TotalItems)
	assert.Len(t, c.Items, 1)
	assert.Equal(t, "https://b.example/users/bob", c.Items[0].Actor)

	assert.False(t, c.Remove("https://a.example/users/alice"))
	assert.Equal(t, 1, c.TotalItems)
}

func TestCollectionContains(t *testing.T) {
	c := Collection{}
	assert.False(t, c.Contains("https://a.example/users/alice"))

	c.Add(CollectionItem{Type: Announce, Actor: "https://a.example/users/alice"})
	assert.True(t, c.Contains("https://a.example/users/alice"))
}
