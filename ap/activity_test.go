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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActivityUnmarshal_ObjectIsNote(t *testing.T) {
	var a Activity
	assert.NoError(t, json.Unmarshal([]byte(`{"id":"https://a.example/create/1","type":"Create","actor":"https://a.example/users/alice","object":{"id":"https://a.example/statuses/1","type":"Note","content":"hi"}}`), &a))

	assert.Equal(t, Create, a.Type)

	o, ok := a.Object.(*Object)
	if assert.True(t, ok) {
		assert.Equal(t, Note, o.Type)
		assert.Equal(t, "hi", o.Content)
	}
	assert.Equal(t, "https://a.example/statuses/1", a.ObjectID())
}

func TestActivityUnmarshal_ObjectIsActivity(t *testing.T) {
	var a Activity
	assert.NoError(t, json.Unmarshal([]byte(`{"id":"https://a.example/undo/1","type":"Undo","actor":"https://a.example/users/alice","object":{"id":"https://a.example/follow/1","type":"Follow","actor":"https://a.example/users/alice","object":"https://b.example/users/bob"}}`), &a))

	follow, ok := a.Object.(*Activity)
	if assert.True(t, ok) {
		assert.Equal(t, Follow, follow.Type)
		assert.Equal(t, "https://b.example/users/bob", follow.ObjectID())
	}
}

func TestActivityUnmarshal_ObjectIsLink(t *testing.T) {
	var a Activity
	assert.NoError(t, json.Unmarshal([]byte(`{"id":"https://a.example/like/1","type":"Like","actor":"https://a.example/users/alice","object":"https://b.example/statuses/1"}`), &a))

	assert.Equal(t, "https://b.example/statuses/1", a.Object)
	assert.Equal(t, "https://b.example/statuses/1", a.ObjectID())
}

func TestActivityUnmarshal_NoObject(t *testing.T) {
	var a Activity
	assert.NoError(t, json.Unmarshal([]byte(`{"id":"https://a.example/move/1","type":"Move","actor":"https://a.example/users/alice"}`), &a))

	assert.Nil(t, a.Object)
	assert.Equal(t, "", a.ObjectID())
}
