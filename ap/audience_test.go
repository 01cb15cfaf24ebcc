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

func TestAudienceMarshal_Happyflow(t *testing.T) {
	to := Audience{}
	to.Add("x")
	to.Add("y")
	to.Add("y")

	if j, err := json.Marshal(struct {
		ID string   `json:"id"`
		To Audience `json:"to,omitzero"`
	}{
		ID: "a",
		To: to,
	}); err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	} else if string(j) != `{"id":"a","to":["x","y"]}` {
		t.Fatalf("Unexpected result: %s", string(j))
	}
}

func TestAudienceUnmarshal_List(t *testing.T) {
	var s struct {
		To Audience `json:"to"`
	}
	assert.NoError(t, json.Unmarshal([]byte(`{"to":["x","y","x"]}`), &s))
	assert.Equal(t, []string{"x", "y"}, s.To.Keys())
}

func TestAudienceUnmarshal_String(t *testing.T) {
	var s struct {
		To Audience `json:"to"`
	}
	assert.NoError(t, json.Unmarshal([]byte(`{"to":"x"}`), &s))
	assert.Equal(t, []string{"x"}, s.To.Keys())
	assert.True(t, s.To.Contains("x"))
}

func TestAudienceUnmarshal_Empty(t *testing.T) {
	var s struct {
		To Audience `json:"to"`
	}
	assert.NoError(t, json.Unmarshal([]byte(`{"to":[]}`), &s))
	assert.True(t, s.To.IsZero())
}
