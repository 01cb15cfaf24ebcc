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

package ldsig

import (
	"crypto/rand"
	"crypto/rsa"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testActivity = `{"@context":"https://www.w3.org/ns/activitystreams","id":"https://b.example/create/1","type":"Create","actor":"https://b.example/users/bob","object":{"id":"https://b.example/statuses/1","type":"Note","content":"hi"}}`

func TestSignVerify_Happyflow(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	signed, err := Sign(priv, "https://b.example/users/bob#main-key", time.Now(), []byte(testActivity))
	require.NoError(t, err)

	assert.True(t, Present(signed))
	assert.True(t, HasKnownContext(signed))
	assert.NoError(t, Verify(&priv.PublicKey, signed))
}

func TestVerify_WrongKey(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	signed, err := Sign(priv, "https://b.example/users/bob#main-key", time.Now(), []byte(testActivity))
	require.NoError(t, err)

	assert.Error(t, Verify(&other.PublicKey, signed))
}

func TestVerify_Tampered(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	signed, err := Sign(priv, "https://b.example/users/bob#main-key", time.Now(), []byte(testActivity))
	require.NoError(t, err)

	tampered := []byte(strings.Replace(string(signed), `"hi"`, `"bye"`, 1))
	require.NotEqual(t, string(signed), string(tampered))

	assert.Error(t, Verify(&priv.PublicKey, tampered))
}

func TestPresent_Unsigned(t *testing.T) {
	assert.False(t, Present([]byte(testActivity)))
}

func TestHasKnownContext(t *testing.T) {
	assert.True(t, HasKnownContext([]byte(`{"@context":"https://www.w3.org/ns/activitystreams"}`)))
	assert.True(t, HasKnownContext([]byte(`{"@context":["https://www.w3.org/ns/activitystreams","https://w3id.org/security/v1"]}`)))
	assert.False(t, HasKnownContext([]byte(`{"@context":"https://evil.example/ns"}`)))
	assert.False(t, HasKnownContext([]byte(`{"id":"x"}`)))
}
