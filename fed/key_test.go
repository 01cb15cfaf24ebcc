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

package fed

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/btcsuite/btcutil/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quincefed/quince/ap"
)

func multibase(pub ed25519.PublicKey) string {
	raw := append([]byte{0xed, 0x01}, pub...)
	return "z" + base58.Encode(raw)
}

func TestParseMultiBaseKey_Happyflow(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	parsed, err := ParseMultiBaseKey(multibase(pub))
	require.NoError(t, err)
	assert.Equal(t, pub, parsed)
}

func TestParseMultiBaseKey_Invalid(t *testing.T) {
	_, err := ParseMultiBaseKey("")
	assert.Error(t, err)

	_, err = ParseMultiBaseKey("xabc")
	assert.Error(t, err)

	_, err = ParseMultiBaseKey("zabc")
	assert.Error(t, err)
}

func TestPublicKeyOf_PEM(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	pemKey := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	actor := &ap.Actor{
		ID:   "https://b.example/users/bob",
		Type: ap.Person,
		PublicKey: ap.PublicKey{
			ID:           "https://b.example/users/bob#main-key",
			Owner:        "https://b.example/users/bob",
			PublicKeyPem: pemKey,
		},
	}

	key, err := PublicKeyOf(actor, "https://b.example/users/bob#main-key")
	require.NoError(t, err)
	assert.Equal(t, &priv.PublicKey, key)
}

func TestPublicKeyOf_WrongKeyID(t *testing.T) {
	actor := &ap.Actor{
		ID:        "https://b.example/users/bob",
		PublicKey: ap.PublicKey{ID: "https://b.example/users/bob#main-key"},
	}

	_, err := PublicKeyOf(actor, "https://b.example/users/eve#main-key")
	assert.Error(t, err)
}

func TestPublicKeyOf_ForeignOwner(t *testing.T) {
	actor := &ap.Actor{
		ID: "https://b.example/users/bob",
		PublicKey: ap.PublicKey{
			ID:    "https://b.example/users/bob#main-key",
			Owner: "https://b.example/users/eve",
		},
	}

	_, err := PublicKeyOf(actor, "https://b.example/users/bob#main-key")
	assert.Error(t, err)
}
