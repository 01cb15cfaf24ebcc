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

package inbox

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quincefed/quince/ap"
	"github.com/quincefed/quince/ldsig"
	"github.com/quincefed/quince/queue"
)

const relayedActivity = `{"@context":"https://www.w3.org/ns/activitystreams","id":"https://b.example/create/1","type":"Create","actor":"https://b.example/users/bob","object":{"id":"https://b.example/statuses/1","type":"Note","content":"hi"}}`

func ldSignedItem(t *testing.T, priv *rsa.PrivateKey) *queue.Item {
	t.Helper()

	signed, err := ldsig.Sign(priv, "https://b.example/users/bob#main-key", time.Now(), []byte(relayedActivity))
	require.NoError(t, err)

	return &queue.Item{
		ID:        "https://b.example/create/1",
		Actor:     "https://b.example/users/bob",
		Nickname:  "alice",
		Domain:    "quince.example",
		Published: time.Now().UTC().Format(time.RFC3339),
		// headers of a relayed request, not signed by the author
		HTTPHeaders: map[string]string{},
		Path:        "/inbox/alice",
		Post:        signed,
		Original:    signed,
	}
}

func signingActor(t *testing.T, priv *rsa.PrivateKey) *ap.Actor {
	t.Helper()

	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)

	return &ap.Actor{
		ID:   "https://b.example/users/bob",
		Type: ap.Person,
		PublicKey: ap.PublicKey{
			ID:           "https://b.example/users/bob#main-key",
			Owner:        "https://b.example/users/bob",
			PublicKeyPem: string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})),
		},
	}
}

func TestVerifySignatures_RelayedWithValidEmbeddedSignature(t *testing.T) {
	in := testInbox(t)

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	item := ldSignedItem(t, priv)
	in.Resolver.(*resolverStub).actors = map[string]*ap.Actor{
		"https://b.example/users/bob#main-key": signingActor(t, priv),
	}

	var activity ap.Activity
	require.NoError(t, json.Unmarshal(item.Post, &activity))

	require.NoError(t, in.verifySignatures(context.Background(), slog.Default(), item, &activity))
}

func TestVerifySignatures_RelayedUnsigned(t *testing.T) {
	in := testInbox(t)

	item := &queue.Item{
		ID:          "https://b.example/create/1",
		Actor:       "https://b.example/users/bob",
		Nickname:    "alice",
		Domain:      "quince.example",
		Published:   time.Now().UTC().Format(time.RFC3339),
		HTTPHeaders: map[string]string{},
		Path:        "/inbox/alice",
		Post:        []byte(relayedActivity),
		Original:    []byte(relayedActivity),
	}

	var activity ap.Activity
	require.NoError(t, json.Unmarshal(item.Post, &activity))

	require.Error(t, in.verifySignatures(context.Background(), slog.Default(), item, &activity))
}

func TestVerifySignatures_ForeignSigner(t *testing.T) {
	in := testInbox(t)

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	item := ldSignedItem(t, priv)

	// the key verifies but belongs to an actor on another instance
	signer := signingActor(t, priv)
	signer.ID = "https://evil.example/users/eve"
	signer.PublicKey.Owner = signer.ID
	in.Resolver.(*resolverStub).actors = map[string]*ap.Actor{
		"https://b.example/users/bob#main-key": signer,
	}

	var activity ap.Activity
	require.NoError(t, json.Unmarshal(item.Post, &activity))

	require.Error(t, in.verifySignatures(context.Background(), slog.Default(), item, &activity))
}

func TestVerifySignatures_VerifyAllRequiresEmbedded(t *testing.T) {
	in := testInbox(t)
	in.Config.VerifyAllSignatures = true

	item := &queue.Item{
		ID:          "https://b.example/create/1",
		Actor:       "https://b.example/users/bob",
		Nickname:    "alice",
		Domain:      "quince.example",
		Published:   time.Now().UTC().Format(time.RFC3339),
		HTTPHeaders: map[string]string{},
		Path:        "/inbox/alice",
		Post:        []byte(relayedActivity),
		Original:    []byte(relayedActivity),
	}

	var activity ap.Activity
	require.NoError(t, json.Unmarshal(item.Post, &activity))

	require.Error(t, in.verifySignatures(context.Background(), slog.Default(), item, &activity))
}
