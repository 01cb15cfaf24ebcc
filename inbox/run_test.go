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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quincefed/quince/ap"
	"github.com/quincefed/quince/queue"
	"github.com/quincefed/quince/quota"
)

func TestProcessItem_QuotaExceeded(t *testing.T) {
	in := testInbox(t)
	in.Config.DomainQuotaDaily = 1

	quotas := quota.NewState(time.Now())

	item := &queue.Item{
		ID:           "https://b.example/create/1",
		Actor:        "https://b.example/users/bob",
		Nickname:     "alice",
		Domain:       "quince.example",
		PostNickname: "bob",
		PostDomain:   "b.example",
		Post:         []byte(relayedActivity),
		Original:     []byte(relayedActivity),
	}

	// the first item passes the quota and is dropped at the signature gate
	err := in.processItem(context.Background(), item, quotas)
	require.ErrorIs(t, err, ErrSignatureInvalid)

	err = in.processItem(context.Background(), item, quotas)
	require.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestProcessItem_NoRecipients(t *testing.T) {
	in := testInbox(t)

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	item := ldSignedItem(t, priv)
	in.Resolver.(*resolverStub).actors = map[string]*ap.Actor{
		"https://b.example/users/bob#main-key": signingActor(t, priv),
	}

	quotas := quota.NewState(time.Now())
	require.ErrorIs(t, in.processItem(context.Background(), item, quotas), ErrNoRecipients)
}
