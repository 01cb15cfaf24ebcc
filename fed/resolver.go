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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/quincefed/quince/ap"
	"github.com/quincefed/quince/cfg"
	"github.com/sethvargo/go-retry"
)

var (
	ErrInvalidScheme = errors.New("invalid scheme")
	ErrActorGone     = errors.New("actor is gone")
)

const maxActorBodySize = 1024 * 1024

// KeyResolver fetches remote actors and their public keys.
//
// Fetches retry a bounded number of times with a fixed delay; the retry
// policy lives here and not in callers. The underlying HTTP session is
// rotated periodically so long-lived connection state doesn't accumulate.
type KeyResolver struct {
	Domain string
	Config *cfg.Config

	lock    sync.Mutex
	client  *http.Client
	rotated time.Time
	actors  map[string]*ap.Actor
}

// NewKeyResolver returns a new [KeyResolver].
func NewKeyResolver(domain string, config *cfg.Config) *KeyResolver {
	return &KeyResolver{
		Domain: domain,
		Config: config,
		client: &http.Client{},
		actors: map[string]*ap.Actor{},
	}
}

// RotateSessions replaces the HTTP session and drops the actor cache if the
// rotation interval has passed.
func (r *KeyResolver) RotateSessions(now time.Time) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if now.Sub(r.rotated) < r.Config.SessionRotateInterval {
		return
	}

	r.client.CloseIdleConnections()
	r.client = &http.Client{}
	r.actors = map[string]*ap.Actor{}
	r.rotated = now
}

func (r *KeyResolver) fetchActor(ctx context.Context, id string) (*ap.Actor, error) {
	u, err := url.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve %s: %w", id, err)
	}

	if u.Scheme != "https" {
		return nil, ErrInvalidScheme
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, id, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", `application/ld+json; profile="https://www.w3.org/ns/activitystreams"`)

	r.lock.Lock()
	client := r.client
	r.lock.Unlock()

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		return nil, ErrActorGone
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: %s", id, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxActorBodySize))
	if err != nil {
		return nil, err
	}

	var actor ap.Actor
	if err := json.Unmarshal(body, &actor); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", id, err)
	}

	if actor.ID == "" {
		return nil, fmt.Errorf("actor %s has no ID", id)
	}

	return &actor, nil
}

// ResolveActor retrieves a remote actor document, from cache if possible.
func (r *KeyResolver) ResolveActor(ctx context.Context, id string) (*ap.Actor, error) {
	docURL, _, _ := strings.Cut(id, "#")

	r.lock.Lock()
	cached, ok := r.actors[docURL]
	r.lock.Unlock()
	if ok {
		return cached, nil
	}

	var actor *ap.Actor
	backoff := retry.WithMaxRetries(uint64(r.Config.KeyFetchAttempts-1), retry.NewConstant(r.Config.KeyFetchDelay))
	if err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		actor, err = r.fetchActor(ctx, docURL)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrActorGone) || errors.Is(err, ErrInvalidScheme) {
			return err
		}
		return retry.RetryableError(err)
	}); err != nil {
		return nil, err
	}

	r.lock.Lock()
	r.actors[docURL] = actor
	r.lock.Unlock()

	return actor, nil
}

// ResolveKey retrieves the public key named by an HTTP signature's keyId.
func (r *KeyResolver) ResolveKey(ctx context.Context, keyID string) (any, error) {
	actor, err := r.ResolveActor(ctx, keyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get key %s: %w", keyID, err)
	}

	return PublicKeyOf(actor, keyID)
}
