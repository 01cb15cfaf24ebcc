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

// Package inbox processes received activities.
//
// The HTTP layer enqueues raw activities as queue item files; the single
// consumer loop in this package authenticates, resolves recipients,
// dispatches by activity type and durably applies side effects, one item at
// a time. Invalid or unresolvable input is dropped, never retried: a
// federated sender has no way to observe asynchronous outcomes anyway.
package inbox

import (
	"context"
	"errors"
	"os"
	"sync"

	"golang.org/x/time/rate"

	"github.com/quincefed/quince/cfg"
	"github.com/quincefed/quince/fed"
	"github.com/quincefed/quince/outbox"
	"github.com/quincefed/quince/store"

	"github.com/quincefed/quince/ap"
)

var (
	ErrNoRecipients     = errors.New("no local recipients")
	ErrQuotaExceeded    = errors.New("sender exceeded quota")
	ErrSignatureInvalid = errors.New("signature verification failed")
)

// Resolver retrieves remote actor documents, with its own bounded retry
// policy.
type Resolver interface {
	ResolveActor(ctx context.Context, id string) (*ap.Actor, error)
}

// Downloader fetches remote objects referenced by received activities.
type Downloader interface {
	DownloadAnnounced(ctx context.Context, id string) (*ap.Object, error)
	DownloadMedia(ctx context.Context, url string) ([]byte, error)
}

// Renderer invalidates or regenerates the cached HTML of one post.
type Renderer interface {
	Invalidate(nickname, postID string)
}

// Inbox consumes the received-activities queue and applies federation side
// effects to the flat-file store.
type Inbox struct {
	Domain     string
	Config     *cfg.Config
	Store      *store.Store
	BlockList  *fed.BlockList
	Resolver   Resolver
	Downloader Downloader
	Renderer   Renderer
	Outbox     *outbox.Outbox

	lock     sync.Mutex
	bouncers map[string]*rate.Limiter
}

// bouncer returns the account's DM bounce rate limiter, allowing one bounce
// per configured interval. Without it a flood of unsolicited DMs would
// trigger a flood of bounces, usable for reflection amplification.
func (in *Inbox) bouncer(nickname string) *rate.Limiter {
	in.lock.Lock()
	defer in.lock.Unlock()

	if in.bouncers == nil {
		in.bouncers = map[string]*rate.Limiter{}
	}

	l, ok := in.bouncers[nickname]
	if !ok {
		l = rate.NewLimiter(rate.Every(in.Config.BounceInterval), 1)
		in.bouncers[nickname] = l
	}

	return l
}

func (in *Inbox) blockedDomain(domain string) bool {
	return in.BlockList != nil && in.BlockList.ContainsDomain(domain)
}

func (in *Inbox) blockedHandle(handle string) bool {
	return in.BlockList != nil && handle != "" && in.BlockList.ContainsHandle(handle)
}

// invalidate signals the rendering layer that a post's cached HTML is stale.
func (in *Inbox) invalidate(nickname, postID string) {
	if in.Renderer != nil {
		in.Renderer.Invalidate(nickname, postID)
	}
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
