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
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/quincefed/quince/ap"
	"github.com/quincefed/quince/queue"
	"github.com/quincefed/quince/quota"
	"github.com/quincefed/quince/store"
)

// SessionRotator is implemented by resolvers whose outbound sessions should
// be replaced periodically.
type SessionRotator interface {
	RotateSessions(now time.Time)
}

// Run consumes the queue until ctx is cancelled. Items are processed one at
// a time, oldest first; whatever the outcome, an item's backing file is
// deleted at the end of its iteration so a permanently failing item cannot
// retry forever.
func (in *Inbox) Run(ctx context.Context, q *queue.State, quotas *quota.State) {
	t := time.NewTicker(in.Config.QueuePollInterval)
	defer t.Stop()

	var lastRescan time.Time
	iteration := 0

	for {
		select {
		case <-ctx.Done():
			return

		case <-t.C:
		}

		iteration++
		now := time.Now()

		if iteration%in.Config.HeartbeatEvery == 0 {
			slog.Debug("Inbox queue heartbeat", "items", q.Len())
			in.lapseModeration(now)
		}

		if q.Len() == 0 {
			if now.Sub(lastRescan) >= in.Config.QueueRescanInterval {
				if err := q.Rescan(); err != nil {
					slog.Warn("Failed to rescan queue directories", "error", err)
				}
				lastRescan = now
			}
			continue
		}

		in.ProcessOldest(ctx, q, quotas, now)
	}
}

// ProcessOldest handles a single queue item, the one with the earliest
// arrival timestamp.
func (in *Inbox) ProcessOldest(ctx context.Context, q *queue.State, quotas *quota.State, now time.Time) {
	path := q.Oldest()
	if path == "" {
		return
	}

	// already processed or removed behind our back
	if _, err := os.Stat(path); err != nil {
		q.Evict(path)
		return
	}

	item, err := queue.Load(path)
	if err != nil {
		slog.Warn("Dropping corrupt queue item", "path", path, "error", err)
		q.Drop(path)
		return
	}

	// at-most-once: the file goes away whether processing succeeds or not
	defer q.Drop(path)

	quotas.Refresh(now)
	if rotator, ok := in.Resolver.(SessionRotator); ok {
		rotator.RotateSessions(now)
	}

	if err := in.processItem(ctx, item, quotas); err != nil {
		slog.Warn("Dropping queue item", "path", path, "error", err)
	}
}

// processItem authenticates one queue item and fans it out to every resolved
// local recipient.
func (in *Inbox) processItem(ctx context.Context, item *queue.Item, quotas *quota.State) error {
	if quotas.CheckAndRecord(item.PostDomain, item.PostHandle(), in.Config.DomainQuotaDaily, in.Config.AccountQuotaDaily) {
		return fmt.Errorf("%w: %s", ErrQuotaExceeded, item.PostDomain)
	}

	var activity ap.Activity
	if err := json.Unmarshal(item.Post, &activity); err != nil {
		return err
	}

	log := slog.With(slog.Group("activity", "id", activity.ID, "type", activity.Type, "actor", activity.Actor, "recipient", item.Nickname))

	if err := in.verifySignatures(ctx, log, item, &activity); err != nil {
		return err
	}

	if handled := in.fastPath(log, item, &activity); handled {
		return nil
	}

	direct, followers := in.ResolveRecipients(log, &activity)
	if len(direct)+len(followers) == 0 {
		return ErrNoRecipients
	}

	if len(followers) > 0 {
		// write the raw post once to the shared inbox instead of N copies
		sharedPath := in.Store.PostPath(store.SharedInboxAccount, "inbox", activity.ID)
		if err := writeRaw(sharedPath, item.Post); err != nil {
			log.Warn("Failed to write shared inbox copy", "error", err)
		}

		if len(followers) < in.Config.FollowersCeiling {
			for _, handle := range followers.Keys() {
				direct.Store(handle, struct{}{})
			}
			followers = nil
		}
	}

	suffix := "@" + in.Domain
	for _, handle := range direct.Keys() {
		nickname := strings.TrimSuffix(handle, suffix)
		if err := in.AcceptPost(ctx, log, item, nickname); err != nil {
			log.Warn("Failed to process post for recipient", "handle", handle, "error", err)
		}
	}

	return nil
}

func writeRaw(path string, body []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, body, 0o644)
}

// lapseModeration ends a time-boxed moderation mode whose deadline passed.
func (in *Inbox) lapseModeration(now time.Time) {
	path := filepath.Join(in.Store.BaseDir, "moderation_expires")

	body, err := os.ReadFile(path)
	if err != nil {
		return
	}

	deadline, err := time.Parse(time.RFC3339, strings.TrimSpace(string(body)))
	if err != nil || now.After(deadline) {
		os.Remove(path)
		slog.Info("Moderation mode lapsed")
	}
}

// Watch supervises the consumer loop: if the loop exits or a restart is
// requested, fresh queue and quota state is built from disk and the loop
// starts again.
func (in *Inbox) Watch(ctx context.Context, restart <-chan struct{}) {
	for {
		q := &queue.State{Store: in.Store}
		if err := q.Rescan(); err != nil {
			slog.Warn("Failed to scan queue directories", "error", err)
		}

		runCtx, cancel := context.WithCancel(ctx)

		done := make(chan struct{})
		go func() {
			in.Run(runCtx, q, quota.NewState(time.Now()))
			close(done)
		}()

		select {
		case <-ctx.Done():
			cancel()
			<-done
			return

		case <-restart:
			slog.Info("Restarting inbox queue")
			cancel()
			<-done

		case <-done:
			cancel()
			select {
			case <-ctx.Done():
				return
			default:
				slog.Warn("Inbox queue exited, restarting")
			}
		}
	}
}
