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

// Package outbox enqueues outbound activities for the delivery thread.
//
// Activities are written as files under the sending account's outqueue
// directory; actual delivery and retries happen elsewhere.
package outbox

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/quincefed/quince/ap"
	"github.com/quincefed/quince/store"
)

// Outbox writes outbound activities into per-account outqueue directories.
type Outbox struct {
	Store *store.Store
}

func (o *Outbox) enqueue(nickname string, activity *ap.Activity) error {
	name := fmt.Sprintf("%020d-%s.json", time.Now().UnixNano(), uuid.NewString())
	path := filepath.Join(o.Store.BoxDir(nickname, "outqueue"), name)
	return store.WriteJSON(path, activity)
}

func (o *Outbox) newID(nickname string) string {
	return fmt.Sprintf("https://%s/users/%s/statuses/%s", o.Store.Domain, nickname, uuid.NewString())
}

// Accept sends an Accept in response to a follow request.
func (o *Outbox) Accept(nickname, follower, followID string) error {
	actor := o.Store.Actor(nickname)

	accept := ap.Activity{
		Context: "https://www.w3.org/ns/activitystreams",
		ID:      o.newID(nickname),
		Type:    ap.Accept,
		Actor:   actor,
		Object: &ap.Activity{
			ID:     followID,
			Type:   ap.Follow,
			Actor:  follower,
			Object: actor,
		},
	}
	accept.To.Add(follower)

	return o.enqueue(nickname, &accept)
}

// Bounce sends a direct message back to the sender of a rejected DM,
// explaining the rejection.
func (o *Outbox) Bounce(nickname, to, inReplyTo string) error {
	actor := o.Store.Actor(nickname)
	id := o.newID(nickname)

	note := ap.Object{
		ID:           id + "/bounce",
		Type:         ap.Note,
		AttributedTo: actor,
		InReplyTo:    inReplyTo,
		Content:      "<p>Message rejected. You are not following this account.</p>",
		Published:    ap.Time{Time: time.Now().UTC()},
	}
	note.To.Add(to)

	bounce := ap.Activity{
		Context: "https://www.w3.org/ns/activitystreams",
		ID:      id,
		Type:    ap.Create,
		Actor:   actor,
		Object:  &note,
	}
	bounce.To.Add(to)

	return o.enqueue(nickname, &bounce)
}

// AnnounceToFollowers re-announces a post received by a group account to
// everybody following the group.
func (o *Outbox) AnnounceToFollowers(nickname, postID string) error {
	actor := o.Store.Actor(nickname)

	announce := ap.Activity{
		Context:   "https://www.w3.org/ns/activitystreams",
		ID:        o.newID(nickname),
		Type:      ap.Announce,
		Actor:     actor,
		Published: ap.Time{Time: time.Now().UTC()},
		Object:    postID,
	}
	announce.To.Add(actor + "/followers")
	announce.CC.Add(ap.Public)

	return o.enqueue(nickname, &announce)
}
