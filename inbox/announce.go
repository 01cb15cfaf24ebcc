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
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quincefed/quince/ap"
	"github.com/quincefed/quince/store"
)

// announcedID returns the ID of the announced post, unwrapping the embedded
// Create some servers attach instead of a plain link.
func (in *Inbox) announcedID(activity *ap.Activity) string {
	if wrapped, ok := activity.Object.(*ap.Activity); ok && wrapped.Type == ap.Create {
		return in.canonicalizeOrigin(wrapped.ObjectID())
	}
	return in.canonicalizeOrigin(activity.ObjectID())
}

func (in *Inbox) announce(ctx context.Context, log *slog.Logger, activity *ap.Activity, nickname string) error {
	postID := in.announcedID(activity)
	if postID == "" {
		return errors.New("announce without object")
	}

	// boosting your own post carries no information and is a common spam
	// amplification pattern; the actor appearing anywhere in the object URL
	// counts, so a mirror or query parameter cannot hide it
	if strings.Contains(postID, activity.Actor) {
		return fmt.Errorf("%s announced own post %s", activity.Actor, postID)
	}

	if in.blockedDomain(hostOf(activity.Actor)) || in.blockedDomain(hostOf(postID)) || in.blockedHandle(store.ActorHandle(activity.Actor)) {
		log.Info("Ignoring announce involving blocked origin")
		return nil
	}

	if !in.Store.IsFollowing(nickname, activity.Actor) && !in.Store.IsLocal(postID) {
		log.Debug("Ignoring announce from actor the account doesn't follow")
		return nil
	}

	// store the announce itself so it can be undone later
	if err := in.storePost(nickname, "inbox", activity); err != nil {
		return err
	}

	if path := in.Store.LocatePost(nickname, postID); path != "" {
		return in.updatePost(nickname, postID, func(_ *ap.Activity, o *ap.Object) bool {
			if o.Shares == nil {
				o.Shares = &ap.Collection{}
			}

			if !o.Shares.Add(ap.CollectionItem{Type: ap.Announce, Actor: activity.Actor}) {
				log.Debug("Ignoring duplicate announce")
				return false
			}

			log.Info("Added announce", "post", postID)
			return true
		})
	}

	// the announced post isn't stored locally: fetch it, or drop the
	// announce so it doesn't point at nothing
	o, err := in.Downloader.DownloadAnnounced(ctx, postID)
	if err != nil {
		if removeErr := in.removePost(nickname, "inbox", activity.ID); removeErr != nil {
			log.Warn("Failed to remove dangling announce", "error", removeErr)
		}
		return fmt.Errorf("failed to fetch announced post %s: %w", postID, err)
	}

	if in.blockedDomain(hostOf(o.AttributedTo)) || in.blockedHandle(store.ActorHandle(o.AttributedTo)) {
		if removeErr := in.removePost(nickname, "inbox", activity.ID); removeErr != nil {
			log.Warn("Failed to remove dangling announce", "error", removeErr)
		}
		log.Info("Dropping announce of post by blocked author", "author", o.AttributedTo)
		return nil
	}

	shares := &ap.Collection{}
	shares.Add(ap.CollectionItem{Type: ap.Announce, Actor: activity.Actor})
	o.Shares = shares

	wrapped := ap.Activity{
		ID:        o.ID,
		Type:      ap.Create,
		Actor:     o.AttributedTo,
		Published: o.Published,
		To:        o.To,
		CC:        o.CC,
		Object:    o,
	}
	if err := in.storePost(nickname, "inbox", &wrapped); err != nil {
		return err
	}

	in.indexHashtags(log, o)

	// warm up the author's key so a later reply or delete verifies fast
	if _, err := in.Resolver.ResolveActor(ctx, o.AttributedTo); err != nil {
		log.Debug("Failed to prefetch author of announced post", "author", o.AttributedTo, "error", err)
	}

	log.Info("Fetched announced post", "post", postID)
	return nil
}

func (in *Inbox) unannounce(log *slog.Logger, activity, announce *ap.Activity, nickname string) error {
	if announce.Actor != "" && announce.Actor != activity.Actor {
		return fmt.Errorf("%s cannot undo an announce by %s", activity.Actor, announce.Actor)
	}

	stubPath := in.Store.PostPath(nickname, "inbox", announce.ID)

	stored, err := store.ReadActivity(stubPath)
	if err != nil {
		return fmt.Errorf("announce %s is not stored locally: %w", announce.ID, err)
	}

	// only an Announce may be removed through this path
	if stored.Type != ap.Announce {
		return fmt.Errorf("%s is a %s, not an announce", announce.ID, stored.Type)
	}

	if stored.Actor != activity.Actor {
		return fmt.Errorf("%s cannot undo an announce by %s", activity.Actor, stored.Actor)
	}

	postID := in.canonicalizeOrigin(stored.ObjectID())
	if err := in.updatePost(nickname, postID, func(_ *ap.Activity, o *ap.Object) bool {
		return o.Shares != nil && o.Shares.Remove(activity.Actor)
	}); err != nil {
		log.Debug("Failed to remove share", "post", postID, "error", err)
	}

	log.Info("Removed announce", "post", postID)
	return in.removePost(nickname, "inbox", announce.ID)
}
