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
	"fmt"
	"log/slog"

	"github.com/quincefed/quince/ap"
	"github.com/quincefed/quince/store"
)

// updatePost loads a post stored under one of the account's boxes, applies
// update and writes the post back if update reports a change.
func (in *Inbox) updatePost(nickname, postID string, update func(*ap.Activity, *ap.Object) bool) error {
	path := in.Store.LocatePost(nickname, postID)
	if path == "" {
		return fmt.Errorf("post %s is not stored locally", postID)
	}

	activity, err := store.ReadActivity(path)
	if err != nil {
		return err
	}

	o, ok := activity.Object.(*ap.Object)
	if !ok {
		return fmt.Errorf("post %s has no object", postID)
	}

	if !update(activity, o) {
		return nil
	}

	if err := store.WriteJSON(path, activity); err != nil {
		return err
	}

	in.invalidate(nickname, postID)
	return nil
}

func (in *Inbox) like(log *slog.Logger, activity *ap.Activity, nickname string) error {
	postID := in.canonicalizeOrigin(activity.ObjectID())

	return in.updatePost(nickname, postID, func(_ *ap.Activity, o *ap.Object) bool {
		if o.Likes == nil {
			o.Likes = &ap.Collection{}
		}

		if !o.Likes.Add(ap.CollectionItem{Type: ap.Like, Actor: activity.Actor}) {
			log.Debug("Ignoring duplicate like")
			return false
		}

		if _, err := in.Store.WriteMarkerIfChanged(nickname, store.NewLike, store.PrevLike, activity.Actor+" "+postID); err != nil {
			log.Warn("Failed to write like marker", "error", err)
		}

		log.Info("Added like", "post", postID)
		return true
	})
}

func (in *Inbox) unlike(log *slog.Logger, activity, like *ap.Activity, nickname string) error {
	if like.Actor != "" && like.Actor != activity.Actor {
		return fmt.Errorf("%s cannot undo a like by %s", activity.Actor, like.Actor)
	}

	postID := in.canonicalizeOrigin(like.ObjectID())

	return in.updatePost(nickname, postID, func(_ *ap.Activity, o *ap.Object) bool {
		if o.Likes == nil || !o.Likes.Remove(activity.Actor) {
			log.Debug("Ignoring undo of unknown like")
			return false
		}

		log.Info("Removed like", "post", postID)
		return true
	})
}
