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

func (in *Inbox) react(log *slog.Logger, activity *ap.Activity, nickname string) error {
	if !validReactionContent(activity.Content) {
		return fmt.Errorf("invalid reaction content: %q", activity.Content)
	}

	postID := in.canonicalizeOrigin(activity.ObjectID())

	return in.updatePost(nickname, postID, func(_ *ap.Activity, o *ap.Object) bool {
		if o.Reactions == nil {
			o.Reactions = &ap.Collection{}
		}

		if !o.Reactions.Add(ap.CollectionItem{Type: ap.EmojiReact, Actor: activity.Actor, Content: activity.Content}) {
			log.Debug("Ignoring duplicate reaction")
			return false
		}

		if _, err := in.Store.WriteMarkerIfChanged(nickname, store.NewReaction, store.PrevReaction, activity.Actor+" "+activity.Content); err != nil {
			log.Warn("Failed to write reaction marker", "error", err)
		}

		log.Info("Added reaction", "post", postID, "content", activity.Content)
		return true
	})
}

func (in *Inbox) unreact(log *slog.Logger, activity, react *ap.Activity, nickname string) error {
	if react.Actor != "" && react.Actor != activity.Actor {
		return fmt.Errorf("%s cannot undo a reaction by %s", activity.Actor, react.Actor)
	}

	postID := in.canonicalizeOrigin(react.ObjectID())

	return in.updatePost(nickname, postID, func(_ *ap.Activity, o *ap.Object) bool {
		if o.Reactions == nil || !o.Reactions.Remove(activity.Actor) {
			log.Debug("Ignoring undo of unknown reaction")
			return false
		}

		log.Info("Removed reaction", "post", postID)
		return true
	})
}
