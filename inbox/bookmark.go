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
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/quincefed/quince/ap"
	"github.com/quincefed/quince/store"
)

// bookmarkTarget validates that an Add or Remove targets the recipient's own
// bookmark timeline and returns the bookmarked post ID.
func (in *Inbox) bookmarkTarget(activity *ap.Activity, nickname string) (string, error) {
	want := in.Store.Actor(nickname) + "/tlbookmarks"
	if in.canonicalizeOrigin(activity.Target) != want {
		return "", fmt.Errorf("unexpected bookmark target: %s", activity.Target)
	}

	if activity.Actor != in.Store.Actor(nickname) {
		return "", fmt.Errorf("%s cannot bookmark for %s", activity.Actor, nickname)
	}

	o, ok := activity.Object.(*ap.Object)
	if !ok || o.Type != ap.Document {
		return "", errors.New("bookmarked object is not a document")
	}

	postID := in.canonicalizeOrigin(o.URL)
	if postID == "" {
		postID = in.canonicalizeOrigin(o.ID)
	}
	if !strings.Contains(postID, "/statuses/") {
		return "", fmt.Errorf("bookmarked object is not a post: %s", postID)
	}

	return postID, nil
}

func (in *Inbox) bookmark(log *slog.Logger, activity *ap.Activity, nickname string) error {
	postID, err := in.bookmarkTarget(activity, nickname)
	if err != nil {
		return err
	}

	index := filepath.Join(in.Store.AccountDir(nickname), "bookmarks.index")

	return in.updatePost(nickname, postID, func(_ *ap.Activity, o *ap.Object) bool {
		if o.Bookmarks == nil {
			o.Bookmarks = &ap.Collection{}
		}

		if !o.Bookmarks.Add(ap.CollectionItem{Type: ap.Add, Actor: activity.Actor}) {
			log.Debug("Ignoring duplicate bookmark")
			return false
		}

		if err := store.IndexAdd(index, store.PostFilename(postID)); err != nil {
			log.Warn("Failed to update bookmark index", "error", err)
		}

		log.Info("Added bookmark", "post", postID)
		return true
	})
}

func (in *Inbox) unbookmark(log *slog.Logger, activity *ap.Activity, nickname string) error {
	postID, err := in.bookmarkTarget(activity, nickname)
	if err != nil {
		return err
	}

	index := filepath.Join(in.Store.AccountDir(nickname), "bookmarks.index")

	return in.updatePost(nickname, postID, func(_ *ap.Activity, o *ap.Object) bool {
		if o.Bookmarks == nil || !o.Bookmarks.Remove(activity.Actor) {
			log.Debug("Ignoring removal of unknown bookmark")
			return false
		}

		if err := store.IndexRemove(index, store.PostFilename(postID)); err != nil {
			log.Warn("Failed to update bookmark index", "error", err)
		}

		log.Info("Removed bookmark", "post", postID)
		return true
	})
}
