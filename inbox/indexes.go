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
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/quincefed/quince/ap"
	"github.com/quincefed/quince/store"
)

// storePost writes a post into one of the account's boxes and prepends it to
// the box's timeline index.
func (in *Inbox) storePost(nickname, box string, activity *ap.Activity) error {
	path := in.Store.PostPath(nickname, box, activity.ID)
	if err := store.WriteJSON(path, activity); err != nil {
		return err
	}

	return store.IndexAdd(in.Store.BoxIndex(nickname, box), store.PostFilename(activity.ID))
}

// removePost deletes a stored post file, its edit history and its index line.
func (in *Inbox) removePost(nickname, box, postID string) error {
	path := in.Store.PostPath(nickname, box, postID)

	if err := store.IndexRemove(in.Store.BoxIndex(nickname, box), store.PostFilename(postID)); err != nil {
		return err
	}

	removeFile(store.EditsPath(path))
	return removeFile(path)
}

// indexHashtags appends the post to the per-tag index of every hashtag it
// carries.
func (in *Inbox) indexHashtags(log *slog.Logger, o *ap.Object) {
	for _, tag := range o.Tag {
		if tag.Type != ap.HashtagTag {
			continue
		}

		name := strings.TrimPrefix(tag.Name, "#")
		if name == "" {
			continue
		}

		path := filepath.Join(in.Store.BaseDir, "tags", url.QueryEscape(strings.ToLower(name))+".txt")
		if err := store.IndexAdd(path, store.PostFilename(o.ID)); err != nil {
			log.Warn("Failed to index hashtag", "tag", name, "error", err)
		}
	}
}

// indexCalendar records an upcoming event in the account's per-month
// calendar index. A post is an event if it is one itself or carries an Event
// tag with a start time.
func (in *Inbox) indexCalendar(log *slog.Logger, nickname string, o *ap.Object) {
	start := o.StartTime
	if o.Type != ap.Event {
		start = ap.Time{}
		for _, tag := range o.Tag {
			if tag.Type == ap.EventTag && !tag.StartTime.IsZero() {
				start = tag.StartTime
				break
			}
		}
	}
	if start.IsZero() {
		return
	}

	path := filepath.Join(in.Store.AccountDir(nickname), "calendar", start.UTC().Format("2006-01")+".txt")
	if err := store.IndexAdd(path, store.PostFilename(o.ID)); err != nil {
		log.Warn("Failed to index calendar event", "error", err)
	}
}

// indexConversation links the post into its thread's index, so a whole
// conversation can be reassembled without walking every box.
func (in *Inbox) indexConversation(log *slog.Logger, nickname string, o *ap.Object) {
	conversation := o.Conversation
	if conversation == "" {
		conversation = o.InReplyTo
	}
	if conversation == "" {
		conversation = o.ID
	}

	path := filepath.Join(in.Store.AccountDir(nickname), "conversation", url.QueryEscape(conversation)+".txt")
	if err := store.IndexAdd(path, store.PostFilename(o.ID)); err != nil {
		log.Warn("Failed to index conversation", "error", err)
	}
}

// indexSecondaryTimelines adds the post to the media or blog timeline when it
// qualifies.
func (in *Inbox) indexSecondaryTimelines(log *slog.Logger, nickname string, o *ap.Object) {
	if len(o.Attachment) > 0 {
		if err := store.IndexAdd(in.Store.BoxIndex(nickname, "tlmedia"), store.PostFilename(o.ID)); err != nil {
			log.Warn("Failed to index media post", "error", err)
		}
	}

	if o.Type == ap.Article {
		if err := store.IndexAdd(in.Store.BoxIndex(nickname, "tlblogs"), store.PostFilename(o.ID)); err != nil {
			log.Warn("Failed to index blog post", "error", err)
		}
	}
}

// rememberSpeaker caches the author of a recently received post, used to
// offer quick replies without refetching the actor.
func (in *Inbox) rememberSpeaker(log *slog.Logger, nickname, actor string) {
	path := filepath.Join(in.Store.AccountDir(nickname), "speakers.txt")
	if err := store.IndexAdd(path, actor); err != nil {
		log.Warn("Failed to record speaker", "error", err)
	}
}
