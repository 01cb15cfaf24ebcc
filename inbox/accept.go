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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/quincefed/quince/ap"
	"github.com/quincefed/quince/queue"
	"github.com/quincefed/quince/store"
)

// AcceptPost runs one queue item through the per-recipient pipeline.
// Delivery is idempotent: a post already stored at its destination is
// skipped, so a crash after a partial fan-out never duplicates side effects
// on the next run.
func (in *Inbox) AcceptPost(ctx context.Context, log *slog.Logger, item *queue.Item, nickname string) error {
	log = log.With("recipient", nickname)

	destination := item.DestinationFor(in.Store.Handle(store.SharedInboxAccount), in.Store.Handle(nickname))
	if destination != "" {
		if _, err := os.Stat(destination); err == nil {
			log.Debug("Post is already processed")
			return nil
		}
	}

	var activity ap.Activity
	if err := json.Unmarshal(item.Post, &activity); err != nil {
		return err
	}
	activity.Actor = in.canonicalizeOrigin(activity.Actor)

	if err := in.Store.UpdateLastSeen(nickname, activity.Actor, time.Now(), in.Config.LastSeenInterval); err != nil {
		log.Debug("Failed to update last-seen time", "error", err)
	}

	switch activity.Type {
	case ap.Like:
		return in.like(log, &activity, nickname)

	case ap.EmojiReact:
		return in.react(log, &activity, nickname)

	case ap.Add:
		return in.bookmark(log, &activity, nickname)

	case ap.Remove:
		return in.unbookmark(log, &activity, nickname)

	case ap.Announce:
		return in.announce(ctx, log, &activity, nickname)

	case ap.Undo:
		inner, ok := activity.Object.(*ap.Activity)
		if !ok {
			return errors.New("undo without embedded activity")
		}

		switch inner.Type {
		case ap.Like:
			return in.unlike(log, &activity, inner, nickname)
		case ap.EmojiReact:
			return in.unreact(log, &activity, inner, nickname)
		case ap.Announce:
			return in.unannounce(log, &activity, inner, nickname)
		}
		return fmt.Errorf("cannot undo %s", inner.Type)

	case ap.Delete:
		return in.delete(log, &activity, nickname)

	case ap.Create, ap.Update:
		return in.acceptCreate(ctx, log, item, &activity, nickname)
	}

	log.Debug("Ignoring unsupported activity type")
	return nil
}

// rewriteContentLinks replaces links to surveillance-heavy frontends with
// privacy-preserving mirrors.
func rewriteContentLinks(content string) string {
	for old, mirror := range map[string]string{
		"https://www.youtube.com/": "https://piped.video/",
		"https://youtube.com/":     "https://piped.video/",
		"https://m.youtube.com/":   "https://piped.video/",
		"https://twitter.com/":     "https://nitter.net/",
		"https://x.com/":           "https://nitter.net/",
	} {
		content = strings.ReplaceAll(content, old, mirror)
	}
	return content
}

// textContent strips markup from an HTML fragment.
func textContent(fragment string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

// tallyVote counts a poll vote: a reply whose name matches one of the
// question's options. Votes update the tally but aren't stored as posts.
func (in *Inbox) tallyVote(log *slog.Logger, activity *ap.Activity, vote *ap.Object, nickname string) error {
	questionID := in.canonicalizeOrigin(vote.InReplyTo)

	return in.updatePost(nickname, questionID, func(_ *ap.Activity, question *ap.Object) bool {
		if question.Type != ap.Question {
			return false
		}

		if !question.EndTime.IsZero() && time.Now().After(question.EndTime.Time) {
			log.Info("Ignoring vote in closed poll", "poll", questionID)
			return false
		}

		options := question.OneOf
		if len(options) == 0 {
			options = question.AnyOf
		}

		for i := range options {
			if options[i].Name != vote.Name {
				continue
			}

			options[i].Replies.TotalItems++
			question.VotersCount++
			log.Info("Counted poll vote", "poll", questionID, "option", vote.Name)
			return true
		}

		log.Info("Ignoring vote for unknown option", "poll", questionID, "option", vote.Name)
		return false
	})
}

// isVote reports whether a post is a poll vote rather than a regular reply.
func isVote(o *ap.Object) bool {
	return o.InReplyTo != "" && o.Name != "" && o.Content == ""
}

// isGroup reports whether a local account is a group that reflects received
// posts to its followers.
func (in *Inbox) isGroup(nickname string) bool {
	_, err := os.Stat(filepath.Join(in.Store.AccountDir(nickname), "group"))
	return err == nil
}

func (in *Inbox) acceptCreate(ctx context.Context, log *slog.Logger, item *queue.Item, activity *ap.Activity, nickname string) error {
	o, ok := activity.Object.(*ap.Object)
	if !ok {
		return errors.New("no embedded object")
	}
	o.ID = in.canonicalizeOrigin(o.ID)

	if in.blockedDomain(hostOf(activity.Actor)) || in.blockedHandle(store.ActorHandle(activity.Actor)) {
		log.Info("Dropping post from blocked sender")
		return nil
	}

	// a post must be attributed to the actor delivering it
	if o.AttributedTo != "" && in.canonicalizeOrigin(o.AttributedTo) != activity.Actor && !sameHost(o.AttributedTo, activity.Actor) {
		return fmt.Errorf("%s sent a post by %s", activity.Actor, o.AttributedTo)
	}

	if in.moderationActive() && !in.Store.IsFollowing(nickname, activity.Actor) && !in.Store.IsLocal(activity.Actor) {
		log.Info("Dropping post from unknown sender during moderation")
		return nil
	}

	if err := in.validatePost(nickname, o, time.Now()); err != nil {
		return err
	}

	if isVote(o) {
		return in.tallyVote(log, activity, o, nickname)
	}

	dm := isDM(o)
	if dm && !in.admitDM(log, activity, o, nickname) {
		return nil
	}

	// a short emoji-only reply is a reaction in disguise
	if o.InReplyTo != "" {
		if text := strings.TrimSpace(textContent(o.Content)); validReactionContent(text) {
			reaction := ap.Activity{
				ID:      activity.ID,
				Type:    ap.EmojiReact,
				Actor:   activity.Actor,
				Content: text,
				Object:  in.canonicalizeOrigin(o.InReplyTo),
			}
			return in.react(log, &reaction, nickname)
		}
	}

	if isGitPatch(o) {
		in.acceptGitPatch(log, nickname, o)
	}

	o.Content = rewriteContentLinks(o.Content)
	for lang, content := range o.ContentMap {
		o.ContentMap[lang] = rewriteContentLinks(content)
	}

	if len(o.Attachment) > 0 {
		in.scrubAttachments(ctx, log, o)
	}

	// whatever arrived, what gets stored is a Create holding the newest
	// version of the post, filed under the post's own ID so replies, likes
	// and edits can find it
	activity.Type = ap.Create
	activity.ID = o.ID

	// an incoming version of an already stored post is an edit: archive
	// the prior version, then overwrite
	if existing := in.Store.LocatePost(nickname, o.ID); existing != "" {
		prior, err := store.ReadActivity(existing)
		if err == nil {
			if err := store.ArchiveEdit(existing, prior); err != nil {
				log.Warn("Failed to archive prior version", "error", err)
			}
		}

		if err := store.WriteJSON(existing, activity); err != nil {
			return err
		}

		in.invalidate(nickname, o.ID)
		log.Info("Updated edited post", "post", o.ID)
		return in.Store.RecordLastPost(nickname, activity.Actor, o.ID)
	}

	if o.InReplyTo != "" {
		parentID := in.canonicalizeOrigin(o.InReplyTo)
		if parentPath := in.Store.LocatePost(nickname, parentID); parentPath != "" {
			repliesPath := strings.TrimSuffix(parentPath, ".json") + ".replies"
			if err := store.IndexAdd(repliesPath, store.PostFilename(o.ID)); err != nil {
				log.Warn("Failed to record reply", "error", err)
			}

			if err := in.Store.WriteMarker(nickname, store.NewReply, o.ID); err != nil {
				log.Warn("Failed to write reply marker", "error", err)
			}
		}
	}

	if dm {
		if err := in.Store.WriteMarker(nickname, store.NewDM, o.ID); err != nil {
			log.Warn("Failed to write DM marker", "error", err)
		}
	}

	if err := in.storePost(nickname, "inbox", activity); err != nil {
		return err
	}

	// mark posts that arrived over an interception-prone transport
	if item.Mitm {
		path := strings.TrimSuffix(in.Store.PostPath(nickname, "inbox", o.ID), ".json") + ".mitm"
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			log.Warn("Failed to write mitm marker", "error", err)
		}
	}

	in.indexHashtags(log, o)
	in.indexCalendar(log, nickname, o)
	in.indexConversation(log, nickname, o)
	in.indexSecondaryTimelines(log, nickname, o)
	in.rememberSpeaker(log, nickname, activity.Actor)

	if store.IndexContains(filepath.Join(in.Store.AccountDir(nickname), "notify_on_post.txt"), activity.Actor) {
		if err := in.Store.WriteMarker(nickname, store.NewNotifiedPost, o.ID); err != nil {
			log.Warn("Failed to write notification marker", "error", err)
		}
	}

	if err := in.Store.RecordLastPost(nickname, activity.Actor, o.ID); err != nil {
		log.Warn("Failed to record last post", "error", err)
	}

	// a group reflects every public post it receives to its followers
	if o.IsPublic() && in.isGroup(nickname) {
		if err := in.Outbox.AnnounceToFollowers(nickname, o.ID); err != nil {
			log.Warn("Failed to reflect post to group followers", "error", err)
		}
	}

	log.Info("Stored post", "post", o.ID)
	return nil
}
