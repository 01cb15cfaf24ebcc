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
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/quincefed/quince/ap"
	"github.com/quincefed/quince/store"
)

// markup elements that must never reach a stored post
var dangerousElements = map[string]struct{}{
	"script":   {},
	"style":    {},
	"iframe":   {},
	"frame":    {},
	"object":   {},
	"embed":    {},
	"applet":   {},
	"form":     {},
	"input":    {},
	"button":   {},
	"meta":     {},
	"link":     {},
	"base":     {},
	"canvas":   {},
	"template": {},
}

// dangerousMarkup tokenizes an HTML fragment and reports whether it contains
// active content or inline event handlers.
func dangerousMarkup(fragment string) bool {
	z := html.NewTokenizer(strings.NewReader(fragment))

	for {
		switch z.Next() {
		case html.ErrorToken:
			return false

		case html.StartTagToken, html.SelfClosingTagToken:
			token := z.Token()

			if _, ok := dangerousElements[token.Data]; ok {
				return true
			}

			for _, attr := range token.Attr {
				if strings.HasPrefix(strings.ToLower(attr.Key), "on") {
					return true
				}
				if attr.Key == "href" || attr.Key == "src" {
					if strings.HasPrefix(strings.TrimSpace(strings.ToLower(attr.Val)), "javascript:") {
						return true
					}
				}
			}
		}
	}
}

// understandsLanguage reports whether a post is written in one of the
// account's understood languages. An account without a language list
// understands everything, and so does a post without language metadata.
func (in *Inbox) understandsLanguage(nickname string, o *ap.Object) bool {
	if len(o.ContentMap) == 0 {
		return true
	}

	languages, err := store.IndexLines(filepath.Join(in.Store.AccountDir(nickname), "languages.txt"))
	if err != nil || len(languages) == 0 {
		return true
	}

	for lang := range o.ContentMap {
		base, _, _ := strings.Cut(lang, "-")
		for _, understood := range languages {
			if strings.EqualFold(base, understood) {
				return true
			}
		}
	}

	return false
}

// filtered reports whether the post matches one of the account's filter
// words, scanning content, summary and media alt text.
func (in *Inbox) filtered(nickname string, o *ap.Object) bool {
	words, err := store.IndexLines(filepath.Join(in.Store.AccountDir(nickname), "filters.txt"))
	if err != nil {
		return false
	}

	var scanned strings.Builder
	scanned.WriteString(o.Content)
	scanned.WriteByte(' ')
	scanned.WriteString(o.Summary)
	for _, attachment := range o.Attachment {
		scanned.WriteByte(' ')
		scanned.WriteString(attachment.Name)
	}

	content := strings.ToLower(scanned.String())
	for _, word := range words {
		if word != "" && strings.Contains(content, strings.ToLower(word)) {
			return true
		}
	}

	return false
}

// replyPermitted reports whether a reply to a locally stored parent post is
// allowed by the parent's author.
func (in *Inbox) replyPermitted(nickname string, o *ap.Object) bool {
	if o.InReplyTo == "" {
		return true
	}

	path := in.Store.LocatePost(nickname, in.canonicalizeOrigin(o.InReplyTo))
	if path == "" {
		return true
	}

	parent, err := store.ReadObject(path)
	if err != nil {
		return true
	}

	return parent.AllowsComments()
}

// malformedCiphertext reports whether the post carries a PGP message without
// its end marker, a telltale of truncation in transit.
func malformedCiphertext(content string) bool {
	return strings.Contains(content, "BEGIN PGP MESSAGE") && !strings.Contains(content, "END PGP MESSAGE")
}

func countTags(o *ap.Object, t ap.TagType) int {
	n := 0
	for _, tag := range o.Tag {
		if tag.Type == t {
			n++
		}
	}
	return n
}

// validatePost applies every content admission rule to an incoming post.
// A post failing any rule is dropped for this recipient.
func (in *Inbox) validatePost(nickname string, o *ap.Object, now time.Time) error {
	if o.ID == "" {
		return errors.New("post has no ID")
	}
	if len(o.ID) > in.Config.MaxURLLength || len(o.URL) > in.Config.MaxURLLength || len(o.InReplyTo) > in.Config.MaxURLLength {
		return errors.New("post URL is too long")
	}

	if o.Published.IsZero() {
		return errors.New("post has no published time")
	}
	if age := now.Sub(o.Published.Time); age > in.Config.PublishedWindow {
		return fmt.Errorf("post is too old: published %s", o.Published.Format(time.RFC3339))
	} else if age < -time.Hour*24 {
		return fmt.Errorf("post is from the future: published %s", o.Published.Format(time.RFC3339))
	}

	if utf8.RuneCountInString(o.Summary) > in.Config.MaxContentWarningRunes {
		return errors.New("content warning is too long")
	}

	if dangerousMarkup(o.Content) || dangerousMarkup(o.Summary) {
		return errors.New("post contains dangerous markup")
	}

	if malformedCiphertext(o.Content) {
		return errors.New("post contains malformed ciphertext")
	}

	if mentions := countTags(o, ap.MentionTag); mentions > in.Config.MaxMentions {
		return fmt.Errorf("too many mentions: %d", mentions)
	}
	if emoji := countTags(o, ap.EmojiTag); emoji > in.Config.MaxEmoji {
		return fmt.Errorf("too many custom emoji: %d", emoji)
	}
	if len(o.Tag) > in.Config.MaxMentions*2 {
		return fmt.Errorf("too many tags: %d", len(o.Tag))
	}
	for _, tag := range o.Tag {
		if len(tag.Href) > in.Config.MaxURLLength {
			return errors.New("tag URL is too long")
		}
	}

	if !in.understandsLanguage(nickname, o) {
		return errors.New("post language is not understood")
	}

	if in.filtered(nickname, o) {
		return errors.New("post matches a filter word")
	}

	if !in.replyPermitted(nickname, o) {
		return errors.New("replies to the parent post are disabled")
	}

	return nil
}

// moderationActive reports whether the instance is in moderation mode, where
// posts from unknown actors are held back.
func (in *Inbox) moderationActive() bool {
	_, err := os.Stat(filepath.Join(in.Store.BaseDir, "moderation_expires"))
	return err == nil
}
