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

// isGitPatch reports whether a post is a git patch sent over the fediverse:
// a "[PATCH]" subject plus a unified diff in the body.
func isGitPatch(o *ap.Object) bool {
	subject := o.Name
	if subject == "" {
		subject = o.Summary
	}

	return strings.Contains(subject, "[PATCH]") && strings.Contains(o.Content, "diff --git")
}

// acceptGitPatch files a received git patch under the account's patches
// directory and raises a patch notification.
func (in *Inbox) acceptGitPatch(log *slog.Logger, nickname string, o *ap.Object) {
	path := filepath.Join(in.Store.AccountDir(nickname), "patches", url.QueryEscape(o.ID)+".json")
	if err := store.WriteJSON(path, o); err != nil {
		log.Warn("Failed to file git patch", "error", err)
		return
	}

	if err := in.Store.WriteMarker(nickname, store.NewPatch, o.ID); err != nil {
		log.Warn("Failed to write patch marker", "error", err)
	}

	log.Info("Filed git patch", "post", o.ID)
}
