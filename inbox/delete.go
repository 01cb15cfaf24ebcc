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

func (in *Inbox) delete(log *slog.Logger, activity *ap.Activity, nickname string) error {
	if activity.To.IsZero() {
		return errors.New("delete without recipients")
	}

	postID := in.canonicalizeOrigin(activity.ObjectID())
	if postID == "" {
		return errors.New("delete without object")
	}

	// a remote actor cannot compel this instance to destroy its copy of a
	// post: unless AllowDeletion is set, both the actor and the target must
	// live here
	prefix := "https://" + in.Domain + "/"
	if !in.Config.AllowDeletion && !(strings.HasPrefix(activity.Actor, prefix) && strings.HasPrefix(postID, prefix)) {
		return fmt.Errorf("%s cannot delete %s", activity.Actor, postID)
	}

	path := in.Store.LocatePost(nickname, postID)
	if path == "" {
		log.Debug("Ignoring delete of unknown post", "post", postID)
		return nil
	}

	stored, err := store.ReadActivity(path)
	if err != nil {
		return err
	}

	author := stored.Actor
	if o, ok := stored.Object.(*ap.Object); ok && o.AttributedTo != "" {
		author = o.AttributedTo
	}
	if author != activity.Actor {
		return fmt.Errorf("%s cannot delete a post by %s", activity.Actor, author)
	}

	box := filepath.Base(filepath.Dir(path))
	if err := in.removePost(nickname, box, postID); err != nil {
		return err
	}

	in.invalidate(nickname, postID)
	log.Info("Deleted post", "post", postID, "box", box)
	return nil
}
