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
	"os"
	"path/filepath"
	"strings"

	"github.com/quincefed/quince/ap"
	"github.com/quincefed/quince/store"
)

// isDM reports whether a post is a direct message: not public and not
// addressed to anyone's followers.
func isDM(o *ap.Object) bool {
	if o.IsPublic() {
		return false
	}

	for _, id := range o.To.Keys() {
		if strings.HasSuffix(id, "/followers") {
			return false
		}
	}
	for _, id := range o.CC.Keys() {
		if strings.HasSuffix(id, "/followers") {
			return false
		}
	}

	return true
}

// followDMs reports whether the account only accepts DMs from actors it
// follows.
func (in *Inbox) followDMs(nickname string) bool {
	_, err := os.Stat(filepath.Join(in.Store.AccountDir(nickname), "follow_dms"))
	return err == nil
}

// dmAllowedInstance reports whether the sender's instance is on the
// account's DM allowlist.
func (in *Inbox) dmAllowedInstance(nickname, sender string) bool {
	domains, err := store.IndexLines(filepath.Join(in.Store.AccountDir(nickname), "dm_allowed_instances.txt"))
	if err != nil {
		return false
	}

	host := hostOf(sender)
	for _, domain := range domains {
		if domain == host {
			return true
		}
	}

	return false
}

// admitDM decides whether a direct message reaches the account's inbox.
// A rejected DM is bounced back to the sender, at most once per bounce
// interval per account, so a DM flood can't be turned into a bounce flood.
func (in *Inbox) admitDM(log *slog.Logger, activity *ap.Activity, o *ap.Object, nickname string) bool {
	// DMs between local accounts bypass the policy
	if in.Store.IsLocal(activity.Actor) {
		return true
	}

	if !in.followDMs(nickname) {
		return true
	}

	if in.dmAllowedInstance(nickname, activity.Actor) {
		return true
	}

	if in.Store.IsFollowing(nickname, activity.Actor) {
		return true
	}

	log.Info("Rejecting DM from actor the account doesn't follow", "sender", activity.Actor)

	if in.bouncer(nickname).Allow() {
		if err := in.Outbox.Bounce(nickname, activity.Actor, o.ID); err != nil {
			log.Warn("Failed to bounce DM", "error", err)
		}
	} else {
		log.Debug("Skipping bounce, interval not elapsed")
	}

	return false
}
