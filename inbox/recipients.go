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
	"strings"

	"github.com/quincefed/quince/ap"
	"github.com/quincefed/quince/data"
)

// canonicalizeOrigin rewrites this instance's onion or I2P alias to its
// clearnet domain, so posts addressed through an alternative transport reach
// the same accounts.
func (in *Inbox) canonicalizeOrigin(id string) string {
	if in.Config.OnionDomain != "" {
		id = strings.Replace(id, "https://"+in.Config.OnionDomain+"/", "https://"+in.Domain+"/", 1)
	}
	if in.Config.I2PDomain != "" {
		id = strings.Replace(id, "https://"+in.Config.I2PDomain+"/", "https://"+in.Domain+"/", 1)
	}
	return id
}

// ResolveRecipients maps an activity's addressing to local accounts. The
// first return value holds directly addressed accounts, as nickname@domain
// handles; the second holds accounts reached through a remote actor's
// followers collection, expanded from each local account's following list.
func (in *Inbox) ResolveRecipients(log *slog.Logger, activity *ap.Activity) (data.OrderedMap[string, struct{}], data.OrderedMap[string, struct{}]) {
	direct := data.OrderedMap[string, struct{}]{}
	followers := data.OrderedMap[string, struct{}]{}

	seen := 0
	add := func(recipient string) {
		if recipient == ap.Public {
			return
		}

		seen++
		if seen > in.Config.MaxRecipients {
			return
		}

		recipient = in.canonicalizeOrigin(recipient)

		// a remote followers collection is resolved locally: every
		// account following that actor is a recipient
		if rest, ok := strings.CutSuffix(recipient, "/followers"); ok && !in.Store.IsLocal(recipient) {
			for _, handle := range in.Store.FollowersOfActor(rest).Keys() {
				followers.Store(handle, struct{}{})
			}
			return
		}

		nickname, ok := in.Store.LocalNickname(recipient)
		if !ok {
			return
		}
		if !in.Store.AccountExists(nickname) {
			log.Debug("Post addressed to unknown local account", "recipient", recipient)
			return
		}

		direct.Store(in.Store.Handle(nickname), struct{}{})
	}

	for _, to := range activity.To.Keys() {
		add(to)
	}
	for _, cc := range activity.CC.Keys() {
		add(cc)
	}

	if obj, ok := activity.Object.(*ap.Object); ok {
		for _, to := range obj.To.Keys() {
			add(to)
		}
		for _, cc := range obj.CC.Keys() {
			add(cc)
		}
	}

	if seen > in.Config.MaxRecipients {
		log.Warn("Post has too many recipients", "count", seen, "max", in.Config.MaxRecipients)
	}

	return direct, followers
}
