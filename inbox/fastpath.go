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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/quincefed/quince/ap"
	"github.com/quincefed/quince/queue"
	"github.com/quincefed/quince/store"
)

func hostOf(id string) string {
	u, err := url.Parse(id)
	if err != nil {
		return ""
	}
	return u.Host
}

// manualApproval reports whether the account reviews follow requests by hand
// instead of auto-accepting them.
func (in *Inbox) manualApproval(nickname string) bool {
	_, err := os.Stat(filepath.Join(in.Store.AccountDir(nickname), "manual_follower_approval"))
	return err == nil
}

func (in *Inbox) follow(log *slog.Logger, activity *ap.Activity) error {
	followed := in.canonicalizeOrigin(activity.ObjectID())

	nickname, ok := in.Store.LocalNickname(followed)
	if !ok || !in.Store.AccountExists(nickname) {
		return fmt.Errorf("cannot follow %s: no such account", followed)
	}

	if in.blockedDomain(hostOf(activity.Actor)) || in.blockedHandle(store.ActorHandle(activity.Actor)) {
		log.Info("Ignoring follow request from blocked actor")
		return nil
	}

	if in.manualApproval(nickname) {
		path := filepath.Join(in.Store.AccountDir(nickname), "followrequests.txt")
		if err := store.IndexAdd(path, activity.Actor); err != nil {
			return err
		}
		log.Info("Queued follow request for manual approval", "followed", nickname)
		return nil
	}

	if err := in.Store.AddFollower(nickname, activity.Actor); err != nil {
		return err
	}

	log.Info("Approved follow request", "followed", nickname)
	return in.Outbox.Accept(nickname, activity.Actor, activity.ID)
}

func (in *Inbox) unfollow(log *slog.Logger, activity, follow *ap.Activity) error {
	if follow.Actor != "" && follow.Actor != activity.Actor {
		return errors.New("actor cannot undo another actor's follow")
	}

	followed := in.canonicalizeOrigin(follow.ObjectID())

	nickname, ok := in.Store.LocalNickname(followed)
	if !ok || !in.Store.AccountExists(nickname) {
		return fmt.Errorf("cannot unfollow %s: no such account", followed)
	}

	log.Info("Removing follower", "followed", nickname)
	return in.Store.RemoveFollower(nickname, activity.Actor)
}

// followResponse applies a remote Accept or Reject to a follow request one of
// our accounts sent.
func (in *Inbox) followResponse(log *slog.Logger, activity, follow *ap.Activity) error {
	nickname, ok := in.Store.LocalNickname(follow.Actor)
	if !ok || !in.Store.AccountExists(nickname) {
		return fmt.Errorf("follow response for non-local actor %s", follow.Actor)
	}

	// the responder must be the followed actor
	if followed := follow.ObjectID(); followed != "" && followed != activity.Actor {
		return fmt.Errorf("%s responded to a follow of %s", activity.Actor, followed)
	}

	handle := store.ActorHandle(activity.Actor)
	if handle == "" {
		handle = activity.Actor
	}

	if activity.Type == ap.Accept {
		log.Info("Follow request accepted", "follower", nickname)
		return store.IndexAdd(in.Store.FollowingPath(nickname), handle)
	}

	log.Info("Follow request rejected", "follower", nickname)
	return store.IndexRemove(in.Store.FollowingPath(nickname), handle)
}

// updateActor refreshes the cached copy of a remote actor document.
func (in *Inbox) updateActor(log *slog.Logger, item *queue.Item, activity *ap.Activity) error {
	var raw struct {
		Object ap.Actor `json:"object"`
	}
	if err := json.Unmarshal(item.Post, &raw); err != nil {
		return err
	}

	if raw.Object.ID != activity.Actor {
		return fmt.Errorf("%s updated actor %s", activity.Actor, raw.Object.ID)
	}

	path := filepath.Join(in.Store.BaseDir, "cache", "actors", url.QueryEscape(raw.Object.ID)+".json")
	log.Info("Updating cached actor")
	return store.WriteJSON(path, &raw.Object)
}

func isActorType(t ap.ObjectType) bool {
	switch ap.ActorType(t) {
	case ap.Person, ap.Group, ap.Application, ap.Service:
		return true
	}
	return false
}

// fastPath handles activities that mutate account state rather than deliver
// a post: follows and unfollows, responses to our follow requests and actor
// profile updates. These run once per activity, before recipient resolution,
// and report whether the activity was consumed.
func (in *Inbox) fastPath(log *slog.Logger, item *queue.Item, activity *ap.Activity) bool {
	switch activity.Type {
	case ap.Follow, ap.Join:
		if err := in.follow(log, activity); err != nil {
			log.Warn("Failed to handle follow request", "error", err)
		}
		return true

	case ap.Undo:
		if follow, ok := activity.Object.(*ap.Activity); ok && follow.Type == ap.Follow {
			if err := in.unfollow(log, activity, follow); err != nil {
				log.Warn("Failed to handle unfollow", "error", err)
			}
			return true
		}
		return false

	case ap.Accept, ap.Reject:
		if follow, ok := activity.Object.(*ap.Activity); ok && follow.Type == ap.Follow {
			if err := in.followResponse(log, activity, follow); err != nil {
				log.Warn("Failed to handle follow response", "error", err)
			}
		} else {
			log.Debug("Ignoring response to unknown activity")
		}
		return true

	case ap.Update:
		if o, ok := activity.Object.(*ap.Object); ok && isActorType(o.Type) {
			if err := in.updateActor(log, item, activity); err != nil {
				log.Warn("Failed to update cached actor", "error", err)
			}
			return true
		}
		return false

	case ap.Move:
		// account migration is handled by the follow synchronization job
		log.Debug("Ignoring Move activity")
		return true
	}

	return false
}
