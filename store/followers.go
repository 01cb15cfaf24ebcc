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

package store

import (
	"path/filepath"
	"strings"

	"github.com/quincefed/quince/data"
)

// ActorHandle derives the nickname@domain form of an actor URL, or returns
// an empty string if the URL doesn't follow a recognized profile layout.
func ActorHandle(actor string) string {
	u := strings.TrimPrefix(strings.TrimPrefix(actor, "https://"), "http://")
	host, rest, ok := strings.Cut(u, "/")
	if !ok {
		return ""
	}

	for _, pattern := range []string{"users/", "profile/", "channel/", "accounts/", "@"} {
		if nickname, ok := strings.CutPrefix(rest, pattern); ok && nickname != "" && !strings.Contains(nickname, "/") {
			return nickname + "@" + host
		}
	}

	return ""
}

// FollowingPath returns the path of the account's following list, one
// nickname@domain per line.
func (st *Store) FollowingPath(nickname string) string {
	return filepath.Join(st.AccountDir(nickname), "following.txt")
}

// FollowersPath returns the path of the account's followers list.
func (st *Store) FollowersPath(nickname string) string {
	return filepath.Join(st.AccountDir(nickname), "followers.txt")
}

// IsFollowing reports whether a local account follows the given actor.
func (st *Store) IsFollowing(nickname, actor string) bool {
	handle := ActorHandle(actor)
	if handle == "" {
		return false
	}
	return IndexContains(st.FollowingPath(nickname), handle)
}

// FollowersOfActor expands a remote actor's followers collection into the
// local accounts following that actor, by scanning every account's following
// list.
func (st *Store) FollowersOfActor(actor string) data.OrderedMap[string, struct{}] {
	followers := data.OrderedMap[string, struct{}]{}

	handle := ActorHandle(actor)
	if handle == "" {
		return followers
	}

	nicknames, err := st.Accounts()
	if err != nil {
		return followers
	}

	for _, nickname := range nicknames {
		if IndexContains(st.FollowingPath(nickname), handle) {
			followers.Store(st.Handle(nickname), struct{}{})
		}
	}

	return followers
}

// AddFollower records a new follower of a local account.
func (st *Store) AddFollower(nickname, actor string) error {
	handle := ActorHandle(actor)
	if handle == "" {
		handle = actor
	}
	return IndexAdd(st.FollowersPath(nickname), handle)
}

// RemoveFollower removes a follower of a local account.
func (st *Store) RemoveFollower(nickname, actor string) error {
	handle := ActorHandle(actor)
	if handle == "" {
		handle = actor
	}
	return IndexRemove(st.FollowersPath(nickname), handle)
}

// HasFollower reports whether an actor follows a local account.
func (st *Store) HasFollower(nickname, actor string) bool {
	handle := ActorHandle(actor)
	if handle == "" {
		handle = actor
	}
	return IndexContains(st.FollowersPath(nickname), handle)
}
