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

// Package ap implements the subset of the ActivityPub vocabulary used by the
// inbox pipeline.
package ap

import (
	"encoding/json"
	"fmt"
)

type ActivityType string

const (
	Create     ActivityType = "Create"
	Update     ActivityType = "Update"
	Delete     ActivityType = "Delete"
	Follow     ActivityType = "Follow"
	Join       ActivityType = "Join"
	Undo       ActivityType = "Undo"
	Accept     ActivityType = "Accept"
	Reject     ActivityType = "Reject"
	Like       ActivityType = "Like"
	EmojiReact ActivityType = "EmojiReact"
	Announce   ActivityType = "Announce"
	Add        ActivityType = "Add"
	Remove     ActivityType = "Remove"
	Move       ActivityType = "Move"
)

type anyActivity struct {
	Context   any             `json:"@context,omitempty"`
	ID        string          `json:"id"`
	Type      ActivityType    `json:"type"`
	Actor     string          `json:"actor"`
	Published Time            `json:"published,omitzero"`
	To        Audience        `json:"to,omitzero"`
	CC        Audience        `json:"cc,omitzero"`
	Target    string          `json:"target,omitempty"`
	Content   string          `json:"content,omitempty"`
	Object    json.RawMessage `json:"object"`
	Signature *Signature      `json:"signature,omitempty"`
}

// Activity is a single received or sent activity. Object holds a *Activity,
// a *Object or a link, depending on the received JSON.
type Activity struct {
	Context   any          `json:"@context,omitempty"`
	ID        string       `json:"id"`
	Type      ActivityType `json:"type"`
	Actor     string       `json:"actor"`
	Published Time         `json:"published,omitzero"`
	To        Audience     `json:"to,omitzero"`
	CC        Audience     `json:"cc,omitzero"`
	Target    string       `json:"target,omitempty"`
	Content   string       `json:"content,omitempty"`
	Object    any          `json:"object,omitempty"`
	Signature *Signature   `json:"signature,omitempty"`
}

// Signature is a JSON-LD data signature over the activity body, carried
// end-to-end through relays.
type Signature struct {
	Type           string `json:"type"`
	Creator        string `json:"creator,omitempty"`
	Created        string `json:"created,omitempty"`
	SignatureValue string `json:"signatureValue"`
}

func (a *Activity) UnmarshalJSON(b []byte) error {
	var common anyActivity
	if err := json.Unmarshal(b, &common); err != nil {
		return err
	}

	a.Context = common.Context
	a.ID = common.ID
	a.Type = common.Type
	a.Actor = common.Actor
	a.Published = common.Published
	a.To = common.To
	a.CC = common.CC
	a.Target = common.Target
	a.Content = common.Content
	a.Signature = common.Signature

	if len(common.Object) == 0 {
		a.Object = nil
		return nil
	}

	var object Object
	var activity Activity
	var link string
	if err := json.Unmarshal(common.Object, &activity); err == nil && activity.Type != "" && isActivityType(activity.Type) {
		a.Object = &activity
	} else if err := json.Unmarshal(common.Object, &object); err == nil {
		a.Object = &object
	} else if err := json.Unmarshal(common.Object, &link); err == nil {
		a.Object = link
	} else {
		return fmt.Errorf("invalid activity: %s", string(b))
	}

	return nil
}

func isActivityType(t ActivityType) bool {
	switch t {
	case Create, Update, Delete, Follow, Join, Undo, Accept, Reject, Like, EmojiReact, Announce, Add, Remove, Move:
		return true
	}
	return false
}

// ObjectID returns the ID of the activity's object, whether the object is
// embedded or referenced by link.
func (a *Activity) ObjectID() string {
	switch o := a.Object.(type) {
	case *Activity:
		return o.ID
	case *Object:
		return o.ID
	case string:
		return o
	}
	return ""
}
