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

package ap

type ObjectType string

const (
	Note      ObjectType = "Note"
	Page      ObjectType = "Page"
	Article   ObjectType = "Article"
	Question  ObjectType = "Question"
	Event     ObjectType = "Event"
	Document  ObjectType = "Document"
	Tombstone ObjectType = "Tombstone"
)

// Public is the ActivityPub public collection marker.
const Public = "https://www.w3.org/ns/activitystreams#Public"

// Object represents most ActivityPub objects.
// Actors are represented by [Actor].
type Object struct {
	Context         any               `json:"@context,omitempty"`
	ID              string            `json:"id"`
	Type            ObjectType        `json:"type"`
	AttributedTo    string            `json:"attributedTo,omitempty"`
	InReplyTo       string            `json:"inReplyTo,omitempty"`
	Conversation    string            `json:"conversation,omitempty"`
	Content         string            `json:"content,omitempty"`
	ContentMap      map[string]string `json:"contentMap,omitempty"`
	Summary         string            `json:"summary,omitempty"`
	Sensitive       bool              `json:"sensitive,omitempty"`
	Name            string            `json:"name,omitempty"`
	MediaType       string            `json:"mediaType,omitempty"`
	Published       Time              `json:"published,omitzero"`
	Updated         Time              `json:"updated,omitzero"`
	To              Audience          `json:"to,omitzero"`
	CC              Audience          `json:"cc,omitzero"`
	Tag             Array[Tag]        `json:"tag,omitzero"`
	Attachment      []Attachment      `json:"attachment,omitempty"`
	URL             string            `json:"url,omitempty"`
	CommentsEnabled *bool             `json:"commentsEnabled,omitempty"`

	// mutable per-post collections, one entry per actor each
	Likes     *Collection `json:"likes,omitempty"`
	Shares    *Collection `json:"shares,omitempty"`
	Reactions *Collection `json:"reactions,omitempty"`
	Bookmarks *Collection `json:"bookmarks,omitempty"`

	// polls
	VotersCount int64        `json:"votersCount,omitempty"`
	OneOf       []PollOption `json:"oneOf,omitempty"`
	AnyOf       []PollOption `json:"anyOf,omitempty"`
	EndTime     Time         `json:"endTime,omitzero"`
	Closed      Time         `json:"closed,omitzero"`

	// events
	StartTime Time `json:"startTime,omitzero"`
}

// PollOption is a single answer in a Question.
type PollOption struct {
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	Replies struct {
		Type       string `json:"type,omitempty"`
		TotalItems int64  `json:"totalItems"`
	} `json:"replies"`
}

// Attachment is an attached file or link.
type Attachment struct {
	Type      string `json:"type,omitempty"`
	MediaType string `json:"mediaType,omitempty"`
	URL       string `json:"url,omitempty"`
	Name      string `json:"name,omitempty"`
}

func (o *Object) IsPublic() bool {
	return o.To.Contains(Public) || o.CC.Contains(Public)
}

// AllowsComments reports whether replies to this post are permitted.
// Absence of the flag means replies are allowed.
func (o *Object) AllowsComments() bool {
	return o.CommentsEnabled == nil || *o.CommentsEnabled
}
