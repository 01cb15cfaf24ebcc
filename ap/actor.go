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

type ActorType string

const (
	Person      ActorType = "Person"
	Group       ActorType = "Group"
	Application ActorType = "Application"
	Service     ActorType = "Service"
)

// Actor represents an ActivityPub actor: a local or remote account.
type Actor struct {
	Context           any       `json:"@context,omitempty"`
	ID                string    `json:"id"`
	Type              ActorType `json:"type"`
	PreferredUsername string    `json:"preferredUsername,omitempty"`
	Name              string    `json:"name,omitempty"`
	Inbox             string    `json:"inbox,omitempty"`
	Outbox            string    `json:"outbox,omitempty"`
	Followers         string    `json:"followers,omitempty"`
	Following         string    `json:"following,omitempty"`
	Published         Time      `json:"published,omitzero"`

	PublicKey PublicKey `json:"publicKey,omitzero"`

	ManuallyApprovesFollowers bool `json:"manuallyApprovesFollowers,omitempty"`

	Endpoints struct {
		SharedInbox string `json:"sharedInbox,omitempty"`
	} `json:"endpoints,omitzero"`
}

// PublicKey is the actor's signing key, used to verify HTTP signatures and
// JSON-LD data signatures.
type PublicKey struct {
	ID                 string `json:"id"`
	Owner              string `json:"owner,omitempty"`
	PublicKeyPem       string `json:"publicKeyPem,omitempty"`
	PublicKeyMultibase string `json:"publicKeyMultibase,omitempty"`
}
