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

// CollectionItem is one like, reaction, bookmark or announce attached to a
// post, attributed to a single actor. Content is set for emoji reactions only.
type CollectionItem struct {
	Type    ActivityType `json:"type"`
	Actor   string       `json:"actor"`
	Content string       `json:"content,omitempty"`
}

// Collection is a mutable per-post collection of [CollectionItem].
// A collection holds at most one item per actor and TotalItems always equals
// the number of items.
type Collection struct {
	TotalItems int              `json:"totalItems"`
	Items      []CollectionItem `json:"items"`
}

// Contains reports whether the collection already holds an item by the actor.
func (c *Collection) Contains(actor string) bool {
	for _, item := range c.Items {
		if item.Actor == actor {
			return true
		}
	}
	return false
}

// Add inserts an item unless the actor already has one.
// Returns false if the collection is unchanged.
func (c *Collection) Add(item CollectionItem) bool {
	if c.Contains(item.Actor) {
		return false
	}

	c.Items = append(c.Items, item)
	c.TotalItems = len(c.Items)
	return true
}

// Remove removes the actor's item, if any.
// Returns false if the collection is unchanged.
func (c *Collection) Remove(actor string) bool {
	for i, item := range c.Items {
		if item.Actor == actor {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.TotalItems = len(c.Items)
			return true
		}
	}
	return false
}
