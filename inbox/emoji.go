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
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxReactionRunes bounds a reaction's content: a couple of emoji runes plus
// possible variation selectors and joiners.
const maxReactionRunes = 4

func isEmojiRune(r rune) bool {
	switch {
	// variation selectors and the zero-width joiner used by compound emoji
	case r == 0x200d, r >= 0xfe00 && r <= 0xfe0f:
		return true

	// pictographs, regional indicators (flags), skin tone modifiers
	case r >= 0x1f000 && r <= 0x1fbff, r >= 0x2600 && r <= 0x27bf:
		return true
	}

	// other symbols only: punctuation like "!!" or "?" is a reply, not a
	// reaction
	return unicode.Is(unicode.So, r)
}

// validReactionContent reports whether content is a short emoji-only string
// usable as a reaction.
func validReactionContent(content string) bool {
	content = strings.TrimSpace(content)
	if content == "" || !utf8.ValidString(content) {
		return false
	}

	runes := 0
	for _, r := range content {
		if !isEmojiRune(r) {
			return false
		}
		runes++
		if runes > maxReactionRunes {
			return false
		}
	}

	return true
}
