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
	"context"
	"log/slog"

	"github.com/quincefed/quince/ap"
	"github.com/quincefed/quince/danger"
)

// scrubAttachments drops SVG attachments carrying active content. SVG is the
// only raster-less image format that can embed scripts, so each one is
// downloaded and scanned before the post is admitted.
func (in *Inbox) scrubAttachments(ctx context.Context, log *slog.Logger, o *ap.Object) {
	kept := o.Attachment[:0]

	for _, attachment := range o.Attachment {
		if attachment.MediaType != "image/svg+xml" {
			kept = append(kept, attachment)
			continue
		}

		body, err := in.Downloader.DownloadMedia(ctx, attachment.URL)
		if err != nil {
			log.Warn("Dropping unfetchable SVG attachment", "url", attachment.URL, "error", err)
			continue
		}

		if dangerousMarkup(danger.String(body)) {
			log.Warn("Dropping SVG attachment with active content", "url", attachment.URL)
			continue
		}

		kept = append(kept, attachment)
	}

	o.Attachment = kept
}
