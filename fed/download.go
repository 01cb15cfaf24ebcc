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

package fed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/quincefed/quince/ap"
	"github.com/quincefed/quince/cfg"
	"github.com/sethvargo/go-retry"
)

const (
	maxPostBodySize  = 1024 * 1024
	maxMediaBodySize = 8 * 1024 * 1024
)

// Downloader fetches announced posts and attached media from other
// instances, with a bounded retry policy.
type Downloader struct {
	Config   *cfg.Config
	Resolver *KeyResolver
	client   *http.Client
}

// NewDownloader returns a new [Downloader].
func NewDownloader(config *cfg.Config, resolver *KeyResolver) *Downloader {
	return &Downloader{
		Config:   config,
		Resolver: resolver,
		client:   &http.Client{},
	}
}

func (d *Downloader) get(ctx context.Context, id, accept string, limit int64) ([]byte, error) {
	u, err := url.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("cannot fetch %s: %w", id, err)
	}

	if u.Scheme != "https" {
		return nil, ErrInvalidScheme
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, id, nil)
	if err != nil {
		return nil, err
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		// connection-level failures are worth another attempt
		return nil, retry.RetryableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s is gone: %s", id, resp.Status)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, retry.RetryableError(fmt.Errorf("failed to fetch %s: %s", id, resp.Status))
	}

	return io.ReadAll(io.LimitReader(resp.Body, limit))
}

// DownloadAnnounced fetches a post referenced by an announce.
func (d *Downloader) DownloadAnnounced(ctx context.Context, id string) (*ap.Object, error) {
	var body []byte
	backoff := retry.WithMaxRetries(uint64(d.Config.AnnounceFetchAttempts-1), retry.NewConstant(d.Config.KeyFetchDelay))
	if err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		body, err = d.get(ctx, id, `application/ld+json; profile="https://www.w3.org/ns/activitystreams"`, maxPostBodySize)
		return err
	}); err != nil {
		return nil, err
	}

	var o ap.Object
	if err := json.Unmarshal(body, &o); err != nil {
		// some servers return the wrapping Create instead of the post
		var activity ap.Activity
		if err := json.Unmarshal(body, &activity); err == nil {
			if inner, ok := activity.Object.(*ap.Object); ok {
				return inner, nil
			}
		}
		return nil, fmt.Errorf("failed to parse %s: %w", id, err)
	}

	if o.ID == "" {
		return nil, fmt.Errorf("post %s has no ID", id)
	}

	return &o, nil
}

// DownloadMedia fetches an attachment, capped at a sane size.
func (d *Downloader) DownloadMedia(ctx context.Context, mediaURL string) ([]byte, error) {
	return d.get(ctx, mediaURL, "", maxMediaBodySize)
}
