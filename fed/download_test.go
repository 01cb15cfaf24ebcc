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
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quincefed/quince/cfg"
)

type flakyTransport struct {
	failures int
	status   int
	body     string
	calls    int
}

func (f *flakyTransport) RoundTrip(*http.Request) (*http.Response, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("connection reset by peer")
	}

	status := f.status
	if status == 0 {
		status = http.StatusOK
	}

	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(f.body)),
	}, nil
}

func testDownloader(transport http.RoundTripper) *Downloader {
	config := cfg.Config{AnnounceFetchAttempts: 3, KeyFetchDelay: time.Millisecond}
	config.FillDefaults()

	return &Downloader{Config: &config, client: &http.Client{Transport: transport}}
}

func TestDownloadAnnounced_RetriesTransportErrors(t *testing.T) {
	transport := &flakyTransport{failures: 2, body: `{"id":"https://c.example/statuses/9","type":"Note","content":"hi"}`}
	d := testDownloader(transport)

	o, err := d.DownloadAnnounced(context.Background(), "https://c.example/statuses/9")
	require.NoError(t, err)
	assert.Equal(t, "https://c.example/statuses/9", o.ID)
	assert.Equal(t, 3, transport.calls)
}

func TestDownloadAnnounced_GiveUp(t *testing.T) {
	transport := &flakyTransport{failures: 10}
	d := testDownloader(transport)

	_, err := d.DownloadAnnounced(context.Background(), "https://c.example/statuses/9")
	require.Error(t, err)
	assert.Equal(t, 3, transport.calls)
}

func TestDownloadAnnounced_GoneIsPermanent(t *testing.T) {
	transport := &flakyTransport{status: http.StatusGone}
	d := testDownloader(transport)

	_, err := d.DownloadAnnounced(context.Background(), "https://c.example/statuses/9")
	require.Error(t, err)
	assert.Equal(t, 1, transport.calls)
}
