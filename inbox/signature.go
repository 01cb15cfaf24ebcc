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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/quincefed/quince/ap"
	"github.com/quincefed/quince/fed"
	"github.com/quincefed/quince/httpsig"
	"github.com/quincefed/quince/ldsig"
	"github.com/quincefed/quince/queue"
	"github.com/quincefed/quince/store"
)

var errNoEmbeddedSignature = errors.New("no embedded signature")

func sameHost(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return ua.Host != "" && ua.Host == ub.Host
}

// checkSigningActor ensures the key used to sign an activity belongs to the
// activity's actor, or at least to the same origin. Otherwise any server
// could sign activities attributed to actors it doesn't control.
func checkSigningActor(signer *ap.Actor, activity *ap.Activity) error {
	if signer.ID == activity.Actor {
		return nil
	}

	if sameHost(signer.ID, activity.Actor) {
		return nil
	}

	return fmt.Errorf("%s signed an activity by %s", signer.ID, activity.Actor)
}

// verifyHTTPSignature rebuilds the received request from the queue item's
// captured headers and verifies its HTTP signature against the signing
// actor's published key.
func (in *Inbox) verifyHTTPSignature(ctx context.Context, item *queue.Item, activity *ap.Activity) error {
	r, err := http.NewRequest(http.MethodPost, "https://"+in.Domain+item.Path, nil)
	if err != nil {
		return err
	}
	for k, v := range item.HTTPHeaders {
		r.Header.Set(k, v)
	}

	// judge signature age by arrival time, not processing time: an item
	// can sit in the queue longer than the allowed age
	now, err := time.Parse(time.RFC3339, item.Published)
	if err != nil {
		now = time.Now()
	}

	sig, err := httpsig.Extract(r, item.Original, in.Domain, now, in.Config.MaxSignatureAge)
	if err != nil {
		return err
	}

	signer, err := in.Resolver.ResolveActor(ctx, sig.KeyID)
	if err != nil {
		return fmt.Errorf("failed to resolve key %s: %w", sig.KeyID, err)
	}

	key, err := fed.PublicKeyOf(signer, sig.KeyID)
	if err != nil {
		return err
	}

	if err := sig.Verify(key); err != nil {
		return err
	}

	return checkSigningActor(signer, activity)
}

// verifyEmbeddedSignature verifies the activity's JSON-LD signature against
// its creator's published key.
func (in *Inbox) verifyEmbeddedSignature(ctx context.Context, raw []byte, activity *ap.Activity) error {
	var doc struct {
		Signature ap.Signature `json:"signature"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if doc.Signature.Creator == "" {
		return errors.New("embedded signature has no creator")
	}

	signer, err := in.Resolver.ResolveActor(ctx, doc.Signature.Creator)
	if err != nil {
		return fmt.Errorf("failed to resolve creator %s: %w", doc.Signature.Creator, err)
	}

	key, err := fed.PublicKeyOf(signer, doc.Signature.Creator)
	if err != nil {
		return err
	}

	if err := ldsig.Verify(key, raw); err != nil {
		return err
	}

	return checkSigningActor(signer, activity)
}

// auditUnknownContext records an activity signed under an unrecognized
// JSON-LD @context, so new context URLs can be reviewed and allowed.
func (in *Inbox) auditUnknownContext(activity *ap.Activity) {
	path := filepath.Join(in.Store.BaseDir, "accounts", "unknown_contexts.txt")
	if err := store.IndexAdd(path, activity.ID); err != nil {
		slog.Warn("Failed to record unknown context", "id", activity.ID, "error", err)
	}
}

// verifySignatures is the authenticity gate every queued activity passes
// before any side effect is applied.
//
// A valid HTTP signature normally suffices. A post whose HTTP signature
// fails, usually because a relay re-delivered it under its own envelope, is
// still accepted if its embedded JSON-LD signature verifies against the
// original author's key. An embedded signature under an unrecognized
// @context cannot be canonicalized reliably, so it's treated as absent and
// recorded for audit.
func (in *Inbox) verifySignatures(ctx context.Context, log *slog.Logger, item *queue.Item, activity *ap.Activity) error {
	httpErr := in.verifyHTTPSignature(ctx, item, activity)

	ldErr := errNoEmbeddedSignature
	if ldsig.Present(item.Original) {
		if ldsig.HasKnownContext(item.Original) {
			ldErr = in.verifyEmbeddedSignature(ctx, item.Original, activity)
		} else {
			in.auditUnknownContext(activity)
		}
	}

	if in.Config.VerifyAllSignatures {
		if httpErr != nil {
			return fmt.Errorf("%w: %w", ErrSignatureInvalid, httpErr)
		}
		if ldErr != nil {
			return fmt.Errorf("%w: %w", ErrSignatureInvalid, ldErr)
		}
		return nil
	}

	if httpErr == nil {
		return nil
	}

	if ldErr == nil {
		log.Debug("Accepting relayed post with valid embedded signature", "error", httpErr)
		return nil
	}

	return fmt.Errorf("%w: %w", ErrSignatureInvalid, httpErr)
}
