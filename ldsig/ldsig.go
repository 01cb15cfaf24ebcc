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

// Package ldsig verifies JSON-LD data signatures embedded in activities.
//
// An HTTP signature proves a request came from an origin; the embedded
// signature proves the activity body wasn't altered since the origin signed
// it, which still holds after a relay re-delivers the activity under its own
// envelope.
package ldsig

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gowebpki/jcs"
)

const SignatureType = "RsaSignature2017"

var securityContext = "https://w3id.org/security/v1"

// recognized @context values; activities signed under an unknown context are
// treated as unsigned and logged for audit
var knownContexts = map[string]struct{}{
	"https://www.w3.org/ns/activitystreams":        {},
	"https://w3id.org/security/v1":                 {},
	"https://w3id.org/security/data-integrity/v1":  {},
	"https://purl.archive.org/socialweb/webfinger": {},
	"https://www.w3.org/ns/did/v1":                 {},
}

type document struct {
	Context   any              `json:"@context"`
	Signature *signatureFields `json:"signature"`
}

type signatureFields struct {
	Type           string `json:"type"`
	Creator        string `json:"creator,omitempty"`
	Created        string `json:"created,omitempty"`
	SignatureValue string `json:"signatureValue"`
}

// HasKnownContext reports whether the document's @context is one this server
// recognizes.
func HasKnownContext(raw []byte) bool {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return false
	}

	switch c := doc.Context.(type) {
	case string:
		_, ok := knownContexts[c]
		return ok

	case []any:
		for _, v := range c {
			s, ok := v.(string)
			if !ok {
				// inline context definitions are common and harmless
				continue
			}
			if _, ok := knownContexts[s]; !ok {
				return false
			}
		}
		return len(c) > 0
	}

	return false
}

// Present reports whether the document carries a verifiable signature:
// an @context plus a signature with a known type and a value.
func Present(raw []byte) bool {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return false
	}

	return doc.Context != nil && doc.Signature != nil && doc.Signature.Type == SignatureType && doc.Signature.SignatureValue != ""
}

func normalize(v any) ([]byte, error) {
	j, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return jcs.Transform(j)
}

// hash canonicalizes the signature options and the signed document and
// returns the digest the signature covers.
func hash(raw []byte) ([]byte, *signatureFields, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, err
	}

	rawSignature, ok := m["signature"]
	if !ok {
		return nil, nil, errors.New("document is unsigned")
	}

	var sig signatureFields
	if err := json.Unmarshal(rawSignature, &sig); err != nil {
		return nil, nil, err
	}

	options, err := normalize(map[string]any{
		"@context": securityContext,
		"creator":  sig.Creator,
		"created":  sig.Created,
	})
	if err != nil {
		return nil, nil, err
	}

	delete(m, "signature")
	doc, err := normalize(m)
	if err != nil {
		return nil, nil, err
	}

	optionsHash := sha256.Sum256(options)
	docHash := sha256.Sum256(doc)

	digest := sha256.Sum256(append(optionsHash[:], docHash[:]...))
	return digest[:], &sig, nil
}

// Verify verifies the document's embedded signature using the signing
// actor's RSA public key.
func Verify(key any, raw []byte) error {
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return fmt.Errorf("wrong key type: %T", key)
	}

	digest, sig, err := hash(raw)
	if err != nil {
		return err
	}

	if sig.Type != SignatureType {
		return errors.New("invalid signature type: " + sig.Type)
	}

	value, err := base64.StdEncoding.DecodeString(sig.SignatureValue)
	if err != nil {
		return fmt.Errorf("failed to decode signature: %w", err)
	}

	return rsa.VerifyPKCS1v15(rsaKey, crypto.SHA256, digest, value)
}

// Sign adds an embedded signature to a JSON document.
func Sign(key *rsa.PrivateKey, creator string, now time.Time, raw []byte) ([]byte, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}

	sig := map[string]any{
		"type":    SignatureType,
		"creator": creator,
		"created": now.UTC().Format(time.RFC3339),
	}
	m["signature"] = sig

	body, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}

	digest, _, err := hash(body)
	if err != nil {
		return nil, err
	}

	value, err := rsa.SignPKCS1v15(nil, key, crypto.SHA256, digest)
	if err != nil {
		return nil, err
	}

	sig["signatureValue"] = base64.StdEncoding.EncodeToString(value)
	return json.Marshal(m)
}
