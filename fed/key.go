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
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"github.com/quincefed/quince/ap"
)

// ParseMultiBaseKey decodes a multibase-encoded Ed25519 public key.
func ParseMultiBaseKey(mb string) (ed25519.PublicKey, error) {
	if len(mb) == 0 {
		return nil, errors.New("key is empty")
	}

	if mb[0] != 'z' {
		return nil, fmt.Errorf("invalid prefix: %c", mb[0])
	}

	rawKey := base58.Decode(mb[1:])

	if len(rawKey) != ed25519.PublicKeySize+2 {
		return nil, fmt.Errorf("invalid key length: %d", len(rawKey))
	}

	if rawKey[0] != 0xed || rawKey[1] != 0x01 {
		return nil, fmt.Errorf("invalid prefix: %x%x", rawKey[0], rawKey[1])
	}

	return ed25519.PublicKey(rawKey[2:]), nil
}

// PublicKeyOf extracts and parses an actor's public key, which must be owned
// by the actor itself. The key ID must match, preventing an actor from
// presenting another actor's key as its own.
func PublicKeyOf(actor *ap.Actor, keyID string) (any, error) {
	if actor.PublicKey.ID != keyID {
		return nil, fmt.Errorf("key %s does not belong to %s", keyID, actor.ID)
	}

	if actor.PublicKey.Owner != "" && actor.PublicKey.Owner != actor.ID {
		return nil, fmt.Errorf("key %s is owned by %s, not %s", keyID, actor.PublicKey.Owner, actor.ID)
	}

	if actor.PublicKey.PublicKeyMultibase != "" {
		return ParseMultiBaseKey(actor.PublicKey.PublicKeyMultibase)
	}

	if actor.PublicKey.PublicKeyPem == "" {
		return nil, fmt.Errorf("actor %s has no public key", actor.ID)
	}

	block, _ := pem.Decode([]byte(actor.PublicKey.PublicKeyPem))
	if block == nil {
		return nil, fmt.Errorf("invalid PEM in key %s", keyID)
	}

	publicKey, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		publicKey, err = x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse key %s: %w", keyID, err)
		}
	}

	return publicKey, nil
}
