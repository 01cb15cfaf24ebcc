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

// Package cfg defines the quince configuration file format and defaults.
package cfg

import "time"

// Config represents a quince configuration file.
type Config struct {
	// quotas on incoming posts, 0 disables the quota
	DomainQuotaDaily  int
	AccountQuotaDaily int

	// signature policy
	VerifyAllSignatures bool
	MaxSignatureAge     time.Duration

	// remote public key resolution
	KeyFetchAttempts      int
	KeyFetchDelay         time.Duration
	SessionRotateInterval time.Duration
	AnnounceFetchAttempts int

	// queue consumer loop
	QueuePollInterval   time.Duration
	QueueRescanInterval time.Duration
	HeartbeatEvery      int

	// recipient resolution
	FollowersCeiling int
	MaxRecipients    int

	// content validation
	MaxMentions            int
	MaxEmoji               int
	MaxURLLength           int
	PublishedWindow        time.Duration
	MaxContentWarningRunes int

	// deletes
	AllowDeletion bool

	// DM policy
	BounceInterval time.Duration

	// last-seen bookkeeping
	LastSeenInterval time.Duration

	// onion/i2p aliases of this instance, rewritten to the canonical domain
	OnionDomain string
	I2PDomain   string

	LogLevel string
}

// FillDefaults replaces missing or invalid settings with defaults.
func (c *Config) FillDefaults() {
	if c.DomainQuotaDaily < 0 {
		c.DomainQuotaDaily = 0
	}

	if c.AccountQuotaDaily < 0 {
		c.AccountQuotaDaily = 0
	}

	if c.MaxSignatureAge <= 0 {
		c.MaxSignatureAge = time.Minute * 5
	}

	if c.KeyFetchAttempts <= 0 {
		c.KeyFetchAttempts = 8
	}

	if c.KeyFetchDelay <= 0 {
		c.KeyFetchDelay = time.Second
	}

	if c.SessionRotateInterval <= 0 {
		c.SessionRotateInterval = time.Hour * 6
	}

	if c.AnnounceFetchAttempts <= 0 {
		c.AnnounceFetchAttempts = 6
	}

	if c.QueuePollInterval <= 0 {
		c.QueuePollInterval = time.Second
	}

	if c.QueueRescanInterval <= 0 {
		c.QueueRescanInterval = time.Second * 10
	}

	if c.HeartbeatEvery <= 0 {
		c.HeartbeatEvery = 10
	}

	if c.FollowersCeiling <= 0 {
		c.FollowersCeiling = 100000
	}

	if c.MaxRecipients <= 0 {
		c.MaxRecipients = 20
	}

	if c.MaxMentions <= 0 {
		c.MaxMentions = 10
	}

	if c.MaxEmoji <= 0 {
		c.MaxEmoji = 10
	}

	if c.MaxURLLength <= 0 {
		c.MaxURLLength = 2048
	}

	if c.PublishedWindow <= 0 {
		c.PublishedWindow = time.Hour * 24 * 90
	}

	if c.MaxContentWarningRunes <= 0 {
		c.MaxContentWarningRunes = 128
	}

	if c.BounceInterval <= 0 {
		c.BounceInterval = time.Minute
	}

	if c.LastSeenInterval <= 0 {
		c.LastSeenInterval = time.Hour * 24
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
