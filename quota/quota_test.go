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

package quota

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckAndRecord_ExactlyNAccepted(t *testing.T) {
	s := NewState(time.Date(2026, time.August, 31, 10, 0, 0, 0, time.UTC))

	// per-minute ceiling for a daily limit of 7200 is 5
	for i := range 5 {
		assert.False(t, s.CheckAndRecord("b.example", "bob@b.example", 7200, 0), "post %d should be accepted", i)
	}

	assert.True(t, s.CheckAndRecord("b.example", "bob@b.example", 7200, 0))
	assert.True(t, s.CheckAndRecord("b.example", "bob@b.example", 7200, 0))
	assert.Equal(t, 5, s.Daily.Domains["b.example"])
}

func TestCheckAndRecord_AccountQuotaIndependentOfDomain(t *testing.T) {
	s := NewState(time.Date(2026, time.August, 31, 10, 0, 0, 0, time.UTC))

	for i := range 5 {
		assert.False(t, s.CheckAndRecord("b.example", fmt.Sprintf("user%d@b.example", i), 0, 7200))
	}

	// sixth account on the same domain is unaffected without a domain quota
	assert.False(t, s.CheckAndRecord("b.example", "user5@b.example", 0, 7200))

	// but a single account is capped
	for range 4 {
		s.CheckAndRecord("b.example", "flood@b.example", 0, 7200)
	}
	assert.True(t, s.CheckAndRecord("b.example", "flood@b.example", 0, 7200))
}

func TestCheckAndRecord_ZeroLimitDisablesQuota(t *testing.T) {
	s := NewState(time.Date(2026, time.August, 31, 10, 0, 0, 0, time.UTC))

	for range 100 {
		assert.False(t, s.CheckAndRecord("b.example", "bob@b.example", 0, 0))
	}
}

func TestRefresh_MinuteBoundary(t *testing.T) {
	now := time.Date(2026, time.August, 31, 10, 0, 30, 0, time.UTC)
	s := NewState(now)

	for range 5 {
		s.CheckAndRecord("b.example", "", 7200, 0)
	}
	assert.True(t, s.CheckAndRecord("b.example", "", 7200, 0))

	s.Refresh(now.Add(time.Minute))
	assert.False(t, s.CheckAndRecord("b.example", "", 7200, 0))
	assert.Equal(t, 6, s.Daily.Domains["b.example"])
}

func TestRefresh_DayBoundary(t *testing.T) {
	now := time.Date(2026, time.August, 31, 23, 59, 0, 0, time.UTC)
	s := NewState(now)

	s.CheckAndRecord("b.example", "bob@b.example", 7200, 7200)
	assert.Equal(t, 1, s.Daily.Domains["b.example"])

	s.Refresh(now.Add(2 * time.Minute))
	assert.Equal(t, 0, s.Daily.Domains["b.example"])
	assert.Equal(t, 0, s.PerMinute.Domains["b.example"])
}

func TestPerMinuteCeiling_LargeDailyLimit(t *testing.T) {
	assert.Equal(t, 10, perMinuteCeiling(14400))
	assert.Equal(t, 5, perMinuteCeiling(100))
}
