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

// Package quota bounds how many posts are accepted per sending domain and
// per sending account, to mitigate spam and floods.
package quota

import (
	"time"
)

// counters tracks post counts per sending domain and per sending account
// within one time window.
type counters struct {
	Domains  map[string]int
	Accounts map[string]int
}

func newCounters() counters {
	return counters{
		Domains:  map[string]int{},
		Accounts: map[string]int{},
	}
}

// State holds the in-memory quota counters. Counters are reset wholesale on
// a day or minute boundary and rebuilt from zero on restart; quota history
// is deliberately not persisted.
type State struct {
	Daily     counters
	PerMinute counters

	dayStart    time.Time
	minuteStart time.Time
}

// NewState returns a fresh quota state anchored at now.
func NewState(now time.Time) *State {
	return &State{
		Daily:       newCounters(),
		PerMinute:   newCounters(),
		dayStart:    now.Truncate(time.Hour * 24),
		minuteStart: now.Truncate(time.Minute),
	}
}

// Refresh clears any counters whose time window has lapsed.
func (s *State) Refresh(now time.Time) {
	if day := now.Truncate(time.Hour * 24); day.After(s.dayStart) {
		s.Daily = newCounters()
		s.dayStart = day
	}

	if minute := now.Truncate(time.Minute); minute.After(s.minuteStart) {
		s.PerMinute = newCounters()
		s.minuteStart = minute
	}
}

// perMinuteCeiling derives a burst ceiling from a daily limit, smoothing
// bursty arrival even when the daily budget isn't yet exhausted.
func perMinuteCeiling(dailyLimit int) int {
	return max(5, dailyLimit/1440)
}

// CheckAndRecord checks the sender's domain and account against their
// quotas and, if neither is exhausted, records the post. The check runs
// before the increment so counts stay bounded exactly at the ceiling.
// Returns true if a quota is exceeded.
func (s *State) CheckAndRecord(domain, account string, domainLimit, accountLimit int) bool {
	if domainLimit > 0 && domain != "" {
		if s.Daily.Domains[domain] >= domainLimit {
			return true
		}
		if s.PerMinute.Domains[domain] >= perMinuteCeiling(domainLimit) {
			return true
		}
	}

	if accountLimit > 0 && account != "" {
		if s.Daily.Accounts[account] >= accountLimit {
			return true
		}
		if s.PerMinute.Accounts[account] >= perMinuteCeiling(accountLimit) {
			return true
		}
	}

	if domain != "" {
		s.Daily.Domains[domain]++
		s.PerMinute.Domains[domain]++
	}
	if account != "" {
		s.Daily.Accounts[account]++
		s.PerMinute.Accounts[account]++
	}

	return false
}
