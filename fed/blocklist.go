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

// Package fed talks to other servers: blocklists and remote key resolution.
package fed

import (
	"encoding/csv"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// BlockList is a list of blocked domains and blocked accounts
// (nickname@domain), reloaded when the backing file changes.
type BlockList struct {
	lock    sync.Mutex
	wg      sync.WaitGroup
	w       *fsnotify.Watcher
	domains map[string]struct{}
	handles map[string]struct{}
}

const blockListReloadDelay = time.Second * 5

func loadBlockList(path string) (map[string]struct{}, map[string]struct{}, error) {
	blockedDomains := make(map[string]struct{})
	blockedHandles := make(map[string]struct{})

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	c := csv.NewReader(f)
	c.FieldsPerRecord = -1
	first := true
	for {
		r, err := c.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}

		if first {
			first = false
			continue
		}

		if len(r) == 0 || r[0] == "" {
			continue
		}

		if strings.Contains(r[0], "@") {
			blockedHandles[r[0]] = struct{}{}
		} else {
			blockedDomains[r[0]] = struct{}{}
		}
	}

	return blockedDomains, blockedHandles, nil
}

// NewBlockList loads a blocklist file and watches it for changes.
func NewBlockList(log *slog.Logger, path string) (*BlockList, error) {
	domains, handles, err := loadBlockList(path)
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}
	absPath := filepath.Join(dir, filepath.Base(path))

	b := &BlockList{w: w, domains: domains, handles: handles}

	timer := time.NewTimer(math.MaxInt64)
	timer.Stop()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					timer.Stop()
					return
				}

				if (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) && event.Name == absPath {
					timer.Reset(blockListReloadDelay)
				}

			case <-timer.C:
				newDomains, newHandles, err := loadBlockList(path)
				if err != nil {
					log.Warn("Failed to reload blocklist", "path", path, "error", err)
					continue
				}

				// continue if the old list wasn't empty and the new one is empty; maybe the file was opened with O_TRUNC
				if len(b.domains)+len(b.handles) > 0 && len(newDomains)+len(newHandles) == 0 {
					log.Warn("New blocklist is empty")
					continue
				}

				b.lock.Lock()
				b.domains = newDomains
				b.handles = newHandles
				b.lock.Unlock()
				log.Info("Reloaded blocklist", "path", path, "domains", len(newDomains), "handles", len(newHandles))
			}
		}
	}()

	return b, nil
}

// ContainsDomain determines if a domain is blocked.
func (b *BlockList) ContainsDomain(domain string) bool {
	b.lock.Lock()
	_, contains := b.domains[domain]
	b.lock.Unlock()
	return contains
}

// ContainsHandle determines if an account is blocked, either by itself or
// through its whole domain.
func (b *BlockList) ContainsHandle(handle string) bool {
	b.lock.Lock()
	defer b.lock.Unlock()

	if _, contains := b.handles[handle]; contains {
		return true
	}

	if _, domain, ok := strings.Cut(handle, "@"); ok {
		_, contains := b.domains[domain]
		return contains
	}

	return false
}

// Close stops watching the blocklist file.
func (b *BlockList) Close() {
	b.w.Close()
	b.wg.Wait()
}
