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

package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/quincefed/quince/cfg"
	"github.com/quincefed/quince/fed"
	"github.com/quincefed/quince/inbox"
	"github.com/quincefed/quince/outbox"
	"github.com/quincefed/quince/store"
)

var (
	domain    = flag.String("domain", "localhost", "instance domain")
	baseDir   = flag.String("dir", ".", "base directory of the account tree")
	cfgPath   = flag.String("cfg", "", "configuration file path")
	blockPath = flag.String("blocklist", "", "blocklist CSV path")
)

func main() {
	flag.Parse()

	var config cfg.Config
	if *cfgPath != "" {
		body, err := os.ReadFile(*cfgPath)
		if err != nil {
			slog.Error("Failed to read configuration file", "error", err)
			os.Exit(1)
		}
		if err := json.Unmarshal(body, &config); err != nil {
			slog.Error("Failed to parse configuration file", "error", err)
			os.Exit(1)
		}
	}
	config.FillDefaults()

	var level slog.Level
	if err := level.UnmarshalText([]byte(config.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	var blockList *fed.BlockList
	if *blockPath != "" {
		var err error
		blockList, err = fed.NewBlockList(slog.Default(), *blockPath)
		if err != nil {
			slog.Error("Failed to load blocklist", "error", err)
			os.Exit(1)
		}
		defer blockList.Close()
	}

	st := &store.Store{BaseDir: *baseDir, Domain: *domain}
	resolver := fed.NewKeyResolver(*domain, &config)

	in := &inbox.Inbox{
		Domain:     *domain,
		Config:     &config,
		Store:      st,
		BlockList:  blockList,
		Resolver:   resolver,
		Downloader: fed.NewDownloader(&config, resolver),
		Outbox:     &outbox.Outbox{Store: st},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// SIGHUP restarts the queue consumer with fresh state
	restart := make(chan struct{}, 1)
	hups := make(chan os.Signal, 1)
	signal.Notify(hups, syscall.SIGHUP)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-hups:
				select {
				case restart <- struct{}{}:
				default:
				}
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		in.Watch(ctx, restart)
	}()

	<-sigs
	slog.Info("Received termination signal")
	cancel()
	wg.Wait()
}
