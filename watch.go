/*
	RegionTiles, renders block game worlds into map tiles
	Copyright (C) 2022 Maxim Zhuchkov

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.

	Contact me via mail: q3.max.2011@yandex.ru or Discord: MaX#6717
*/

package main

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const regionEventOps = fsnotify.Create | fsnotify.Write | fsnotify.Rename | fsnotify.Remove

func isRegionEvent(ev fsnotify.Event) bool {
	return filepath.Ext(ev.Name) == ".mca" && ev.Op&regionEventOps != 0
}

// debounceRegionEvents calls fire once region files stopped changing for
// delay. Events arriving while fire runs start a new wait.
func debounceRegionEvents(closechan <-chan struct{}, events <-chan fsnotify.Event, errs <-chan error, delay time.Duration, fire func()) {
	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-closechan:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !isRegionEvent(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(delay)
			} else {
				timer.Reset(delay)
			}
			timerC = timer.C
		case err, ok := <-errs:
			if !ok {
				return
			}
			log.Printf("Region watcher error: %v", err)
		case <-timerC:
			timerC = nil
			fire()
		}
	}
}

// watchRegions re-runs the renderer on region file changes until ctx is
// done. Failed runs are logged, watching goes on.
func (a *app) watchRegions(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	dir := a.paths.RegionDir()
	if err := watcher.Add(dir); err != nil {
		return err
	}
	delay := a.cfg.watchDebounce()
	log.Printf("Watching %s for region changes (debounce %s)", dir, delay)
	stop := startBackgroundRoutine("region watcher", func(closechan <-chan struct{}) {
		debounceRegionEvents(closechan, watcher.Events, watcher.Errors, delay, func() {
			if err := a.runOnce(ctx); err != nil {
				log.Printf("Run failed, waiting for further changes: %v", err)
			}
		})
	})
	<-ctx.Done()
	stop()
	return nil
}
