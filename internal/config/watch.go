// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle absorbs the burst of events editors produce for one save.
const settle = 100 * time.Millisecond

// Watch calls onChange with the reloaded configuration whenever the file at
// p is written, created or replaced, until ctx is done. Files that fail to
// load or validate are reported to onError and otherwise ignored.
//
// The directory is watched rather than the file so that atomic renames are
// seen.
func Watch(ctx context.Context, p string, onChange func(Config), onError func(error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(p)); err != nil {
		_ = w.Close()
		return err
	}
	go watchLoop(ctx, w, filepath.Clean(p), onChange, onError)
	return nil
}

func watchLoop(ctx context.Context, w *fsnotify.Watcher, p string, onChange func(Config), onError func(error)) {
	defer w.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != p {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(settle)
			} else {
				timer.Reset(settle)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			c, err := LoadFile(p)
			if err == nil {
				err = c.Validate()
			}
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			onChange(c)

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			if onError != nil {
				onError(err)
			}
		}
	}
}
