package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tordrt/ddlgen"
)

// editors often write a file in several steps
const watchDebounce = 100 * time.Millisecond

// watchInput generates once, then again after every change to the input file
// until ctx is cancelled. Failed regenerations are logged, not returned.
func (o *options) watchInput(ctx context.Context, input string, opts ddlgen.Options) error {
	if err := o.generate(ctx, input, opts); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return asIO(fmt.Errorf("failed to start watcher: %w", err))
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			o.logger.Warn("failed to close watcher", "error", err)
		}
	}()

	// The directory is watched so that editors replacing the file by rename
	// keep triggering events.
	abs, err := filepath.Abs(input)
	if err != nil {
		return asIO(err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return asIO(fmt.Errorf("failed to watch %s: %w", input, err))
	}
	o.logger.Info("watching for changes", "input", input)

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("stopped watching", "input", input)
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			o.logger.Debug("input changed", "op", event.Op.String())
			timer.Reset(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			o.logger.Warn("watcher error", "error", err)

		case <-timer.C:
			if err := o.generate(ctx, input, opts); err != nil {
				o.logger.Error("regeneration failed", "input", input, "error", err)
				continue
			}
			o.logger.Info("regenerated", "input", input)
		}
	}
}
