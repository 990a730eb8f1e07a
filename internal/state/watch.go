package state

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/SoarinFerret/FocusWarden/internal/session"
)

// Handlers receive out-of-process changes to the store. Nil handlers are
// skipped.
type Handlers struct {
	Settings  func(session.Settings)
	BlockList func([]string)
}

// Watch observes the state directory and calls the matching handler when
// another process rewrites a key. Writes made through this Manager are
// suppressed. Watch blocks until ctx is cancelled.
func (m *Manager) Watch(ctx context.Context, h Handlers, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(m.dir); err != nil {
		return fmt.Errorf("watch %s: %w", m.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			m.dispatch(filepath.Base(event.Name), h, logger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("state watcher error", "err", err)
		}
	}
}

func (m *Manager) dispatch(base string, h Handlers, logger *slog.Logger) {
	switch base {
	case KeySettings.fileName():
		if h.Settings == nil {
			return
		}
		data, err := m.read(KeySettings)
		if err != nil || data == nil || m.isOwnWrite(KeySettings, data) {
			return
		}
		s, err := session.DecodeSettings(data)
		if err != nil {
			// Likely a partial write from a non-atomic writer; the next
			// event carries the full file.
			logger.Debug("ignoring unreadable settings change", "err", err)
			return
		}
		logger.Info("settings changed externally")
		h.Settings(s)

	case KeyBlockList.fileName():
		if h.BlockList == nil {
			return
		}
		data, err := m.read(KeyBlockList)
		if err != nil || data == nil || m.isOwnWrite(KeyBlockList, data) {
			return
		}
		list, err := decodeBlockList(data)
		if err != nil {
			logger.Debug("ignoring unreadable blocklist change", "err", err)
			return
		}
		logger.Info("blocklist changed externally", "domains", len(list))
		h.BlockList(list)
	}
}
