// Package watcher provides real-time vault file watching with automatic
// debouncing and exclude-pattern filtering, feeding incremental reindex
// triggers into internal/index.Manager.
//
// The package implements a hybrid watching strategy:
//   - Primary: fsnotify for efficient event-based watching
//   - Fallback: Polling for environments where fsnotify fails (network mounts, Docker volumes)
//
// Events are debounced to coalesce rapid changes from note-taking apps and
// sync clients, and filtered against the vault's configured exclude
// patterns (config.PathsConfig.Exclude) to skip irrelevant files.
//
// Usage:
//
//	opts := watcher.DefaultOptions()
//	opts.IgnorePatterns = cfg.Paths.Exclude
//	w, err := watcher.NewHybridWatcher(opts)
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	if err := w.Start(ctx, vaultRoot); err != nil {
//	    return err
//	}
//
//	for batch := range w.Events() {
//	    for _, event := range batch {
//	        switch event.Operation {
//	        case watcher.OpCreate:
//	            // Handle file creation
//	        case watcher.OpModify:
//	            // Handle file modification
//	        case watcher.OpDelete:
//	            // Handle file deletion
//	        }
//	    }
//	}
package watcher
