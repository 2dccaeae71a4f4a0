// Package storage provides durable file management for the album downloader.
//
// The Manager type owns the destination directory. It writes every file
// through a temp-file-plus-rename sequence so a crash can never leave a
// partially written destination file, keeps an in-memory record of
// completed files for fast duplicate detection, and sweeps orphaned
// temp files left behind by interrupted runs.
//
// Usage:
//
//	manager, err := storage.NewManager("out")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	manager.SweepTemp()
//
//	if !manager.Exists(name) {
//	    err = manager.Save(mediaReader, name)
//	}
package storage
