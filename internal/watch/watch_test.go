package watch

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestEventsAreDebounced(t *testing.T) {
	got := make(chan []string, 4)
	w, err := New(20*time.Millisecond, func(changed []string) { got <- changed })
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	dir := t.TempDir()
	a, b := filepath.ToSlash(filepath.Join(dir, "a.h")), filepath.ToSlash(filepath.Join(dir, "b.h"))
	w.WatchFiles(a, b, a)
	if w.Watched() != 2 {
		t.Fatalf("watched = %d", w.Watched())
	}

	// события по одному файлу и по чужому
	w.handleEvent(fsnotify.Event{Name: b, Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: a, Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: a, Op: fsnotify.Chmod})
	w.handleEvent(fsnotify.Event{Name: filepath.Join(dir, "other.h"), Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: b, Op: fsnotify.Remove})

	select {
	case changed := <-got:
		if !reflect.DeepEqual(changed, []string{a, b}) {
			t.Fatalf("changed = %v", changed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no notification")
	}
	select {
	case extra := <-got:
		t.Fatalf("second notification %v", extra)
	case <-time.After(60 * time.Millisecond):
	}
}

func TestRunReportsFileWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.h")
	if err := os.WriteFile(path, []byte("#define A 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got := make(chan []string, 4)
	w, err := New(10*time.Millisecond, func(changed []string) { got <- changed })
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	w.WatchFiles(path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	if err := os.WriteFile(path, []byte("#define A 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case changed := <-got:
		if len(changed) != 1 || changed[0] != filepath.ToSlash(path) {
			t.Fatalf("changed = %v", changed)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("write not reported")
	}
}

func TestClosedWatcherIgnoresEvents(t *testing.T) {
	called := false
	w, err := New(time.Millisecond, func([]string) { called = true })
	if err != nil {
		t.Fatal(err)
	}
	w.WatchFiles("/nonexistent/dir/x.h")
	_ = w.Close()
	w.handleEvent(fsnotify.Event{Name: "/nonexistent/dir/x.h", Op: fsnotify.Write})
	time.Sleep(10 * time.Millisecond)
	if called {
		t.Fatal("handler called after Close")
	}
}
