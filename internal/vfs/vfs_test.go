package vfs

import (
	"errors"
	"testing"
)

func TestMemFSReadAndStat(t *testing.T) {
	m := NewMemFS()
	m.AddFile("/proj/src/a.cpp", "int x;")

	data, err := m.ReadFile("/proj/src/a.cpp")
	if err != nil || string(data) != "int x;" {
		t.Fatalf("ReadFile = %q, %v", data, err)
	}
	st, err := m.Stat("/proj/src")
	if err != nil || !st.IsDir {
		t.Fatalf("implied directory not reported: %+v %v", st, err)
	}
	if _, err := m.Stat("/proj/missing.h"); !errors.Is(err, ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestMemFSChdirRelative(t *testing.T) {
	m := NewMemFS()
	m.AddFile("/proj/inc/b.h", "")
	if err := m.Chdir("/proj"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Stat("inc/b.h"); err != nil {
		t.Fatalf("relative stat failed: %v", err)
	}
	if err := m.Chdir("/nowhere"); err == nil {
		t.Fatal("chdir into missing directory must fail")
	}
	wd, _ := m.Getwd()
	if wd != "/proj" {
		t.Fatalf("cwd changed after failed chdir: %q", wd)
	}
}

func TestOverlayShadowsBase(t *testing.T) {
	m := NewMemFS()
	m.AddFile("/a.cpp", "disk")
	o := NewOverlayFS(m)
	o.Set("/a.cpp", []byte("editor"))
	data, _ := o.ReadFile("/a.cpp")
	if string(data) != "editor" {
		t.Fatalf("overlay not served: %q", data)
	}
	o.Delete("/a.cpp")
	data, _ = o.ReadFile("/a.cpp")
	if string(data) != "disk" {
		t.Fatalf("base not served after delete: %q", data)
	}
}

func TestFileManagerCachesReads(t *testing.T) {
	m := NewMemFS()
	m.AddFile("/x/y.h", "#pragma once\n")
	fm := NewFileManager(m)

	e, err := fm.GetFile("/x/y.h")
	if err != nil {
		t.Fatal(err)
	}
	again, _ := fm.GetFile("/x/../x/y.h")
	if again != e {
		t.Fatal("entries for the same path must be shared")
	}
	for i := 0; i < 3; i++ {
		if _, err := fm.GetBuffer(e); err != nil {
			t.Fatal(err)
		}
	}
	if m.Reads() != 1 {
		t.Fatalf("reads = %d, want 1", m.Reads())
	}
	if _, err := fm.GetFile("/x"); err == nil {
		t.Fatal("directory resolved as file")
	}
	if fm.MemoryUsage() == 0 {
		t.Fatal("memory usage not reported")
	}
}

func TestStatCacheProduceConsume(t *testing.T) {
	m := NewMemFS()
	m.AddFile("/inc/a.h", "abc")
	cache := NewStatCache(0)

	prod := ProducingFS(m, cache, "")
	if _, err := prod.Stat("/inc/a.h"); err != nil {
		t.Fatal(err)
	}
	if _, err := prod.Stat("/inc/none.h"); err == nil {
		t.Fatal("expected failure")
	}
	if cache.Len() != 1 {
		t.Fatalf("cache len = %d, want 1", cache.Len())
	}

	// файл удалён, но потребитель всё ещё видит закэшированный stat
	m.Remove("/inc/a.h")
	cons := ConsumingFS(m, cache)
	st, err := cons.Stat("/inc/a.h")
	if err != nil || st.Size != 3 {
		t.Fatalf("cached stat = %+v, %v", st, err)
	}
	if _, err := cons.Stat("/inc/other.h"); err == nil {
		t.Fatal("uncached miss must reach the base")
	}
	if cache.Len() != 1 {
		t.Fatal("consuming wrapper must not write to the cache")
	}
}

func TestStatCacheSkipsMainFile(t *testing.T) {
	m := NewMemFS()
	m.AddFile("/w/main.c", "int x;")
	m.AddFile("/w/a.h", "")
	cache := NewStatCache(0)
	prod := ProducingFS(m, cache, "/w/./main.c")
	for _, name := range []string{"/w/main.c", "/w/a.h"} {
		if _, err := prod.Stat(name); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := prod.ReadFile("/w/main.c"); err != nil {
		t.Fatal(err)
	}
	if _, ok := cache.Lookup("/w/main.c"); ok {
		t.Fatal("main file recorded in stat cache")
	}
	if _, ok := cache.Lookup("/w/a.h"); !ok {
		t.Fatal("header not recorded")
	}
}

func TestConsumingNilCacheIsBase(t *testing.T) {
	m := NewMemFS()
	if ConsumingFS(m, nil) != FileSystem(m) {
		t.Fatal("nil cache should return base unchanged")
	}
}
