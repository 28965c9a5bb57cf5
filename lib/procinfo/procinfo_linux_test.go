// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package procinfo

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestSystemSelf(t *testing.T) {
	inspector := System()

	path, err := inspector.ExecutablePath(os.Getpid())
	if err != nil {
		t.Fatalf("ExecutablePath(self): %v", err)
	}
	executable, err := os.Executable()
	if err != nil {
		t.Fatalf("os.Executable: %v", err)
	}
	if filepath.Base(path) != filepath.Base(executable) {
		t.Errorf("ExecutablePath(self) = %q, want basename %q", path, filepath.Base(executable))
	}

	parent, err := inspector.ParentPID(os.Getpid())
	if err != nil {
		t.Fatalf("ParentPID(self): %v", err)
	}
	if parent != os.Getppid() {
		t.Errorf("ParentPID(self) = %d, want %d", parent, os.Getppid())
	}
}

func TestSystemRejectsNonPositive(t *testing.T) {
	inspector := System()
	if _, err := inspector.ExecutablePath(0); !errors.Is(err, ErrNoProcess) {
		t.Errorf("ExecutablePath(0) error = %v, want ErrNoProcess", err)
	}
	if _, err := inspector.ParentPID(-1); !errors.Is(err, ErrNoProcess) {
		t.Errorf("ParentPID(-1) error = %v, want ErrNoProcess", err)
	}
}

func TestFabricatedProc(t *testing.T) {
	root := t.TempDir()
	saved := procRoot
	procRoot = root
	t.Cleanup(func() { procRoot = saved })

	const pid = 4242
	processDir := filepath.Join(root, strconv.Itoa(pid))
	if err := os.MkdirAll(processDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("/opt/browser/browser (deleted)", filepath.Join(processDir, "exe")); err != nil {
		t.Fatal(err)
	}
	stat := "4242 (my (odd) name) S 77 4242 4242 0 -1 4194560"
	if err := os.WriteFile(filepath.Join(processDir, "stat"), []byte(stat), 0o644); err != nil {
		t.Fatal(err)
	}

	inspector := System()
	path, err := inspector.ExecutablePath(pid)
	if err != nil {
		t.Fatalf("ExecutablePath: %v", err)
	}
	if path != "/opt/browser/browser" {
		t.Errorf("ExecutablePath = %q, want deleted suffix stripped", path)
	}
	parent, err := inspector.ParentPID(pid)
	if err != nil {
		t.Fatalf("ParentPID: %v", err)
	}
	if parent != 77 {
		t.Errorf("ParentPID = %d, want 77", parent)
	}

	if _, err := inspector.ExecutablePath(pid + 1); !errors.Is(err, ErrNoProcess) {
		t.Errorf("ExecutablePath(missing) error = %v, want ErrNoProcess", err)
	}
	if _, err := inspector.ParentPID(pid + 1); !errors.Is(err, ErrNoProcess) {
		t.Errorf("ParentPID(missing) error = %v, want ErrNoProcess", err)
	}
}

func TestParseStatParentMalformed(t *testing.T) {
	for _, stat := range []string{"", "123 no-parens S 1", "123 (x)", "123 (x) S notanumber"} {
		if _, err := parseStatParent(stat); err == nil {
			t.Errorf("parseStatParent(%q) succeeded, want error", stat)
		}
	}
}
