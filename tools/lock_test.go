package tools

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func useTempDataDir(t *testing.T) {
	t.Helper()
	oldDataDir := dataDir
	dataDir = t.TempDir()
	t.Cleanup(func() { dataDir = oldDataDir })

	if err := os.MkdirAll(filepath.Join(dataDir, "search"), 0755); err != nil {
		t.Fatalf("Failed to create search dir: %v", err)
	}
}

func TestLockMechanism(t *testing.T) {
	useTempDataDir(t)
	lockPath := filepath.Join(dataDir, lockFile)

	t.Run("acquire and release lock", func(t *testing.T) {
		os.Remove(lockPath)

		if err := acquireLock(); err != nil {
			t.Fatalf("Failed to acquire lock: %v", err)
		}

		data, err := os.ReadFile(lockPath)
		if err != nil {
			t.Fatalf("Lock file not found: %v", err)
		}
		pid, err := strconv.Atoi(string(data))
		if err != nil {
			t.Fatalf("Invalid PID in lock file: %v", err)
		}
		if pid != os.Getpid() {
			t.Errorf("Lock has wrong PID: got %d, want %d", pid, os.Getpid())
		}

		if err := releaseLock(); err != nil {
			t.Fatalf("Failed to release lock: %v", err)
		}
		if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
			t.Error("Lock file should be removed after release")
		}
	})

	t.Run("stale lock is cleaned", func(t *testing.T) {
		os.Remove(lockPath)

		// PID that cannot be a live process.
		if err := os.WriteFile(lockPath, []byte("99999999"), 0644); err != nil {
			t.Fatalf("Failed to create stale lock: %v", err)
		}

		if err := acquireLock(); err != nil {
			t.Fatalf("Failed to acquire lock after stale lock: %v", err)
		}

		data, _ := os.ReadFile(lockPath)
		pid, _ := strconv.Atoi(string(data))
		if pid != os.Getpid() {
			t.Errorf("Expected our PID after cleaning stale lock, got %d", pid)
		}
		releaseLock()
	})

	t.Run("corrupted lock is cleaned", func(t *testing.T) {
		os.Remove(lockPath)

		if err := os.WriteFile(lockPath, []byte("not-a-pid"), 0644); err != nil {
			t.Fatal(err)
		}

		if err := acquireLock(); err != nil {
			t.Fatalf("Failed to acquire lock over corrupted lock file: %v", err)
		}
		releaseLock()
	})

	t.Run("reacquire own lock", func(t *testing.T) {
		os.Remove(lockPath)

		if err := acquireLock(); err != nil {
			t.Fatalf("Failed to acquire lock: %v", err)
		}
		if err := acquireLock(); err != nil {
			t.Errorf("Re-acquiring our own lock should succeed: %v", err)
		}
		releaseLock()
	})

	t.Run("release does not steal foreign lock", func(t *testing.T) {
		os.Remove(lockPath)

		otherPID := os.Getpid() + 1
		if err := os.WriteFile(lockPath, []byte(strconv.Itoa(otherPID)), 0644); err != nil {
			t.Fatal(err)
		}

		if err := releaseLock(); err != nil {
			t.Fatalf("releaseLock() error = %v", err)
		}
		if _, err := os.Stat(lockPath); err != nil {
			t.Error("Lock file owned by another process must survive our release")
		}
		os.Remove(lockPath)
	})
}
