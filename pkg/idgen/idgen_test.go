package idgen

import (
	"strings"
	"testing"
	"time"
)

func TestGeneratePasswordShape(t *testing.T) {
	for i := 0; i < 200; i++ {
		pw, err := GeneratePassword()
		if err != nil {
			t.Fatalf("GeneratePassword: %v", err)
		}
		if len(pw) != PasswordLength {
			t.Fatalf("len(%q) = %d, want %d", pw, len(pw), PasswordLength)
		}
		for _, c := range pw {
			if !strings.ContainsRune(PasswordAlphabet, c) {
				t.Fatalf("password %q contains %q outside the alphabet", pw, c)
			}
		}
	}
}

func TestGeneratePasswordCoversAlphabet(t *testing.T) {
	seen := make(map[byte]bool)
	for i := 0; i < 2000; i++ {
		pw, err := generateFrom(16)
		if err != nil {
			t.Fatal(err)
		}
		for j := 0; j < len(pw); j++ {
			seen[pw[j]] = true
		}
	}
	if len(seen) != len(PasswordAlphabet) {
		t.Fatalf("saw %d distinct symbols, want %d", len(seen), len(PasswordAlphabet))
	}
}

func TestNodeIsMonotonicAndUnique(t *testing.T) {
	node, err := NewNode(3)
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[int64]bool)
	var last int64
	for i := 0; i < 10000; i++ {
		id := node.Generate()
		if id.Int64() <= last {
			t.Fatalf("id %d not greater than previous %d", id, last)
		}
		if seen[id.Int64()] {
			t.Fatalf("duplicate id %d", id)
		}
		if id.Node() != 3 {
			t.Fatalf("node bits = %d, want 3", id.Node())
		}
		seen[id.Int64()] = true
		last = id.Int64()
	}
}

func TestNodeUsesServiceEpoch(t *testing.T) {
	node, err := NewNode(1)
	if err != nil {
		t.Fatal(err)
	}
	drift := time.Now().UnixMilli() - node.Generate().Time()
	if drift < 0 || drift > 1000 {
		t.Fatalf("id timestamp drifts %dms from now", drift)
	}
}

func TestNewNodeRejectsWorkerID(t *testing.T) {
	if _, err := NewNode(1024); err == nil {
		t.Fatal("expected error for worker id out of range")
	}
	if _, err := NewNode(-1); err == nil {
		t.Fatal("expected error for negative worker id")
	}
}

func TestTransactionNoUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		no := GenerateTransactionNo()
		if !strings.HasPrefix(no, "TXN") {
			t.Fatalf("unexpected prefix: %s", no)
		}
		if seen[no] {
			t.Fatalf("duplicate transaction no %s", no)
		}
		seen[no] = true
	}
}
