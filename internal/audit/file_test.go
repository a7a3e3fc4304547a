package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFileSinkChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	sink, err := OpenFileSink(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := sink.Write(&Entry{ID: "e", Timestamp: time.Now().UTC(), Name: "event"}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	sink.Close()

	res := VerifyFile(path)
	if !res.Valid {
		t.Fatalf("expected valid chain: %+v", res)
	}
	if res.Lines != 3 {
		t.Errorf("expected 3 lines, got %d", res.Lines)
	}
}

func TestFileSinkRecoversChainTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	sink, err := OpenFileSink(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sink.Write(&Entry{ID: "1", Timestamp: time.Now().UTC(), Name: "first"})
	sink.Close()

	// Reopen and append: the chain must continue, not restart at genesis.
	sink, err = OpenFileSink(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	sink.Write(&Entry{ID: "2", Timestamp: time.Now().UTC(), Name: "second"})
	sink.Close()

	res := VerifyFile(path)
	if !res.Valid {
		t.Fatalf("expected valid chain after reopen: %+v", res)
	}
	if res.Lines != 2 {
		t.Errorf("expected 2 lines, got %d", res.Lines)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	sink, _ := OpenFileSink(path)
	sink.Write(&Entry{ID: "1", Timestamp: time.Now().UTC(), Name: "keep"})
	sink.Write(&Entry{ID: "2", Timestamp: time.Now().UTC(), Name: "tamper-me"})
	sink.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	tampered := strings.Replace(string(data), "keep", "oops", 1)
	if err := os.WriteFile(path, []byte(tampered), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	res := VerifyFile(path)
	if res.Valid {
		t.Fatal("expected tampered chain to fail verification")
	}
	if res.ErrorLine != 2 {
		t.Errorf("expected break at line 2, got %d", res.ErrorLine)
	}
}

func TestVerifyMissingFile(t *testing.T) {
	res := VerifyFile(filepath.Join(t.TempDir(), "nope.jsonl"))
	if res.Valid {
		t.Error("missing file must not verify")
	}
}
