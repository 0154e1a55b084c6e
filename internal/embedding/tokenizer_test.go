package embedding

import (
	"testing"
)

func TestSimpleTokenizer_Tokenize(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, attn, types := tok.Tokenize("hello world", 10)
	if len(ids) != 10 || len(attn) != 10 || len(types) != 10 {
		t.Fatalf("lengths: %d %d %d", len(ids), len(attn), len(types))
	}
	if ids[0] != 101 {
		t.Errorf("expected CLS 101, got %d", ids[0])
	}
	if attn[0] != 1 {
		t.Error("attention[0] should be 1")
	}
	// Two words, then SEP at position 3
	if ids[3] != 102 {
		t.Errorf("expected SEP 102 at position 3, got %d", ids[3])
	}
}

func TestSimpleTokenizer_truncatesLongText(t *testing.T) {
	tok := &SimpleTokenizer{}
	long := ""
	for i := 0; i < 100; i++ {
		long += "word "
	}
	ids, attn, _ := tok.Tokenize(long, 8)
	if len(ids) != 8 {
		t.Fatalf("len(ids)=%d", len(ids))
	}
	// Attention covers CLS + words up to the cap
	for i := 0; i < 7; i++ {
		if attn[i] != 1 {
			t.Errorf("attention[%d] should be 1", i)
		}
	}
}

func TestSplitWords(t *testing.T) {
	words := SplitWords("  a  b\tc\nd  ")
	if len(words) != 4 {
		t.Errorf("expected 4 words, got %v", words)
	}
	if SplitWords("") != nil {
		t.Error("empty string should return nil")
	}
}

func TestHashString(t *testing.T) {
	h := HashString("abc")
	if h == 0 {
		t.Error("hash should be non-zero")
	}
	if HashString("abc") != HashString("abc") {
		t.Error("hash should be deterministic")
	}
	if HashString("abc") == HashString("abd") {
		t.Error("different strings should get different hashes")
	}
	if HashString("ééééééé") < 0 {
		t.Error("hash should never be negative")
	}
}
