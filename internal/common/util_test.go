package common

import (
	"encoding/hex"
	"errors"
	"testing"
)

// ---------- MakeRandHexString ----------

func TestMakeRandHexString_LengthAndHex(t *testing.T) {
	const n = 16
	s, err := MakeRandHexString(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s) != n*2 {
		t.Fatalf("expected hex length %d, got %d", n*2, len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		t.Fatalf("string is not valid hex: %v", err)
	}
}

func TestMakeRandHexString_ZeroSize(t *testing.T) {
	s, err := MakeRandHexString(0)
	if err != nil {
		t.Fatalf("unexpected error for size=0: %v", err)
	}
	if s != "" {
		t.Fatalf("expected empty string for size=0, got %q", s)
	}
}

func TestMakeRandHexString_EntropyHint(t *testing.T) {
	const n = 32
	a, err := MakeRandHexString(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := MakeRandHexString(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a == b {
		t.Logf("warning: two MakeRandHexString(%d) results are identical; extremely unlikely", n)
	}
}

// ---------- WipeByteArray ----------

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("expected buf[%d]==0, got %d", i, v)
		}
	}
}

func TestWipeByteArray_NilSafe(t *testing.T) {
	WipeByteArray(nil)
}

// ---------- GenerateDigits ----------

func TestGenerateDigits_LengthAndAlphabet(t *testing.T) {
	for i := 0; i < 50; i++ {
		s, err := GenerateDigits(UniqueKeyLength)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !IsDigits(s, UniqueKeyLength) {
			t.Fatalf("expected %d digits, got %q", UniqueKeyLength, s)
		}
	}
}

func TestGenerateDigits_EveryDigitShowsUp(t *testing.T) {
	seen := map[byte]bool{}
	for i := 0; i < 200 && len(seen) < 10; i++ {
		s, err := GenerateDigits(10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for j := 0; j < len(s); j++ {
			seen[s[j]] = true
		}
	}
	if len(seen) != 10 {
		t.Fatalf("expected all ten digits after 2000 draws, saw %d", len(seen))
	}
}

func TestIsDigits(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want bool
	}{
		{"1111111111", 10, true},
		{"111111111", 10, false},
		{"11111a1111", 10, false},
		{"", 0, true},
		{"１１", 2, false},
	}
	for _, c := range cases {
		if got := IsDigits(c.in, c.n); got != c.want {
			t.Fatalf("IsDigits(%q, %d) = %v, want %v", c.in, c.n, got, c.want)
		}
	}
}

// ---------- StoreError ----------

func TestStoreError_WrapsBoth(t *testing.T) {
	cause := errors.New("conn refused")
	err := StoreError(cause)
	if !errors.Is(err, ErrStoreUnavailable) || !errors.Is(err, cause) {
		t.Fatalf("expected both sentinels reachable, got %v", err)
	}
	if StoreError(nil) != nil {
		t.Fatalf("StoreError(nil) must be nil")
	}
}

func TestConnectionSentinels_Hierarchy(t *testing.T) {
	if !errors.Is(ErrPeerAlreadyConnected, ErrAlreadyConnected) {
		t.Fatal("peer variant must match ErrAlreadyConnected")
	}
	if !errors.Is(ErrSelfRequest, ErrInvalidInput) {
		t.Fatal("self request must match ErrInvalidInput")
	}
}

// ---------- GenerateRandByteArray ----------

func TestGenerateRandByteArray_Basic(t *testing.T) {
	const n = 24
	buf := GenerateRandByteArray(n)
	if buf == nil {
		t.Fatalf("expected non-nil slice")
	}
	if len(buf) != n {
		t.Fatalf("expected length %d, got %d", n, len(buf))
	}
}

func TestGenerateRandByteArray_EntropyHint(t *testing.T) {
	const n = 32
	a := GenerateRandByteArray(n)
	b := GenerateRandByteArray(n)

	if len(a) != n || len(b) != n {
		t.Fatalf("unexpected lengths: %d, %d", len(a), len(b))
	}

	identical := true
	for i := range a {
		if a[i] != b[i] {
			identical = false
			break
		}
	}
	if identical {
		t.Logf("warning: two GenerateRandByteArray(%d) results are identical; extremely unlikely", n)
	}
}
