package catalog

import (
	"testing"
	"time"
)

func TestCursorRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := "0b7f9e4a-2f7e-4ad9-9f3e-1a2b3c4d5e6f"

	cursor := encodeCursor(now, id)
	decodedTime, decodedID, err := parseCursor(cursor)
	if err != nil {
		t.Fatalf("parseCursor returned error: %v", err)
	}
	if !decodedTime.Equal(now) {
		t.Fatalf("decoded time mismatch: got %s want %s", decodedTime, now)
	}
	if decodedID != id {
		t.Fatalf("decoded id mismatch: got %s want %s", decodedID, id)
	}
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	for _, s := range []string{"not-base64!!", "aGVsbG8", ""} {
		if _, _, err := parseCursor(s); err == nil {
			t.Fatalf("expected error for cursor %q", s)
		}
	}
}
