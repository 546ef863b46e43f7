package domain

import "testing"

func TestEventRecordID_Canonical(t *testing.T) {
	t.Parallel()

	id := EventRecordID("0xABCDef", 12)
	if id != "0xabcdef-12" {
		t.Fatalf("expected lowercased id, got %s", id)
	}

	// the same event must always map to the same id regardless of hash case
	if EventRecordID("0xabcdef", 12) != id {
		t.Fatalf("hash case must not change the id")
	}
}

func TestParseEventRecordID_Roundtrip(t *testing.T) {
	t.Parallel()

	id := EventRecordID("0xDEAD", 4294967295)

	parsed, err := ParseEventRecordID(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.TxHash != "0xdead" {
		t.Fatalf("expected tx hash 0xdead, got %s", parsed.TxHash)
	}
	if parsed.LogIndex != 4294967295 {
		t.Fatalf("expected log index 4294967295, got %d", parsed.LogIndex)
	}
}

func TestParseEventRecordID_Invalid(t *testing.T) {
	t.Parallel()

	for _, id := range []string{
		"",
		"0xabc",
		"0xabc-",
		"-5",
		"0xabc-notanumber",
		"0xabc-18446744073709551616", // beyond uint32
	} {
		if _, err := ParseEventRecordID(id); err == nil {
			t.Fatalf("expected error for %q", id)
		}
	}
}
