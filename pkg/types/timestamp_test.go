package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimestampAcceptsBackendFormats(t *testing.T) {
	want := time.Date(2025, 3, 9, 10, 15, 30, 0, time.UTC)
	inputs := []string{
		`"2025-03-09T10:15:30Z"`,
		`"2025-03-09T19:15:30+09:00"`,
		`"2025-03-09T10:15:30"`,
		`"2025-03-09 10:15:30"`,
	}
	for _, in := range inputs {
		var ts Timestamp
		if err := json.Unmarshal([]byte(in), &ts); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		if !ts.Equal(want) {
			t.Fatalf("input %s decoded to %v", in, ts.Time)
		}
	}
}

func TestTimestampFractionAndNull(t *testing.T) {
	var ts Timestamp
	if err := json.Unmarshal([]byte(`"2025-03-09T10:15:30.123456"`), &ts); err != nil {
		t.Fatalf("unmarshal fraction: %v", err)
	}
	if ts.Nanosecond() != 123456000 {
		t.Fatalf("unexpected nanos %d", ts.Nanosecond())
	}

	var empty Timestamp
	if err := json.Unmarshal([]byte(`null`), &empty); err != nil || !empty.IsZero() {
		t.Fatalf("null should decode to zero: %v", err)
	}
	out, err := json.Marshal(empty)
	if err != nil || string(out) != "null" {
		t.Fatalf("zero should encode as null, got %s %v", out, err)
	}
}

func TestTimestampRejectsGarbage(t *testing.T) {
	var ts Timestamp
	if err := json.Unmarshal([]byte(`"yesterday"`), &ts); err == nil {
		t.Fatalf("expected error for garbage timestamp")
	}
}
