package payload

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/faisolarifin/custom-gateway/internal/apperr"
)

func TestCompact(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "whitespace between tokens removed",
			in:   "{\n  \"a\": 1,\n  \"b\": [1, 2, 3]\n}",
			want: `{"a":1,"b":[1,2,3]}`,
		},
		{
			name: "whitespace inside strings preserved",
			in:   `{ "msg": "hello  world\n" }`,
			want: `{"msg":"hello  world\n"}`,
		},
		{
			name: "key order preserved",
			in:   `{"z": 1, "a": 2}`,
			want: `{"z":1,"a":2}`,
		},
		{
			name: "already compact",
			in:   `{"a":1}`,
			want: `{"a":1}`,
		},
		{
			name: "scalar document",
			in:   ` "text" `,
			want: `"text"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compact(tt.in)
			if err != nil {
				t.Fatalf("Compact failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Compact(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCompact_InvalidJSON(t *testing.T) {
	_, err := Compact(`{"bad":`)
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if kind := apperr.KindOf(err); kind != apperr.KindPayloadConversion {
		t.Errorf("error kind = %v, want PayloadConversion", kind)
	}
}

func TestCompact_RoundTrip(t *testing.T) {
	in := "{\n\t\"nested\": {\"arr\": [true, null, 1.5]},\n\t\"s\": \" spaced \"\n}"

	compacted, err := Compact(in)
	if err != nil {
		t.Fatalf("Compact failed: %v", err)
	}

	var fromOriginal, fromCompacted any
	if err := json.Unmarshal([]byte(in), &fromOriginal); err != nil {
		t.Fatalf("unmarshal original: %v", err)
	}
	if err := json.Unmarshal([]byte(compacted), &fromCompacted); err != nil {
		t.Fatalf("unmarshal compacted: %v", err)
	}
	if !reflect.DeepEqual(fromOriginal, fromCompacted) {
		t.Errorf("compaction changed the document: %v vs %v", fromOriginal, fromCompacted)
	}
}
