package payload

import "testing"

func TestIsDeliveryReceipt(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{
			name: "statuses node present",
			body: `{"entry":[{"id":"1","changes":[{"value":{"statuses":[{"status":"delivered"}]}}]}]}`,
			want: true,
		},
		{
			name: "empty statuses array still counts",
			body: `{"entry":[{"changes":[{"value":{"statuses":[]}}]}]}`,
			want: true,
		},
		{
			name: "statuses in second change",
			body: `{"entry":[{"changes":[{"value":{}},{"value":{"statuses":[{"status":"read"}]}}]}]}`,
			want: true,
		},
		{
			name: "error field object",
			body: `{"error":{"code":500,"message":"x"}}`,
			want: true,
		},
		{
			name: "error field null",
			body: `{"error":null}`,
			want: true,
		},
		{
			name: "no entry no error",
			body: `{"hello":"world"}`,
			want: false,
		},
		{
			name: "entry not an array",
			body: `{"entry":{"changes":[{"value":{"statuses":[]}}]}}`,
			want: false,
		},
		{
			name: "changes not an array",
			body: `{"entry":[{"changes":{"value":{"statuses":[]}}}]}`,
			want: false,
		},
		{
			name: "value missing statuses",
			body: `{"entry":[{"changes":[{"value":{"messages":[]}}]}]}`,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDeliveryReceipt([]byte(tt.body)); got != tt.want {
				t.Errorf("IsDeliveryReceipt(%s) = %v, want %v", tt.body, got, tt.want)
			}
		})
	}
}

func TestIsInboundFlow(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{
			name: "nfm_reply interactive type",
			body: `{"data":{"entry":[{"changes":[{"value":{"messages":[{"interactive":{"type":"nfm_reply"}}]}}]}]}}`,
			want: true,
		},
		{
			name: "nfm_reply in later message",
			body: `{"data":{"entry":[{"changes":[{"value":{"messages":[{"text":"hi"},{"interactive":{"type":"nfm_reply"}}]}}]}]}}`,
			want: true,
		},
		{
			name: "other interactive type",
			body: `{"data":{"entry":[{"changes":[{"value":{"messages":[{"interactive":{"type":"button_reply"}}]}}]}]}}`,
			want: false,
		},
		{
			name: "type not a string",
			body: `{"data":{"entry":[{"changes":[{"value":{"messages":[{"interactive":{"type":123}}]}}]}]}}`,
			want: false,
		},
		{
			name: "missing data wrapper",
			body: `{"entry":[{"changes":[{"value":{"messages":[{"interactive":{"type":"nfm_reply"}}]}}]}]}`,
			want: false,
		},
		{
			name: "messages not an array",
			body: `{"data":{"entry":[{"changes":[{"value":{"messages":{"interactive":{"type":"nfm_reply"}}}}]}]}}`,
			want: false,
		},
		{
			name: "plain payload",
			body: `{"hello":"world"}`,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsInboundFlow([]byte(tt.body)); got != tt.want {
				t.Errorf("IsInboundFlow(%s) = %v, want %v", tt.body, got, tt.want)
			}
		})
	}
}

func TestClassifier_NotDisjoint(t *testing.T) {
	// A payload can satisfy both predicates at once; neither result may
	// suppress the other.
	body := `{
		"error": null,
		"data": {"entry":[{"changes":[{"value":{"messages":[{"interactive":{"type":"nfm_reply"}}]}}]}]}
	}`
	if !IsDeliveryReceipt([]byte(body)) {
		t.Error("expected DR match")
	}
	if !IsInboundFlow([]byte(body)) {
		t.Error("expected inbound flow match")
	}
}
