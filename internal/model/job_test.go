package model

import "testing"

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{in: "high", want: PriorityHigh},
		{in: "normal", want: PriorityNormal},
		{in: "low", want: PriorityLow},
		{in: "", want: PriorityNormal},
		{in: "urgent", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParsePriority(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParsePriority(%q) = %q, want error", tt.in, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParsePriority(%q) = %q, %v, want %q", tt.in, got, err, tt.want)
		}
	}
}
