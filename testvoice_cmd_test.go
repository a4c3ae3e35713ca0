package main

import "testing"

func TestSampleFileName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"娜奥米", "test_娜奥米.wav"},
		{"Old Sage", "test_Old_Sage.wav"},
		{"A B C", "test_A_B_C.wav"},
	}
	for _, tt := range tests {
		if got := sampleFileName(tt.name); got != tt.want {
			t.Errorf("sampleFileName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
