package main

import (
	"reflect"
	"testing"
)

func TestSplitTrimmed(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"python", []string{"python"}},
		{"python,python3.3", []string{"python", "python3.3"}},
		{" python , python3.3 ", []string{"python", "python3.3"}},
		{"python,,python3.3,", []string{"python", "python3.3"}},
		{"", []string{}},
		{" , ", []string{}},
	}
	for _, tt := range tests {
		if got := splitTrimmed(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitTrimmed(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
