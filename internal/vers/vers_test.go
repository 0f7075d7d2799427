package vers

import "testing"

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"16.5", "14.0", 1},
		{"14.0", "16.5", -1},
		{"18.5", "18.5", 0},
		{"2016.5", "2017", -1},
		{"2018", "2017", 1},
		{"7.1.2.3", "7.1.2.3", 0},
		{"7.1.2.3", "7.1.10.0", -1},
		{"7.10", "7.9", 1},
		{"3.11", "3.9", 1},
	}
	for _, tt := range tests {
		if got := Compare(tt.a, tt.b); got != tt.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestMajor(t *testing.T) {
	tests := []struct {
		v    string
		want int
	}{
		{"18.5.499", 18},
		{"3.11", 3},
		{"2016.5", 2016},
		{"", 0},
		{"abc", 0},
	}
	for _, tt := range tests {
		if got := Major(tt.v); got != tt.want {
			t.Errorf("Major(%q) = %d, want %d", tt.v, got, tt.want)
		}
	}
}
