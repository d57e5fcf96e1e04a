package update

import "testing"

func TestIsNewer(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		current   string
		want      bool
	}{
		{"patch newer", "1.2.0", "1.1.9", true},
		{"equal", "2.0.0", "2.0.0", false},
		{"older", "1.0.0", "1.1.0", false},
		{"major newer", "2.0.0", "1.9.9", true},
		{"v prefix tolerated", "v1.1.0", "1.0.0", true},
		{"prerelease below release", "1.0.0-beta", "1.0.0", false},
		{"non-semver falls back to string order", "not-semver-b", "not-semver-a", true},
		{"non-semver string order negative", "not-semver-a", "not-semver-b", false},
		{"mixed semver and junk", "abc", "1.0.0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNewer(tt.candidate, tt.current); got != tt.want {
				t.Errorf("IsNewer(%q, %q) = %v, want %v", tt.candidate, tt.current, got, tt.want)
			}
		})
	}
}
