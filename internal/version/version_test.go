package version

import "testing"

func TestString(t *testing.T) {
	origVersion, origSHA, origTime := Version, GitSHA, BuildTime
	defer func() { Version, GitSHA, BuildTime = origVersion, origSHA, origTime }()

	if got := String(); got != "gtusim dev (unknown, built unknown)" {
		t.Errorf("String() = %q", got)
	}

	Version = "v0.3.1"
	GitSHA = "0123456789abcdef0123"
	BuildTime = "2026-10-17T09:00:00Z"
	want := "gtusim v0.3.1 (0123456789ab, built 2026-10-17T09:00:00Z)"
	if got := String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
