package util

import "testing"

func TestBrowserCommand(t *testing.T) {
	t.Parallel()

	cases := map[string]string{"windows": "rundll32", "darwin": "open", "linux": "xdg-open", "freebsd": "xdg-open"}
	for goos, want := range cases {
		name, args := browserCommand(goos, "http://localhost:5000")
		if name != want {
			t.Fatalf("%s: got %s want %s", goos, name, want)
		}
		if args[len(args)-1] != "http://localhost:5000" {
			t.Fatalf("%s: url must be last argument: %v", goos, args)
		}
	}

	if got := len(fallbackCommands("linux", "u")); got != 4 {
		t.Fatalf("unexpected linux fallbacks: %d", got)
	}
	if fallbackCommands("darwin", "u") != nil {
		t.Fatalf("darwin has no fallback")
	}
	if DashboardURL(5000) != "http://localhost:5000" {
		t.Fatalf("unexpected url: %s", DashboardURL(5000))
	}
}
