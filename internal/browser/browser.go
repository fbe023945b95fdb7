// Package browser hands a news article URL to the desktop browser.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// openers maps GOOS to the command that dispatches a URL to the default
// browser. Windows uses rundll32 rather than cmd /c start so the URL is
// never shell-interpreted.
var openers = map[string][]string{
	"darwin":  {"open"},
	"linux":   {"xdg-open"},
	"windows": {"rundll32", "url.dll,FileProtocolHandler"},
}

// Open launches the default browser on rawURL. Only http and https URLs are
// accepted; news items sometimes carry junk links.
func Open(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid article URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("refusing to open %q URL (only http/https)", u.Scheme)
	}

	argv, ok := openers[runtime.GOOS]
	if !ok {
		argv = openers["linux"]
	}
	return exec.Command(argv[0], append(argv[1:], rawURL)...).Start()
}
