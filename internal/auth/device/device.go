// Package device turns User-Agent headers into the short labels shown on
// session lists.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

const unknownDevice = "Unknown Device"

// ParseUserAgent returns "<browser> on <os>". The OS falls back to the
// platform when it is not recognised.
func ParseUserAgent(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return unknownDevice
	}
	ua := useragent.New(raw)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}
	os := ua.OS()
	if os == "" {
		os = ua.Platform()
	}
	if os == "" {
		os = "Unknown OS"
	}
	if platform := ua.Platform(); platform != "" && !strings.Contains(os, platform) {
		os = platform + " " + os
	}
	return strings.Join(strings.Fields(browser+" on "+os), " ")
}
