// Package clientinfo derives visit metadata from request attributes: client families
// from the User-Agent header and coarse geography from the remote address.
package clientinfo

import (
	"net"
	"strings"

	"github.com/mssola/useragent"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const (
	DeviceBot     = "bot"
	DeviceTablet  = "tablet"
	DeviceMobile  = "mobile"
	DeviceDesktop = entity.DefaultDevice
)

// Label bounds. Product tokens come straight from the header, so anything longer is cut.
const (
	MaxBrowserLen = 64
	MaxOSLen      = 64
)

// ParseUserAgent extracts browser, OS and device family. An empty header yields empty metadata.
func ParseUserAgent(header string) entity.ClientMeta {
	if strings.TrimSpace(header) == "" {
		return entity.ClientMeta{}
	}

	ua := useragent.New(header)
	browser, _ := ua.Browser()

	return entity.ClientMeta{
		Browser: truncate(browser, MaxBrowserLen),
		OS:      truncate(ua.OSInfo().Name, MaxOSLen),
		Device:  deviceFamily(ua, header),
	}
}

func deviceFamily(ua *useragent.UserAgent, header string) string {
	switch {
	case ua.Bot():
		return DeviceBot
	case strings.Contains(header, "iPad") || strings.Contains(header, "Tablet"):
		return DeviceTablet
	case ua.Mobile():
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// HostIP strips the port from a host:port remote address.
func HostIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
