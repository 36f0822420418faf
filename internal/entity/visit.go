package entity

import "time"

// Placeholder labels used when a visit attribute is absent.
const (
	DefaultDevice  = "desktop"
	UnknownLabel   = "Unknown"
	DirectReferrer = "Direct"
)

// ClientMeta holds the client families parsed from the User-Agent.
type ClientMeta struct {
	Browser string
	OS      string
	Device  string
}

// Geo holds the coarse location of a visitor.
type Geo struct {
	Country string
	Region  string
	City    string
}

// VisitEvent is one successful resolution of a link. Events are append-only.
type VisitEvent struct {
	ID         int64
	LinkID     int64
	VisitorKey string
	Client     ClientMeta
	Geo        *Geo   // Geo is nil when the lookup failed.
	Referrer   string // Referrer is empty for direct visits.
	IsUnique   bool   // IsUnique is decided at write time: first event for (LinkID, VisitorKey).
	VisitedAt  time.Time
}

// DeviceLabel returns the device family or its placeholder.
func (v *VisitEvent) DeviceLabel() string {
	return labelOr(v.Client.Device, DefaultDevice)
}

// BrowserLabel returns the browser name or its placeholder.
func (v *VisitEvent) BrowserLabel() string {
	return labelOr(v.Client.Browser, UnknownLabel)
}

// CountryLabel returns the country or its placeholder.
func (v *VisitEvent) CountryLabel() string {
	if v.Geo == nil {
		return UnknownLabel
	}
	return labelOr(v.Geo.Country, UnknownLabel)
}

// ReferrerLabel returns the referrer or its placeholder.
func (v *VisitEvent) ReferrerLabel() string {
	return labelOr(v.Referrer, DirectReferrer)
}

func labelOr(label, placeholder string) string {
	if label == "" {
		return placeholder
	}
	return label
}

// Resolution is the outcome of a link that passed every gate.
type Resolution struct {
	Destination string
	Link        *Link
	Visit       *VisitEvent // Visit is nil when recording failed.
}
