package http

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const statusError = "error"

type createLinkRequest struct {
	Destination       string     `json:"destination" validate:"required,http_url"`
	Alias             string     `json:"alias,omitempty" validate:"omitempty,max=64"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	PasswordProtected bool       `json:"password_protected"`
	Password          string     `json:"password,omitempty" validate:"required_if=PasswordProtected true,max=72"`
}

// updateLinkRequest holds optional changes. An empty alias removes the alias.
type updateLinkRequest struct {
	Destination       *string    `json:"destination,omitempty" validate:"omitempty,http_url"`
	Alias             *string    `json:"alias,omitempty" validate:"omitempty,max=64"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	ClearExpiry       bool       `json:"clear_expiry,omitempty"`
	PasswordProtected *bool      `json:"password_protected,omitempty"`
	Password          *string    `json:"password,omitempty" validate:"omitempty,max=72"`
	Active            *bool      `json:"active,omitempty"`
}

// Password may be empty: the resolve gates decide whether one was needed.
type verifyPasswordRequest struct {
	Password string `json:"password"`
}

type verifyPasswordResponse struct {
	Destination string `json:"destination"`
}

type linkStats struct {
	ClickCount         int64      `json:"click_count"`
	UniqueVisitorCount int64      `json:"unique_visitor_count"`
	LastAccessedAt     *time.Time `json:"last_accessed_at,omitempty"`
}

type linkResponse struct {
	ID                int64      `json:"id"`
	Token             string     `json:"token"`
	Alias             string     `json:"alias,omitempty"`
	Handle            string     `json:"handle"`
	ShortURL          string     `json:"short_url"`
	Destination       string     `json:"destination"`
	OwnerID           string     `json:"owner_id,omitempty"`
	PasswordProtected bool       `json:"password_protected"`
	Active            bool       `json:"active"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	Stats             linkStats  `json:"stats"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func toLinkResponse(link *entity.Link, baseURL string) linkResponse {
	return linkResponse{
		ID:                link.ID,
		Token:             link.Token,
		Alias:             link.Alias,
		Handle:            link.Handle(),
		ShortURL:          strings.TrimSuffix(baseURL, "/") + "/" + link.Handle(),
		Destination:       link.Destination,
		OwnerID:           link.OwnerID,
		PasswordProtected: link.PasswordProtected,
		Active:            link.Active,
		ExpiresAt:         link.ExpiresAt,
		Stats: linkStats{
			ClickCount:         link.ClickCount,
			UniqueVisitorCount: link.UniqueVisitorCount,
			LastAccessedAt:     link.LastAccessedAt,
		},
		CreatedAt: link.CreatedAt,
		UpdatedAt: link.UpdatedAt,
	}
}

func toLinkResponses(links []entity.Link, baseURL string) []linkResponse {
	resp := make([]linkResponse, 0, len(links))
	for i := range links {
		resp = append(resp, toLinkResponse(&links[i], baseURL))
	}
	return resp
}

type summaryResponse struct {
	TotalClicks          int64   `json:"total_clicks"`
	TotalUniqueVisitors  int64   `json:"total_unique_visitors"`
	PeriodClicks         int64   `json:"period_clicks"`
	PeriodUniqueVisitors int64   `json:"period_unique_visitors"`
	AverageClicksPerDay  float64 `json:"average_clicks_per_day"`
}

func toSummaryResponse(s entity.Summary) summaryResponse {
	return summaryResponse{
		TotalClicks:          s.TotalClicks,
		TotalUniqueVisitors:  s.TotalUniqueVisitors,
		PeriodClicks:         s.PeriodClicks,
		PeriodUniqueVisitors: s.PeriodUniqueVisitors,
		AverageClicksPerDay:  s.AverageClicksPerDay,
	}
}

type dailyBucketResponse struct {
	Date           string `json:"date"`
	Clicks         int64  `json:"clicks"`
	UniqueVisitors int64  `json:"unique_visitors"`
}

type breakdownEntryResponse struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

func toBreakdownResponse(entries []entity.BreakdownEntry) []breakdownEntryResponse {
	resp := make([]breakdownEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, breakdownEntryResponse{Label: e.Label, Count: e.Count})
	}
	return resp
}

type linkAnalyticsResponse struct {
	Link       linkResponse             `json:"link"`
	Period     string                   `json:"period"`
	From       time.Time                `json:"from"`
	To         time.Time                `json:"to"`
	Summary    summaryResponse          `json:"summary"`
	TimeSeries []dailyBucketResponse    `json:"time_series"`
	Devices    []breakdownEntryResponse `json:"devices"`
	Browsers   []breakdownEntryResponse `json:"browsers"`
	Countries  []breakdownEntryResponse `json:"countries"`
	Referrers  []breakdownEntryResponse `json:"referrers"`
}

func toLinkAnalyticsResponse(a *entity.LinkAnalytics, baseURL string) linkAnalyticsResponse {
	series := make([]dailyBucketResponse, 0, len(a.TimeSeries))
	for _, b := range a.TimeSeries {
		series = append(series, dailyBucketResponse{Date: b.Date, Clicks: b.Clicks, UniqueVisitors: b.UniqueVisitors})
	}

	return linkAnalyticsResponse{
		Link:       toLinkResponse(a.Link, baseURL),
		Period:     string(a.Period),
		From:       a.From,
		To:         a.To,
		Summary:    toSummaryResponse(a.Summary),
		TimeSeries: series,
		Devices:    toBreakdownResponse(a.Devices),
		Browsers:   toBreakdownResponse(a.Browsers),
		Countries:  toBreakdownResponse(a.Countries),
		Referrers:  toBreakdownResponse(a.Referrers),
	}
}

type visitResponse struct {
	ID        int64     `json:"id"`
	LinkID    int64     `json:"link_id"`
	Browser   string    `json:"browser"`
	OS        string    `json:"os"`
	Device    string    `json:"device"`
	Country   string    `json:"country"`
	Region    string    `json:"region,omitempty"`
	City      string    `json:"city,omitempty"`
	Referrer  string    `json:"referrer"`
	IsUnique  bool      `json:"is_unique"`
	VisitedAt time.Time `json:"visited_at"`
}

func toVisitResponse(v *entity.VisitEvent) visitResponse {
	resp := visitResponse{
		ID:        v.ID,
		LinkID:    v.LinkID,
		Browser:   v.BrowserLabel(),
		OS:        v.Client.OS,
		Device:    v.DeviceLabel(),
		Country:   v.CountryLabel(),
		Referrer:  v.ReferrerLabel(),
		IsUnique:  v.IsUnique,
		VisitedAt: v.VisitedAt,
	}
	if v.Geo != nil {
		resp.Region = v.Geo.Region
		resp.City = v.Geo.City
	}
	return resp
}

type dashboardResponse struct {
	Period       string          `json:"period"`
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
	TotalLinks   int             `json:"total_links"`
	ActiveLinks  int             `json:"active_links"`
	ExpiredLinks int             `json:"expired_links"`
	Summary      summaryResponse `json:"summary"`
	TopLinks     []linkResponse  `json:"top_links"`
	RecentVisits []visitResponse `json:"recent_visits"`
}

func toDashboardResponse(d *entity.Dashboard, baseURL string) dashboardResponse {
	recent := make([]visitResponse, 0, len(d.RecentVisits))
	for i := range d.RecentVisits {
		recent = append(recent, toVisitResponse(&d.RecentVisits[i]))
	}

	return dashboardResponse{
		Period:       string(d.Period),
		From:         d.From,
		To:           d.To,
		TotalLinks:   d.TotalLinks,
		ActiveLinks:  d.ActiveLinks,
		ExpiredLinks: d.ExpiredLinks,
		Summary:      toSummaryResponse(d.Summary),
		TopLinks:     toLinkResponses(d.TopLinks, baseURL),
		RecentVisits: recent,
	}
}

// validationError represents an individual validation error.
type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// errorResponse represents a structured error response.
type errorResponse struct {
	Status           string            `json:"status"`
	Message          string            `json:"message"`
	Errors           []validationError `json:"errors,omitempty"`
	Handle           string            `json:"handle,omitempty"`
	PasswordRequired bool              `json:"password_required,omitempty"`
}

func newErrorResponse(msg string) errorResponse {
	return errorResponse{Status: statusError, Message: msg}
}

// Predefined error responses for common scenarios.
var (
	emptyRequestBodyResponse   = newErrorResponse("empty request body")
	invalidRequestBodyResponse = newErrorResponse("invalid request body")
	invalidIDResponse          = newErrorResponse("invalid link id")
	invalidTokenResponse       = newErrorResponse("invalid or expired token")
	unauthenticatedResponse    = newErrorResponse("authentication required")
	forbiddenResponse          = newErrorResponse("link belongs to another owner")
	linkNotFoundResponse       = newErrorResponse("link not found")
	linkExpiredResponse        = newErrorResponse("link expired")
	aliasTakenResponse         = newErrorResponse("alias is already taken")
	storageUnavailableResponse = newErrorResponse("storage temporarily unavailable, retry later")
	serverErrorResponse        = newErrorResponse("server error occurred")
)

// messageForTag returns a user-friendly message based on the validation tag.
func messageForTag(tag string) string {
	switch tag {
	case "required", "required_if":
		return "this field is required"
	case "http_url":
		return "must be an absolute http or https url"
	case "max":
		return "value is too long"
	default:
		return "invalid value"
	}
}

// getValidationErrors processes validation errors and returns a list of validationError.
func getValidationErrors(err error) []validationError {
	var validationErrs []validationError

	errs, ok := err.(validator.ValidationErrors)
	if ok {
		for _, e := range errs {
			validationErrs = append(validationErrs, validationError{
				Field:   e.Field(),
				Message: messageForTag(e.Tag()),
			})
		}
	}

	return validationErrs
}

// validationErrorResponse constructs an errorResponse for validation errors.
func validationErrorResponse(err error) errorResponse {
	return errorResponse{
		Status:  statusError,
		Message: "validation error",
		Errors:  getValidationErrors(err),
	}
}
