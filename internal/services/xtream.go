// Xtream-codes implementation of [Provider]
//
// The protocol is HTTP GET against {server}/player_api.php with username,
// password and an action query parameter. The provider is untrusted and
// inconsistent: every field is optional, numbers arrive as strings or
// numbers interchangeably, and guide text is base64 more often than not.
// Missing fields degrade individual records, never the whole call.
package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/IISonGokuII/DjoudiniPlayer/internal/models"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/shared"
	"golang.org/x/time/rate"
)

// flexString decodes a JSON value that may arrive as a string or a number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		// tolerate anything else by dropping the value
		*f = ""
		return nil
	}
	*f = flexString(n.String())
	return nil
}

// flexFloat decodes a JSON number that may arrive quoted.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

// XtreamAuthResponse is the reply to an action-less player_api.php request.
type XtreamAuthResponse struct {
	UserInfo   *XtreamUserInfo   `json:"user_info"`
	ServerInfo *XtreamServerInfo `json:"server_info"`
}

// XtreamUserInfo carries the account block of an auth reply.
type XtreamUserInfo struct {
	Username       flexString `json:"username"`
	ExpDate        flexString `json:"exp_date"`
	ActiveCons     flexString `json:"active_cons"`
	MaxConnections flexString `json:"max_connections"`
}

// XtreamServerInfo carries the server block of an auth reply.
type XtreamServerInfo struct {
	URL            flexString `json:"url"`
	Port           flexString `json:"port"`
	HTTPSPort      flexString `json:"https_port"`
	ServerProtocol flexString `json:"server_protocol"`
	Timezone       flexString `json:"timezone"`
}

// XtreamCategory is one element of a get_*_categories reply.
type XtreamCategory struct {
	CategoryID   flexString `json:"category_id"`
	CategoryName flexString `json:"category_name"`
	ParentID     flexFloat  `json:"parent_id"`
}

// XtreamStream is one element of a get_live_streams / get_vod_streams reply.
type XtreamStream struct {
	StreamID           flexString `json:"stream_id"`
	Name               flexString `json:"name"`
	StreamIcon         flexString `json:"stream_icon"`
	CategoryID         flexString `json:"category_id"`
	EpgChannelID       flexString `json:"epg_channel_id"`
	ContainerExtension flexString `json:"container_extension"`
	Rating             flexFloat  `json:"rating"`
	ReleaseDate        flexString `json:"releasedate"`
	Added              flexString `json:"added"`
}

// XtreamEpgListing is one element of a get_short_epg reply.
type XtreamEpgListing struct {
	ID             flexString `json:"id"`
	Title          flexString `json:"title"`
	Description    flexString `json:"description"`
	StartTimestamp flexString `json:"start_timestamp"`
	StopTimestamp  flexString `json:"stop_timestamp"`
}

// XtreamEpgResponse wraps the listings array of a get_short_epg reply.
type XtreamEpgResponse struct {
	Listings []XtreamEpgListing `json:"epg_listings"`
}

// XtreamService implements [Provider] over the player_api.php protocol.
// A shared rate limiter spaces requests; the provider bans chatty clients.
type XtreamService struct {
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewXtreamService creates a new Xtream client. A nil client falls back to
// [http.DefaultClient]; requestsPerSecond <= 0 disables rate limiting.
func NewXtreamService(client *http.Client, requestsPerSecond float64) *XtreamService {
	if client == nil {
		client = http.DefaultClient
	}

	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}

	return &XtreamService{
		httpClient: client,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

func (x *XtreamService) Name() string {
	return "Xtream"
}

// apiURL builds a player_api.php request URL from the credential scope and
// extra query parameters.
func apiURL(creds Credentials, params map[string]string) string {
	base := strings.TrimRight(creds.ServerURL, "/")

	q := url.Values{}
	q.Set("username", creds.Username)
	q.Set("password", creds.Password)
	for k, v := range params {
		q.Set(k, v)
	}

	return base + "/player_api.php?" + q.Encode()
}

// get performs one rate-limited round trip and decodes the body into out.
// Non-2xx becomes a [ProviderError] wrapped in [shared.ErrProviderRequest];
// transport failures wrap [shared.ErrNetwork].
func (x *XtreamService) get(ctx context.Context, rawURL string, out any) error {
	if err := x.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", shared.ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %w", shared.ErrProviderRequest, &ProviderError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))})
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrMalformedRecord, err)
	}

	return nil
}

// Authenticate performs the action-less login round trip.
func (x *XtreamService) Authenticate(ctx context.Context, creds Credentials) (*Account, error) {
	var reply XtreamAuthResponse
	if err := x.get(ctx, apiURL(creds, nil), &reply); err != nil {
		var provErr *ProviderError
		if errors.As(err, &provErr) {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidCredentials, provErr)
		}
		return nil, err
	}

	// A reachable server can still answer 200 with an empty user block;
	// that outcome stays distinct from rejected credentials.
	if reply.UserInfo == nil || reply.UserInfo.Username == "" {
		return nil, shared.ErrNoAccountInfo
	}

	expRaw := string(reply.UserInfo.ExpDate)
	return &Account{
		Username:      string(reply.UserInfo.Username),
		ExpiryRaw:     expRaw,
		ExpiryDisplay: FormatExpiry(expRaw),
	}, nil
}

// FormatExpiry renders a raw exp_date (unix seconds) for humans.
// Zero, absent or unparseable values mean an unlimited account.
func FormatExpiry(raw string) string {
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || secs <= 0 {
		return "Unlimited"
	}
	return time.Unix(secs, 0).Format("02.01.2006")
}

var categoryActions = map[models.Section]string{
	models.SectionLive:   "get_live_categories",
	models.SectionVod:    "get_vod_categories",
	models.SectionSeries: "get_series_categories",
}

// ListCategories fetches the category listing for one section.
func (x *XtreamService) ListCategories(ctx context.Context, creds Credentials, section models.Section) ([]Category, error) {
	action, ok := categoryActions[section]
	if !ok {
		return nil, fmt.Errorf("%w: section %q", shared.ErrInvalidInput, section)
	}

	var reply []XtreamCategory
	if err := x.get(ctx, apiURL(creds, map[string]string{"action": action}), &reply); err != nil {
		return nil, err
	}

	categories := make([]Category, 0, len(reply))
	for _, c := range reply {
		if c.CategoryID == "" {
			// no usable identity, drop the record
			continue
		}
		categories = append(categories, Category{
			ExternalID: string(c.CategoryID),
			Name:       string(c.CategoryName),
			ParentID:   int(c.ParentID),
		})
	}

	return categories, nil
}

var streamActions = map[models.Section]string{
	models.SectionLive: "get_live_streams",
	models.SectionVod:  "get_vod_streams",
}

// ListStreams fetches the stream entries of one category. Series titles
// have no stream listing in this protocol; the engine never asks for them.
func (x *XtreamService) ListStreams(ctx context.Context, creds Credentials, section models.Section, categoryID string) ([]Stream, error) {
	action, ok := streamActions[section]
	if !ok {
		return nil, fmt.Errorf("%w: stream listing for section %q", shared.ErrNotImplemented, section)
	}

	params := map[string]string{"action": action, "category_id": categoryID}
	var reply []XtreamStream
	if err := x.get(ctx, apiURL(creds, params), &reply); err != nil {
		return nil, err
	}

	streams := make([]Stream, 0, len(reply))
	for _, s := range reply {
		if s.StreamID == "" {
			continue
		}
		streams = append(streams, Stream{
			ExternalID:  string(s.StreamID),
			Name:        string(s.Name),
			Logo:        string(s.StreamIcon),
			CategoryID:  string(s.CategoryID),
			EpgID:       string(s.EpgChannelID),
			Extension:   string(s.ContainerExtension),
			Rating:      float64(s.Rating),
			ReleaseDate: string(s.ReleaseDate),
		})
	}

	return streams, nil
}

// ListGuide fetches upcoming guide entries for one stream. Entries without
// both timestamps are dropped individually.
func (x *XtreamService) ListGuide(ctx context.Context, creds Credentials, streamID string, limit int) ([]GuideEntry, error) {
	params := map[string]string{"action": "get_short_epg", "stream_id": streamID}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}

	var reply XtreamEpgResponse
	if err := x.get(ctx, apiURL(creds, params), &reply); err != nil {
		return nil, err
	}

	entries := make([]GuideEntry, 0, len(reply.Listings))
	for _, l := range reply.Listings {
		start, errStart := strconv.ParseInt(string(l.StartTimestamp), 10, 64)
		stop, errStop := strconv.ParseInt(string(l.StopTimestamp), 10, 64)
		if errStart != nil || errStop != nil {
			continue
		}
		entries = append(entries, GuideEntry{
			Title:       decodeGuideText(string(l.Title)),
			Description: decodeGuideText(string(l.Description)),
			StartTime:   start,
			EndTime:     stop,
		})
	}

	return entries, nil
}

// decodeGuideText handles the provider habit of base64-encoding guide text.
// Values that do not round-trip cleanly are passed through unchanged.
func decodeGuideText(raw string) string {
	if raw == "" {
		return raw
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || !utf8.Valid(decoded) {
		return raw
	}
	return strings.TrimSpace(string(decoded))
}
