package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/net/context/ctxhttp"
)

const (
	// DefaultBaseURL is the address of the onboard portal.
	DefaultBaseURL = "https://wifi.sncf"
	// GPSPath is the path of the GPS endpoint on the portal.
	GPSPath = "/router/api/train/gps"
	// DetailsPath is the path of the train details endpoint on the portal.
	DetailsPath = "/router/api/train/details"
	// LocalGPSURL is served by the portal simulator.
	LocalGPSURL = "http://localhost:8000/gps.json"

	// DefaultTimeout bounds every request made to the portal.
	DefaultTimeout = time.Second

	maxBodySize = 1 << 20
)

// Client polls the onboard portal. It holds no state between polls.
type Client struct {
	logger *zap.Logger

	gpsURL     string
	detailsURL string

	client   *http.Client
	validate *validator.Validate
	location *time.Location
}

// NewClient creates a portal client querying the two supplied endpoints.
// Each request is abandoned after timeout.
func NewClient(logger *zap.Logger, gpsURL, detailsURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		logger:     logger,
		gpsURL:     gpsURL,
		detailsURL: detailsURL,
		client: &http.Client{
			Timeout: timeout,
		},
		validate: validator.New(),
		location: time.Local,
	}
}

// GPS performs a single poll of the GPS endpoint.
func (c *Client) GPS(ctx context.Context) (*SpeedSample, error) {
	body, err := c.get(ctx, c.gpsURL)
	if err != nil {
		return nil, err
	}

	sample, err := c.parseGPS(body)
	if err != nil {
		return nil, &Error{Kind: PayloadError, Endpoint: c.gpsURL, Err: err}
	}
	return sample, nil
}

// Details performs a single poll of the train details endpoint.
func (c *Client) Details(ctx context.Context) (*TrainDetails, error) {
	body, err := c.get(ctx, c.detailsURL)
	if err != nil {
		return nil, err
	}

	details, err := c.parseDetails(body)
	if err != nil {
		return nil, &Error{Kind: PayloadError, Endpoint: c.detailsURL, Err: err}
	}
	return details, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.client.Timeout)
	defer cancel()

	resp, err := ctxhttp.Get(ctx, c.client, url)
	if err != nil {
		c.logger.Debug("error performing request",
			zap.String("url", url),
			zap.Error(err),
		)
		return nil, &Error{Kind: NetworkError, Endpoint: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("received non-OK response",
			zap.String("url", url),
			zap.Int("status_code", resp.StatusCode),
		)
		return nil, &Error{Kind: ProtocolError, Endpoint: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	body, err := ioutil.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &Error{Kind: NetworkError, Endpoint: url, Err: err}
	}
	return body, nil
}

func (c *Client) parseGPS(body []byte) (*SpeedSample, error) {
	var payload gpsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if payload.Success != nil && !*payload.Success {
		return nil, errUnsuccessful
	}
	if err := c.validate.Struct(payload); err != nil {
		return nil, err
	}

	var raw bytes.Buffer
	if err := json.Indent(&raw, body, "", "\t"); err != nil {
		return nil, err
	}

	return &SpeedSample{
		SpeedMPS:  *payload.Speed,
		Latitude:  *payload.Latitude,
		Longitude: *payload.Longitude,
		Success:   true,
		Raw:       raw.Bytes(),
	}, nil
}

func (c *Client) parseDetails(body []byte) (*TrainDetails, error) {
	var payload detailsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(payload); err != nil {
		return nil, err
	}

	details := &TrainDetails{
		Carrier: payload.Carrier,
		Number:  payload.Number,
	}
	for _, sp := range payload.Stops {
		scheduled, err := parseRealDate(sp.RealDate, c.location)
		if err != nil {
			return nil, fmt.Errorf("stop %q: %w", sp.Label, err)
		}

		stop := Stop{
			Label:         sp.Label,
			ScheduledTime: scheduled,
			IsDelayed:     sp.IsDelayed,
			DelayMinutes:  sp.Delay,
			DelayReason:   sp.DelayReason,
			Code:          sp.Code,
		}
		// Only whether the journey has reached the stop matters; the distances
		// change on every poll and would defeat change detection.
		if sp.Progress != nil {
			stop.IsDone = sp.Progress.ProgressPercentage != 0
			stop.Progress = &Progress{}
		}
		details.Stops = append(details.Stops, stop)
	}

	return details, nil
}

var realDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseRealDate(value string, loc *time.Location) (time.Time, error) {
	var err error
	for _, layout := range realDateLayouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid realDate %q: %w", value, err)
}
