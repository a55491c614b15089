package baidu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
)

const (
	// DefaultBaseURL is the single weather endpoint of the Baidu Map API.
	DefaultBaseURL = "https://api.map.baidu.com/weather/v1/"

	// RequestTimeout bounds one outbound request.
	RequestTimeout = 30 * time.Second

	// Sentinels the vendor uses in place of a true missing reading.
	AbnormalInt = 999999
	AbnormalStr = "暂无"

	// probeDistrictID is a well-known district (北京市) used to validate keys.
	probeDistrictID = "110100"
)

// Requested data subsets.
const (
	DataTypeAll          = "all"
	DataTypeNow          = "now"
	DataTypeForecast     = "fc"
	DataTypeForecastHour = "fc_hour"
	DataTypeAlert        = "alert"
	DataTypeIndex        = "index"
)

// authStatusCodes is the fixed set of vendor status codes that indicate a
// credential problem rather than a request problem.
var authStatusCodes = map[int]struct{}{
	1: {}, 2: {}, 3: {}, 4: {}, 5: {},
	200: {}, 201: {}, 202: {}, 211: {}, 220: {}, 240: {},
}

// APIError is a vendor-reported failure (non-zero status in the body).
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("baidu weather api error (status %d): %s", e.Status, e.Message)
}

// AuthError is a vendor-reported failure in the authentication class.
// It is permanent until the credential is reconfigured.
type AuthError struct {
	APIError
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("baidu weather auth error (status %d): %s", e.Status, e.Message)
}

// ConnError is a transport-level failure (timeout, refused connection,
// open circuit). It is transient.
type ConnError struct {
	Err error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("baidu weather connection error: %v", e.Err)
}

func (e *ConnError) Unwrap() error { return e.Err }

// IsAuthError reports whether err classifies as an authentication failure.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// Client issues parameterized GET requests to the weather endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	ak         string
	circuit    *gobreaker.CircuitBreaker
}

// NewClient creates a client bound to one API key. The http.Client may be
// shared across clients; per-request deadlines are set via context.
func NewClient(httpClient *http.Client, ak string) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "baidu-weather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		// Only transport failures trip the breaker; vendor-reported
		// statuses are answers, not outages.
		IsSuccessful: func(err error) bool {
			var ce *ConnError
			return err == nil || !errors.As(err, &ce)
		},
	})

	return &Client{
		httpClient: httpClient,
		baseURL:    DefaultBaseURL,
		ak:         ak,
		circuit:    cb,
	}
}

// WithBaseURL overrides the endpoint, for tests.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// FetchByDistrict fetches weather data for an administrative district.
func (c *Client) FetchByDistrict(ctx context.Context, districtID, dataType string) (*Result, error) {
	values := url.Values{}
	values.Set("district_id", districtID)
	values.Set("data_type", dataType)
	return c.request(ctx, values)
}

// FetchByLocation fetches weather data for a coordinate pair. The vendor
// expects the location parameter as "longitude,latitude" (经度在前).
func (c *Client) FetchByLocation(ctx context.Context, longitude, latitude float64, dataType string) (*Result, error) {
	values := url.Values{}
	values.Set("location", fmt.Sprintf("%f,%f", longitude, latitude))
	values.Set("data_type", dataType)
	values.Set("coordtype", "wgs84")
	return c.request(ctx, values)
}

// ValidateKey probes the API with a well-known district. It returns false
// when the key is rejected, and an error for any other API failure.
func (c *Client) ValidateKey(ctx context.Context) (bool, error) {
	_, err := c.FetchByDistrict(ctx, probeDistrictID, DataTypeNow)
	if err != nil {
		if IsAuthError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (c *Client) request(ctx context.Context, values url.Values) (*Result, error) {
	values.Set("ak", c.ak)
	values.Set("output", "json")

	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?%s", c.baseURL, values.Encode()), nil)
	if err != nil {
		return nil, err
	}

	result, err := c.circuit.Execute(func() (interface{}, error) {
		resp, execErr := c.httpClient.Do(req)
		if execErr != nil {
			return nil, &ConnError{Err: execErr}
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &ConnError{Err: fmt.Errorf("unexpected http status %d", resp.StatusCode)}
		}

		var envelope struct {
			Status  int             `json:"status"`
			Message string          `json:"message"`
			Result  json.RawMessage `json:"result"`
		}
		if decErr := json.NewDecoder(resp.Body).Decode(&envelope); decErr != nil {
			return nil, &ConnError{Err: fmt.Errorf("decode response: %w", decErr)}
		}

		if envelope.Status != 0 {
			message := envelope.Message
			if message == "" {
				message = "未知错误"
			}
			apiErr := APIError{Status: envelope.Status, Message: message}
			if _, ok := authStatusCodes[envelope.Status]; ok {
				return nil, &AuthError{APIError: apiErr}
			}
			return nil, &apiErr
		}

		return decodeResult(envelope.Result)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &ConnError{Err: err}
		}
		return nil, err
	}

	res, ok := result.(*Result)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return res, nil
}

// decodeResult scrubs the vendor sentinels from the raw result payload and
// decodes it into the typed model. Scrubbed values come through as nil.
func decodeResult(raw json.RawMessage) (*Result, error) {
	if len(raw) == 0 {
		return &Result{}, nil
	}

	var tree interface{}
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, &ConnError{Err: fmt.Errorf("decode result: %w", err)}
	}

	cleaned, err := json.Marshal(Scrub(tree))
	if err != nil {
		return nil, fmt.Errorf("re-encode scrubbed result: %w", err)
	}

	var res Result
	if err := json.Unmarshal(cleaned, &res); err != nil {
		return nil, &ConnError{Err: fmt.Errorf("decode result: %w", err)}
	}
	return &res, nil
}

// Scrub recursively replaces the vendor's abnormal-value sentinels with nil,
// preserving structure otherwise. Scrubbing an already scrubbed tree is a
// no-op.
func Scrub(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, item := range t {
			out[k] = Scrub(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = Scrub(item)
		}
		return out
	case float64:
		if t == AbnormalInt {
			return nil
		}
		return t
	case string:
		if t == AbnormalStr {
			return nil
		}
		return t
	default:
		return v
	}
}
