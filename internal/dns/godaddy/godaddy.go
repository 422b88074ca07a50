package godaddy

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/yuriy-kovalchuk/yk-dns-upsert/internal/dns"
)

const (
	ProductionURL = "https://api.godaddy.com"
	OTEURL        = "https://api.ote-godaddy.com"

	defaultTimeout = 30 * time.Second
)

func init() {
	dns.Register("godaddy", func(log logr.Logger, settings map[string]string) (dns.Provider, error) {
		p, err := NewProvider(log, settings)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
}

// Options configure the HTTP side of the client.
type Options struct {
	BaseURL       string        // defaults to ProductionURL
	Timeout       time.Duration // per request; defaults to 30s
	SkipTLSVerify bool
}

// Client talks to the GoDaddy domains API. It holds no credentials; every
// call takes them explicitly.
type Client struct {
	baseURL string
	client  *http.Client
	log     logr.Logger
}

// New creates a GoDaddy record-set client.
func New(log logr.Logger, opts Options) (*Client, error) {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = ProductionURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("godaddy: invalid base_url %q: %w", baseURL, err)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.SkipTLSVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			// A redirected PUT would be replayed as a GET; report the 3xx instead.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		log:     log,
	}, nil
}

// NewProvider creates a credential-bound provider from the settings map.
// Required settings: api_key, api_secret.
// Optional settings: base_url, ote (default false), default_ttl (default 600),
// timeout (default 30s), skip_tls_verify (default false).
func NewProvider(log logr.Logger, settings map[string]string) (*dns.BoundProvider, error) {
	creds := dns.Credentials{Key: settings["api_key"], Secret: settings["api_secret"]}
	if creds.Key == "" {
		return nil, fmt.Errorf("godaddy: missing required setting 'api_key'")
	}
	if creds.Secret == "" {
		return nil, fmt.Errorf("godaddy: missing required setting 'api_secret'")
	}

	opts, err := OptionsFromSettings(settings)
	if err != nil {
		return nil, err
	}

	defaultTTL := dns.MinTTL
	if v := settings["default_ttl"]; v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("godaddy: invalid default_ttl %q: %w", v, err)
		}
		if parsed < dns.MinTTL {
			return nil, fmt.Errorf("godaddy: default_ttl %d is below the minimum of %d", parsed, dns.MinTTL)
		}
		defaultTTL = parsed
	}

	c, err := New(log, opts)
	if err != nil {
		return nil, err
	}
	return dns.Bind(c, creds, defaultTTL, log), nil
}

// OptionsFromSettings reads the transport options out of a settings map.
func OptionsFromSettings(settings map[string]string) (Options, error) {
	var opts Options
	opts.BaseURL = settings["base_url"]
	if opts.BaseURL == "" && settings["ote"] == "true" {
		opts.BaseURL = OTEURL
	}
	if v := settings["timeout"]; v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Options{}, fmt.Errorf("godaddy: invalid timeout %q: %w", v, err)
		}
		opts.Timeout = d
	}
	opts.SkipTLSVerify = settings["skip_tls_verify"] == "true"
	return opts, nil
}

// recordsPath returns the record-set path for key, escaping every segment.
func recordsPath(key dns.ZoneRecordKey) string {
	return fmt.Sprintf("/v1/domains/%s/records/%s/%s",
		url.PathEscape(key.RootDomain), url.PathEscape(key.Type), url.PathEscape(key.Name))
}

// doRequest builds and executes an HTTP request against the GoDaddy API.
func (c *Client) doRequest(ctx context.Context, creds dns.Credentials, method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("godaddy: marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("godaddy: build request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("sso-key %s:%s", creds.Key, creds.Secret))
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("godaddy: %s %s: %w", method, path, err)
	}
	return resp, nil
}

// apiError drains resp and turns it into a *dns.APIError. A body that cannot
// be read in full is kept as far as it was read.
func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return &dns.APIError{StatusCode: resp.StatusCode, Body: string(body)}
}

func success(code int) bool {
	return code >= 200 && code < 300
}

// ReplaceRecordSet replaces every value of the record set addressed by key.
func (c *Client) ReplaceRecordSet(ctx context.Context, creds dns.Credentials, key dns.ZoneRecordKey, values []dns.RecordValue) error {
	if values == nil {
		values = []dns.RecordValue{}
	}
	path := recordsPath(key)
	c.log.V(1).Info("replacing record set", "path", path, "values", len(values))

	resp, err := c.doRequest(ctx, creds, http.MethodPut, path, values)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !success(resp.StatusCode) {
		return apiError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// GetRecordSet returns the values of the record set addressed by key. A
// missing record set yields an empty slice.
func (c *Client) GetRecordSet(ctx context.Context, creds dns.Credentials, key dns.ZoneRecordKey) ([]dns.RecordValue, error) {
	path := recordsPath(key)
	resp, err := c.doRequest(ctx, creds, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return []dns.RecordValue{}, nil
	}
	if !success(resp.StatusCode) {
		return nil, apiError(resp)
	}

	var values []dns.RecordValue
	if err := json.NewDecoder(resp.Body).Decode(&values); err != nil {
		return nil, fmt.Errorf("godaddy: decode record set: %w", err)
	}
	c.log.V(1).Info("fetched record set", "path", path, "values", len(values))
	return values, nil
}

// DeleteRecordSet removes the record set addressed by key. Deleting a
// record set that does not exist is not an error.
func (c *Client) DeleteRecordSet(ctx context.Context, creds dns.Credentials, key dns.ZoneRecordKey) error {
	path := recordsPath(key)
	resp, err := c.doRequest(ctx, creds, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.log.V(1).Info("record set already absent", "path", path)
		return nil
	}
	if !success(resp.StatusCode) {
		return apiError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
