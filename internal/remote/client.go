// Package remote implements the REST client for the platform services
// the search depends on: searchable field catalogs, the object type
// feed, the advanced search configuration and value autocompletion.
package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/semsearch/semsearch/internal/catalog"
	"github.com/semsearch/semsearch/internal/codec"
)

// Client talks to the platform REST services. It implements the source
// interfaces of the search package.
type Client struct {
	http *resty.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// WithRetries enables retrying failed requests.
func WithRetries(count int) Option {
	return func(c *Client) { c.http.SetRetryCount(count) }
}

// WithAuthToken sends a bearer token with every request.
func WithAuthToken(token string) Option {
	return func(c *Client) { c.http.SetAuthToken(token) }
}

// New creates a client for the service root, e.g. "https://host/emf".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Accept", "application/json").
			SetTimeout(30 * time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchableFields fetches the searchable fields, optionally restricted
// to one definition type in "<parent>_<type>" form.
func (c *Client) SearchableFields(ctx context.Context, forType string) ([]catalog.RemoteField, error) {
	var fields []catalog.RemoteField
	req := c.http.R().SetContext(ctx).SetResult(&fields)
	if forType != "" {
		req.SetQueryParam("forType", forType)
	}
	resp, err := req.Get("/service/properties/searchable/semantic")
	if err != nil {
		return nil, fmt.Errorf("fetch searchable fields: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch searchable fields: %s", resp.Status())
	}
	return fields, nil
}

// AllTypes fetches the ordered object type feed with full URIs.
func (c *Client) AllTypes(ctx context.Context) ([]catalog.ObjectTypeRecord, error) {
	var records []catalog.ObjectTypeRecord
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("addFullURI", "true").
		SetResult(&records).
		Get("/service/definition/all-types")
	if err != nil {
		return nil, fmt.Errorf("fetch object types: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch object types: %s", resp.Status())
	}
	return records, nil
}

type advancedConfiguration struct {
	DateRanges []codec.DateRange `json:"dateRanges"`
}

// DateRanges fetches the advanced search configuration and returns its
// date ranges in display order.
func (c *Client) DateRanges(ctx context.Context) ([]codec.DateRange, error) {
	var cfg advancedConfiguration
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&cfg).
		Get("/search/configuration/advanced")
	if err != nil {
		return nil, fmt.Errorf("fetch search configuration: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch search configuration: %s", resp.Status())
	}
	codec.SortDateRanges(cfg.DateRanges)
	return cfg.DateRanges, nil
}

// AutocompleteItem is one suggestion of a value autocomplete.
type AutocompleteItem struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Autocomplete fetches value suggestions for an autocomplete field. The
// params carry field-specific restrictions such as the codelist id.
func (c *Client) Autocomplete(ctx context.Context, field, query string, limit int, params map[string]string) ([]AutocompleteItem, error) {
	var payload struct {
		Results []AutocompleteItem `json:"results"`
	}
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		SetResult(&payload)
	for k, v := range params {
		req.SetQueryParam(k, v)
	}
	resp, err := req.Get("/service/autocomplete/" + field)
	if err != nil {
		return nil, fmt.Errorf("autocomplete %s: %w", field, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("autocomplete %s: %s", field, resp.Status())
	}
	return payload.Results, nil
}

// Label is one resolved URI label.
type Label struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ResolveLabels resolves display labels for a batch of instance URIs,
// preserving request order. An empty batch resolves to nothing without a
// round trip.
func (c *Client) ResolveLabels(ctx context.Context, uris []string) ([]Label, error) {
	if len(uris) == 0 {
		return nil, nil
	}
	var labels []Label
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(uris).
		SetResult(&labels).
		Post("/service/label/bulk")
	if err != nil {
		return nil, fmt.Errorf("resolve labels: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("resolve labels: %s", resp.Status())
	}
	return labels, nil
}
