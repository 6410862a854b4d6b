// Package client talks to the society-man HTTP API. It implements the same
// repository interfaces as the database store, so view models and forms work
// unchanged against a remote server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Dakshesh-max/society-man/config"
	"github.com/Dakshesh-max/society-man/internal/model"
	"github.com/Dakshesh-max/society-man/internal/stats"
	"github.com/Dakshesh-max/society-man/internal/store"
)

// ErrValidation is returned when the server rejects an input as invalid.
var ErrValidation = errors.New("request rejected by server")

// Client is a remote data-access client. Build one explicitly and pass it to
// whatever needs it.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the API at cfg.BaseURL.
func New(cfg config.ClientConfig) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}

	var transport http.RoundTripper = http.DefaultTransport
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			log.Printf("Warning: Invalid proxy URL %q: %v. Client will not use a proxy.", cfg.HTTPProxy, err)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	return &Client{
		baseURL: strings.TrimRight(base.String(), "/"),
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
	}, nil
}

// Members returns the remote member repository.
func (c *Client) Members() store.MemberRepository {
	return &resource[model.Member, model.MemberInput]{c: c, path: "/api/members"}
}

// Announcements returns the remote announcement repository.
func (c *Client) Announcements() store.AnnouncementRepository {
	return &resource[model.Announcement, model.AnnouncementInput]{c: c, path: "/api/announcements"}
}

// Maintenance returns the remote maintenance repository.
func (c *Client) Maintenance() store.MaintenanceRepository {
	return &maintenanceResource{resource[model.MaintenanceLog, model.MaintenanceInput]{c: c, path: "/api/maintenance"}}
}

// Visitors returns the remote visitor repository.
func (c *Client) Visitors() store.VisitorRepository {
	return &visitorResource{resource[model.Visitor, model.VisitorInput]{c: c, path: "/api/visitors"}}
}

// Payments returns the remote payment repository.
func (c *Client) Payments() store.PaymentRepository {
	return &paymentResource{resource[model.Payment, model.PaymentInput]{c: c, path: "/api/payments"}}
}

// Dashboard fetches the server-side summary of every table.
func (c *Client) Dashboard(ctx context.Context) (stats.DashboardSummary, error) {
	var summary stats.DashboardSummary
	err := c.do(ctx, http.MethodGet, "/api/dashboard", nil, &summary)
	return summary, err
}

// Report streams the CSV report of kind into w. from and to are
// YYYY-MM-DD dates or empty.
func (c *Client) Report(ctx context.Context, kind, from, to string, w io.Writer) error {
	q := url.Values{}
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}
	path := "/api/reports/" + url.PathEscape(kind)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to read report: %w", err)
	}
	return nil
}

// do sends body as JSON and decodes the response into out when out is not nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	return nil, statusError(resp)
}

// statusError turns an error response into an error that matches the store
// sentinels where one applies.
func statusError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(raw))
	}
	if body.Error == "" {
		body.Error = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", body.Error, store.ErrNotFound)
	case http.StatusConflict:
		return fmt.Errorf("%s: %w", body.Error, store.ErrInvalidState)
	case http.StatusBadRequest:
		return fmt.Errorf("%s: %w", body.Error, ErrValidation)
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, body.Error)
}

type resource[T any, I any] struct {
	c    *Client
	path string
}

func (r *resource[T, I]) List(ctx context.Context) ([]T, error) {
	var items []T
	if err := r.c.do(ctx, http.MethodGet, r.path, nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (r *resource[T, I]) Get(ctx context.Context, id string) (T, error) {
	var item T
	err := r.c.do(ctx, http.MethodGet, r.path+"/"+url.PathEscape(id), nil, &item)
	return item, err
}

func (r *resource[T, I]) Create(ctx context.Context, in I) (T, error) {
	var item T
	err := r.c.do(ctx, http.MethodPost, r.path, in, &item)
	return item, err
}

func (r *resource[T, I]) Update(ctx context.Context, id string, in I) (T, error) {
	var item T
	err := r.c.do(ctx, http.MethodPut, r.path+"/"+url.PathEscape(id), in, &item)
	return item, err
}

func (r *resource[T, I]) Delete(ctx context.Context, id string) error {
	return r.c.do(ctx, http.MethodDelete, r.path+"/"+url.PathEscape(id), nil, nil)
}

type maintenanceResource struct {
	resource[model.MaintenanceLog, model.MaintenanceInput]
}

func (r *maintenanceResource) ListByStatus(ctx context.Context, status string) ([]model.MaintenanceLog, error) {
	if status == "" {
		return r.List(ctx)
	}
	logs := []model.MaintenanceLog{}
	err := r.c.do(ctx, http.MethodGet, r.path+"?status="+url.QueryEscape(status), nil, &logs)
	return logs, err
}

func (r *maintenanceResource) UpdateStatus(ctx context.Context, id, status string) (model.MaintenanceLog, error) {
	var entry model.MaintenanceLog
	err := r.c.do(ctx, http.MethodPatch, r.path+"/"+url.PathEscape(id)+"/status", map[string]string{"status": status}, &entry)
	return entry, err
}

type visitorResource struct {
	resource[model.Visitor, model.VisitorInput]
}

func (r *visitorResource) CheckOut(ctx context.Context, id string, at time.Time) (model.Visitor, error) {
	body := map[string]any{}
	if !at.IsZero() {
		body["at"] = at
	}
	var v model.Visitor
	err := r.c.do(ctx, http.MethodPost, r.path+"/"+url.PathEscape(id)+"/checkout", body, &v)
	return v, err
}

type paymentResource struct {
	resource[model.Payment, model.PaymentInput]
}

func (r *paymentResource) MarkPaid(ctx context.Context, id, method, transactionID string, at time.Time) (model.Payment, error) {
	body := map[string]any{"method": method, "transaction_id": transactionID}
	if !at.IsZero() {
		body["paid_at"] = at
	}
	var p model.Payment
	err := r.c.do(ctx, http.MethodPost, r.path+"/"+url.PathEscape(id)+"/pay", body, &p)
	return p, err
}

var _ store.Repositories = (*Client)(nil)
