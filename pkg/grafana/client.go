/*
Copyright AppsCode Inc. and Contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package grafana

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

type Client struct {
	baseURL string
	auth    *AuthConfig
	client  *resty.Client
}

// NewClient initializes client for interacting with an instance of Grafana server.
// If cfg.AuthConfig is nil then no authentication is used.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil || cfg.Addr == "" {
		return nil, errors.New("grafana address is missing")
	}
	u, err := url.Parse(cfg.Addr)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid grafana address %q", cfg.Addr)
	}

	httpClient := resty.New()
	if cfg.TLS != nil && len(cfg.TLS.CABundle) > 0 {
		httpClient.SetRootCertificateFromString(string(cfg.TLS.CABundle))
	}
	// use InsecureSkipVerify, if IP address is used for baseURL host
	if ip := net.ParseIP(u.Hostname()); ip != nil && u.Scheme == "https" {
		httpClient.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	httpClient.SetHeader("Accept", "application/json")

	return &Client{
		baseURL: strings.TrimSuffix(u.String(), "/"),
		auth:    cfg.AuthConfig,
		client:  httpClient,
	}, nil
}

// WithBearerToken returns a client for the same server that authenticates with token.
func (c *Client) WithBearerToken(token string) *Client {
	return &Client{
		baseURL: c.baseURL,
		auth:    &AuthConfig{BearerToken: token},
		client:  c.client,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Probe issues an unauthenticated GET against the server root and reports the status code.
func (c *Client) Probe(ctx context.Context) (int, error) {
	resp, err := c.client.R().SetContext(ctx).Get(c.baseURL)
	if err != nil {
		return 0, err
	}
	return resp.StatusCode(), nil
}

// CreateServiceAccount reflects POST /api/serviceaccounts
func (c *Client) CreateServiceAccount(ctx context.Context, sa ServiceAccount) (*ServiceAccount, error) {
	resp, err := c.do(ctx, http.MethodPost, c.endpoint("api/serviceaccounts"), sa)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusCreated {
		return nil, newAPIError("create service account", resp)
	}
	out := &ServiceAccount{}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return nil, errors.Wrap(err, "failed to decode service account")
	}
	return out, nil
}

// CreateServiceAccountToken reflects POST /api/serviceaccounts/:id/tokens
func (c *Client) CreateServiceAccountToken(ctx context.Context, saID int64, token ServiceAccountToken) (*ServiceAccountTokenResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, c.endpoint("api/serviceaccounts", strconv.FormatInt(saID, 10), "tokens"), token)
	if err != nil {
		return nil, err
	}
	// 200 on current Grafana releases, 201 is accepted as well.
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return nil, newAPIError("create service account token", resp)
	}
	out := &ServiceAccountTokenResponse{}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return nil, errors.Wrap(err, "failed to decode service account token")
	}
	if out.Key == "" {
		return nil, errors.New("grafana returned an empty service account token")
	}
	return out, nil
}

func (c *Client) CreateDatasource(ctx context.Context, ds *Datasource) (*GrafanaResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, c.endpoint("api/datasources"), ds)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, newAPIError("create datasource", resp)
	}
	gResp := &GrafanaResponse{}
	if err := json.Unmarshal(resp.Body(), gResp); err != nil {
		return nil, err
	}
	return gResp, nil
}

// ListDatasources reflects GET /api/datasources
func (c *Client) ListDatasources(ctx context.Context) ([]Datasource, error) {
	resp, err := c.do(ctx, http.MethodGet, c.endpoint("api/datasources"), nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, newAPIError("get datasources", resp)
	}
	var out []Datasource
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, errors.Wrap(err, "failed to decode datasources")
	}
	return out, nil
}

// ImportDashboard posts a raw import request to /api/dashboards/import.
// model is sent as is, it must already be the import envelope.
func (c *Client) ImportDashboard(ctx context.Context, model []byte) (*ImportResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, c.endpoint("api/dashboards/import"), model)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, newAPIError("import dashboard", resp)
	}
	out := &ImportResponse{}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return nil, errors.Wrap(err, "failed to decode import response")
	}
	return out, nil
}

// SetDashboard will create or update grafana dashboard
func (c *Client) SetDashboard(ctx context.Context, model []byte) (*GrafanaResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, c.endpoint("api/dashboards/db"), model)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, newAPIError("set dashboard", resp)
	}
	gResp := &GrafanaResponse{}
	if err := json.Unmarshal(resp.Body(), gResp); err != nil {
		return nil, err
	}
	return gResp, nil
}

// GetDashboardByUID reflects GET /api/dashboards/uid/:uid
func (c *Client) GetDashboardByUID(ctx context.Context, uid string) (*DashboardWithMeta, error) {
	resp, err := c.do(ctx, http.MethodGet, c.endpoint("api/dashboards/uid", uid), nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, newAPIError("get dashboard", resp)
	}
	out := &DashboardWithMeta{}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return nil, errors.Wrap(err, "failed to decode dashboard")
	}
	return out, nil
}

// DeleteDashboardByUID will delete the grafana dashboard with the given uid
func (c *Client) DeleteDashboardByUID(ctx context.Context, uid string) (*GrafanaResponse, error) {
	resp, err := c.do(ctx, http.MethodDelete, c.endpoint("api/dashboards/uid", uid), nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, newAPIError("delete dashboard", resp)
	}
	gResp := &GrafanaResponse{}
	if err := json.Unmarshal(resp.Body(), gResp); err != nil {
		return nil, err
	}
	return gResp, nil
}

func (c *Client) endpoint(elem ...string) string {
	u, _ := url.Parse(c.baseURL)
	u.Path = path.Join(append([]string{u.Path}, elem...)...)
	return u.String()
}

func (c *Client) do(ctx context.Context, method string, url string, body interface{}) (*resty.Response, error) {
	req := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json")
	if body != nil {
		req = req.SetBody(body)
	}
	if c.auth != nil {
		if c.auth.BearerToken != "" {
			req = req.SetAuthToken(c.auth.BearerToken)
		} else if c.auth.BasicAuth != nil {
			req = req.SetBasicAuth(c.auth.BasicAuth.Username, c.auth.BasicAuth.Password)
		}
	}

	var resp *resty.Response
	var err error
	switch method {
	case http.MethodGet:
		resp, err = req.Get(url)
	case http.MethodPost:
		resp, err = req.Post(url)
	case http.MethodDelete:
		resp, err = req.Delete(url)
	default:
		return nil, errors.New("unsupported http method")
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func newAPIError(op string, resp *resty.Response) *APIError {
	e := &APIError{
		Op:         op,
		StatusCode: resp.StatusCode(),
		Body:       resp.String(),
	}
	gResp := &GrafanaResponse{}
	if err := json.Unmarshal(resp.Body(), gResp); err == nil {
		e.Message = gResp.Message
	}
	return e
}

// IsConflict reports whether err is a Grafana 409 response.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict
}
