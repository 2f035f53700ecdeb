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

package elasticsearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

type ClusterHealth struct {
	ClusterName string `json:"cluster_name"`
	Status      string `json:"status"`
}

type Client struct {
	baseURL string
	client  *resty.Client
}

func NewClient(addr string) (*Client, error) {
	addr = NormalizeURL(addr)
	if addr == "" {
		return nil, errors.New("elasticsearch address is missing")
	}
	if _, err := url.Parse(addr); err != nil {
		return nil, errors.Wrapf(err, "invalid elasticsearch address %q", addr)
	}
	return &Client{
		baseURL: addr,
		client:  resty.New().SetHeader("Accept", "application/json"),
	}, nil
}

// NormalizeURL trims the trailing slash and defaults the scheme to http.
func NormalizeURL(addr string) string {
	addr = strings.TrimSuffix(strings.TrimSpace(addr), "/")
	if addr == "" {
		return ""
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return addr
}

// ClusterHealth reflects GET /_cluster/health. The body is only decoded
// on a 200 response.
func (c *Client) ClusterHealth(ctx context.Context) (*ClusterHealth, int, error) {
	u, _ := url.Parse(c.baseURL)
	u.Path = path.Join(u.Path, "_cluster/health")

	resp, err := c.client.R().SetContext(ctx).Get(u.String())
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, resp.StatusCode(), nil
	}
	health := &ClusterHealth{}
	if err := json.Unmarshal(resp.Body(), health); err != nil {
		return nil, resp.StatusCode(), errors.Wrap(err, "failed to decode cluster health")
	}
	return health, resp.StatusCode(), nil
}

// Probe reports the status code of the cluster health endpoint.
func (c *Client) Probe(ctx context.Context) (int, error) {
	health, code, err := c.ClusterHealth(ctx)
	if health != nil {
		klog.Infof("Elasticsearch cluster %q health is %s", health.ClusterName, health.Status)
	}
	if err != nil && code == 0 {
		return 0, err
	}
	return code, nil
}
