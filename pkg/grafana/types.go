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
	"encoding/json"
	"fmt"

	"gomodules.xyz/pointer"
)

type BasicAuth struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// AuthConfig holds either basic auth credentials or a bearer token.
// BearerToken wins when both are set.
type AuthConfig struct {
	BasicAuth   *BasicAuth `json:"basicAuth,omitempty"`
	BearerToken string     `json:"bearerToken,omitempty"`
}

type TLS struct {
	CABundle []byte `json:"caBundle,omitempty"`
}

type Config struct {
	Addr       string      `json:"addr"`
	AuthConfig *AuthConfig `json:"authConfig,omitempty"`
	TLS        *TLS        `json:"tls,omitempty"`
}

// ServiceAccount as described in
// https://grafana.com/docs/grafana/latest/developers/http_api/serviceaccount/
type ServiceAccount struct {
	ID         int64  `json:"id,omitempty"`
	Name       string `json:"name"`
	Login      string `json:"login,omitempty"`
	Role       string `json:"role"`
	IsDisabled bool   `json:"isDisabled"`
}

type ServiceAccountToken struct {
	Name          string `json:"name"`
	SecondsToLive int64  `json:"secondsToLive"`
}

type ServiceAccountTokenResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Key  string `json:"key"`
}

// Datasource as described in the doc
// https://grafana.com/docs/grafana/latest/developers/http_api/data_source/
type Datasource struct {
	ID              uint        `json:"id,omitempty"`
	UID             string      `json:"uid,omitempty"`
	OrgID           uint        `json:"orgId,omitempty"`
	Name            string      `json:"name"`
	Type            string      `json:"type"`
	Access          string      `json:"access"` // direct or proxy
	URL             string      `json:"url"`
	BasicAuth       bool        `json:"basicAuth"`
	WithCredentials bool        `json:"withCredentials"`
	IsDefault       bool        `json:"isDefault"`
	JSONData        interface{} `json:"jsonData,omitempty"`
}

type GrafanaResponse struct {
	ID      *int    `json:"id,omitempty"`
	UID     *string `json:"uid,omitempty"`
	URL     *string `json:"url,omitempty"`
	Title   *string `json:"title,omitempty"`
	Name    *string `json:"name,omitempty"`
	Message *string `json:"message,omitempty"`
	Status  *string `json:"status,omitempty"`
	Version *int    `json:"version,omitempty"`
	Slug    *string `json:"slug,omitempty"`
}

// ImportResponse is returned by POST /api/dashboards/import
type ImportResponse struct {
	PluginID     string `json:"pluginId"`
	Title        string `json:"title"`
	Imported     bool   `json:"imported"`
	ImportedURI  string `json:"importedUri"`
	ImportedURL  string `json:"importedUrl"`
	DashboardID  int64  `json:"dashboardId"`
	DashboardUID string `json:"dashboardUid"`
}

type DashboardMeta struct {
	Slug    string `json:"slug"`
	URL     string `json:"url"`
	Version int    `json:"version"`
}

type DashboardWithMeta struct {
	Dashboard json.RawMessage `json:"dashboard"`
	Meta      DashboardMeta   `json:"meta"`
}

// APIError is returned whenever Grafana answers with an unexpected status code.
type APIError struct {
	Op         string
	StatusCode int
	Message    *string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != nil {
		return fmt.Sprintf("failed to %s, status: %d, reason: %v", e.Op, e.StatusCode, pointer.String(e.Message))
	}
	return fmt.Sprintf("failed to %s, status: %d, body: %s", e.Op, e.StatusCode, e.Body)
}
