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

package datasource

import (
	"go.openviz.dev/grafana-provisioner/pkg/grafana"

	"github.com/samber/lo"
)

const (
	TypeElasticsearch = "elasticsearch"
	AccessProxy       = "proxy"

	TimeField    = "day"
	TimeInterval = "1d"

	maxConcurrentShardRequests = 5
)

// Spec names a data source and the Elasticsearch index behind it.
type Spec struct {
	Name  string
	Index string
}

// ElasticsearchJSONData is the jsonData block of an Elasticsearch data source.
type ElasticsearchJSONData struct {
	IncludeFrozen              bool   `json:"includeFrozen"`
	Index                      string `json:"index"`
	LogLevelField              string `json:"logLevelField"`
	LogMessageField            string `json:"logMessageField"`
	MaxConcurrentShardRequests int    `json:"maxConcurrentShardRequests"`
	TimeField                  string `json:"timeField"`
	TimeInterval               string `json:"timeInterval"`
}

func DefaultSpecs() []Spec {
	return []Spec{
		{Name: "elasticsearch-breakdown", Index: "copilot_usage_breakdown"},
		{Name: "elasticsearch-breakdown-chat", Index: "copilot_usage_breakdown_chat"},
		{Name: "elasticsearch-total", Index: "copilot_usage_total"},
		{Name: "elasticsearch-seat-info-settings", Index: "copilot_seat_info_settings"},
		{Name: "elasticsearch-seat-assignments", Index: "copilot_seat_assignments"},
	}
}

func Names(specs []Spec) []string {
	return lo.Map(specs, func(s Spec, _ int) string { return s.Name })
}

// Payload builds the Grafana data source for spec pointing at esURL.
func Payload(spec Spec, esURL string) *grafana.Datasource {
	return &grafana.Datasource{
		Name:            spec.Name,
		Type:            TypeElasticsearch,
		Access:          AccessProxy,
		URL:             esURL,
		BasicAuth:       false,
		WithCredentials: false,
		IsDefault:       false,
		JSONData: ElasticsearchJSONData{
			IncludeFrozen:              false,
			Index:                      spec.Index,
			MaxConcurrentShardRequests: maxConcurrentShardRequests,
			TimeField:                  TimeField,
			TimeInterval:               TimeInterval,
		},
	}
}
