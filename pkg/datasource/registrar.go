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
	"context"

	"go.openviz.dev/grafana-provisioner/pkg/grafana"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

type Creator interface {
	CreateDatasource(ctx context.Context, ds *grafana.Datasource) (*grafana.GrafanaResponse, error)
}

type Registrar struct {
	Client Creator
	// URL is the Elasticsearch address as seen from Grafana.
	URL string
}

type Result struct {
	Created  []string
	Existing []string
}

// Register creates every data source in order. A data source that already
// exists is skipped, any other failure stops the loop.
func (r *Registrar) Register(ctx context.Context, specs []Spec) (*Result, error) {
	result := &Result{}
	for _, spec := range specs {
		klog.Infof("Adding data source: %s...", spec.Name)

		_, err := r.Client.CreateDatasource(ctx, Payload(spec, r.URL))
		if grafana.IsConflict(err) {
			klog.Infof("Data source %s already exists. Proceeding...", spec.Name)
			result.Existing = append(result.Existing, spec.Name)
			continue
		}
		if err != nil {
			klog.Errorf("Failed to add data source %s: %v", spec.Name, err)
			return result, errors.Wrapf(err, "failed to add data source %s", spec.Name)
		}

		klog.Infof("Successfully added data source: %s", spec.Name)
		result.Created = append(result.Created, spec.Name)
	}
	return result, nil
}
