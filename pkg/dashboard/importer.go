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

package dashboard

import (
	"context"
	"fmt"

	"go.openviz.dev/grafana-provisioner/pkg/grafana"

	"github.com/pkg/errors"
	"gomodules.xyz/pointer"
	"k8s.io/klog/v2"
)

type Mode string

const (
	// ModeImport posts the model to /api/dashboards/import
	ModeImport Mode = "import"
	// ModeDB posts the model to /api/dashboards/db
	ModeDB Mode = "db"
)

func (m Mode) Validate() error {
	switch m {
	case ModeImport, ModeDB:
		return nil
	}
	return fmt.Errorf("unknown dashboard import mode %q, must be one of %q or %q", m, ModeImport, ModeDB)
}

type Client interface {
	ImportDashboard(ctx context.Context, model []byte) (*grafana.ImportResponse, error)
	SetDashboard(ctx context.Context, model []byte) (*grafana.GrafanaResponse, error)
}

type Importer struct {
	Client Client
	Mode   Mode
}

// Import sends model to Grafana as is.
func (i *Importer) Import(ctx context.Context, model []byte) error {
	switch i.Mode {
	case ModeDB:
		resp, err := i.Client.SetDashboard(ctx, model)
		if err != nil {
			klog.Errorf("Failed to create dashboard: %v", err)
			return errors.Wrap(err, "failed to create dashboard")
		}
		klog.Infof("Dashboard %s saved at %s (version %d)", pointer.String(resp.UID), pointer.String(resp.URL), pointer.Int(resp.Version))
	case ModeImport, "":
		resp, err := i.Client.ImportDashboard(ctx, model)
		if err != nil {
			klog.Errorf("Failed to import dashboard: %v", err)
			return errors.Wrap(err, "failed to import dashboard")
		}
		klog.Infof("Dashboard %q imported successfully at %s", resp.Title, resp.ImportedURL)
	default:
		return i.Mode.Validate()
	}
	return nil
}
