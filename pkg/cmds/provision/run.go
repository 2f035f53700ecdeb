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

package provision

import (
	"context"
	"os"

	"go.openviz.dev/grafana-provisioner/pkg/dashboard"
	"go.openviz.dev/grafana-provisioner/pkg/datasource"
	"go.openviz.dev/grafana-provisioner/pkg/elasticsearch"
	"go.openviz.dev/grafana-provisioner/pkg/grafana"
	"go.openviz.dev/grafana-provisioner/pkg/provisioner"
	"go.openviz.dev/grafana-provisioner/pkg/readiness"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"k8s.io/klog/v2"
)

// Wait blocks until Elasticsearch and Grafana are reachable.
func (s *Options) Wait(ctx context.Context) error {
	if !s.SkipElasticsearch {
		es, err := elasticsearch.NewClient(s.ElasticsearchURL)
		if err != nil {
			return err
		}
		p := readiness.New("Elasticsearch", es.Probe)
		p.Interval = s.PollInterval
		if err := p.Wait(ctx); err != nil {
			return err
		}
	}

	gc, err := grafana.NewClient(s.grafanaConfig())
	if err != nil {
		return err
	}
	p := readiness.New("Grafana", gc.Probe)
	p.Interval = s.PollInterval
	return p.Wait(ctx)
}

// Run provisions the whole stack, one step after the other.
func (s *Options) Run(ctx context.Context) error {
	if err := s.Wait(ctx); err != nil {
		return err
	}

	gc, err := grafana.NewClient(s.grafanaConfig())
	if err != nil {
		return err
	}

	token := s.GrafanaToken
	if token == "" {
		p := provisioner.New(gc)
		p.ServiceAccount.Name = s.ServiceAccountName
		p.ServiceAccount.Role = s.ServiceAccountRole
		p.Token.Name = s.TokenName
		p.Token.SecondsToLive = s.TokenSecondsToLive

		token, err = p.Provision(ctx)
		if err != nil {
			return err
		}
		if err := os.Setenv(TokenEnv, token); err != nil {
			return errors.Wrapf(err, "failed to export %s", TokenEnv)
		}
	} else {
		klog.Infof("Using the provided Grafana API token, skipping service account creation.")
	}
	tc := gc.WithBearerToken(token)

	klog.Infoln("Adding Grafana data sources...")
	specs := datasource.DefaultSpecs()
	reg := &datasource.Registrar{Client: tc, URL: s.DatasourceURL}
	result, err := reg.Register(ctx, specs)
	if err != nil {
		return err
	}
	klog.Infof("Successfully added Grafana data sources, created: %v, existing: %v", result.Created, result.Existing)

	fs := afero.NewOsFs()
	var model []byte
	if s.DashboardModelPath != "" {
		klog.Infof("Reading Grafana dashboard model from %s...", s.DashboardModelPath)
		model, err = afero.ReadFile(fs, s.DashboardModelPath)
		if err != nil {
			return errors.Wrapf(err, "failed to read dashboard model %s", s.DashboardModelPath)
		}
	} else {
		klog.Infoln("Generating Grafana dashboard model...")
		m := &dashboard.Materializer{
			Fs:           fs,
			TemplatePath: s.TemplatePath,
			OutputDir:    s.OutputDir,
			Names:        datasource.Names(specs),
		}
		res, err := m.Materialize(ctx, tc)
		if err != nil {
			return err
		}
		model = []byte(res.Model)
		klog.Infoln("Successfully generated Grafana dashboard model.")
	}

	if summary, err := dashboard.Inspect(model); err != nil {
		klog.Warningf("Could not inspect dashboard model: %v", err)
	} else {
		klog.Infof("Dashboard %q (uid %q) has %d panels, checksum %016x", summary.Title, summary.UID, summary.Panels, summary.Checksum)
	}

	klog.Infoln("Importing Grafana dashboard...")
	imp := &dashboard.Importer{Client: tc, Mode: dashboard.Mode(s.ImportMode)}
	if err := imp.Import(ctx, model); err != nil {
		return err
	}
	klog.Infoln("Successfully imported Grafana dashboard.")
	return nil
}
