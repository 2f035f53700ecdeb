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
	"flag"
	"os"
	"time"

	"go.openviz.dev/grafana-provisioner/pkg/dashboard"
	"go.openviz.dev/grafana-provisioner/pkg/elasticsearch"
	"go.openviz.dev/grafana-provisioner/pkg/grafana"
	"go.openviz.dev/grafana-provisioner/pkg/provisioner"
	"go.openviz.dev/grafana-provisioner/pkg/readiness"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

const (
	// TokenEnv receives the token created for the service account. It is
	// never read back.
	TokenEnv = "GRAFANA_TOKEN"
	// APITokenEnv supplies an existing token to reuse instead.
	APITokenEnv = "GRAFANA_API_TOKEN"
)

// Options are read from the environment first, flags override them.
type Options struct {
	ElasticsearchURL string `env:"ELASTICSEARCH_URL"`
	// DatasourceURL is the Elasticsearch address Grafana uses; defaults to ElasticsearchURL.
	DatasourceURL string `env:"ELASTICSEARCH_DATASOURCE_URL"`

	GrafanaURL      string `env:"GRAFANA_URL"`
	GrafanaUsername string `env:"GRAFANA_USERNAME"`
	GrafanaPassword string `env:"GRAFANA_PASSWORD"`
	GrafanaToken    string `env:"GRAFANA_API_TOKEN"`
	GrafanaCAFile   string `env:"GRAFANA_CA_FILE"`

	ServiceAccountName string `env:"GRAFANA_SERVICE_ACCOUNT"`
	ServiceAccountRole string `env:"GRAFANA_SERVICE_ACCOUNT_ROLE"`
	TokenName          string `env:"GRAFANA_TOKEN_NAME"`
	TokenSecondsToLive int64  `env:"GRAFANA_TOKEN_TTL"`

	TemplatePath       string `env:"DASHBOARD_TEMPLATE"`
	DashboardModelPath string `env:"DASHBOARD_MODEL"`
	OutputDir          string `env:"OUTPUT_DIR"`
	ImportMode         string `env:"DASHBOARD_IMPORT_MODE"`

	PollInterval      time.Duration `env:"POLL_INTERVAL"`
	SkipElasticsearch bool          `env:"SKIP_ELASTICSEARCH_WAIT"`

	waitOnly bool
	caBundle []byte
}

func NewOptions() *Options {
	return &Options{
		GrafanaURL:         "http://localhost:3000/",
		ServiceAccountName: provisioner.DefaultServiceAccountName,
		ServiceAccountRole: provisioner.DefaultServiceAccountRole,
		TokenName:          provisioner.DefaultTokenName,
		TemplatePath:       dashboard.DefaultTemplatePath,
		OutputDir:          ".",
		ImportMode:         string(dashboard.ModeImport),
		PollInterval:       readiness.DefaultInterval,
	}
}

// NewWaitOptions returns options for commands that only wait for readiness.
func NewWaitOptions() *Options {
	o := NewOptions()
	o.waitOnly = true
	return o
}

// LoadEnv overrides the defaults with the environment. Call it before AddFlags
// so that flags take precedence.
func (s *Options) LoadEnv() error {
	return env.Parse(s)
}

func (s *Options) AddGoFlags(fs *flag.FlagSet) {
	fs.StringVar(&s.ElasticsearchURL, "elasticsearch-url", s.ElasticsearchURL, "Address of the Elasticsearch server (env ELASTICSEARCH_URL)")
	fs.BoolVar(&s.SkipElasticsearch, "skip-elasticsearch-wait", s.SkipElasticsearch, "If true, does not wait for Elasticsearch to become reachable")
	fs.DurationVar(&s.PollInterval, "poll-interval", s.PollInterval, "Interval between readiness checks. The flag accepts a value acceptable to time.ParseDuration")

	fs.StringVar(&s.GrafanaURL, "grafana-url", s.GrafanaURL, "Address of the Grafana server (env GRAFANA_URL)")
	fs.StringVar(&s.GrafanaCAFile, "grafana-ca-file", s.GrafanaCAFile, "Path to a PEM encoded CA bundle used to verify Grafana")

	if s.waitOnly {
		return
	}

	fs.StringVar(&s.DatasourceURL, "datasource-url", s.DatasourceURL, "Elasticsearch address as seen from Grafana. Defaults to --elasticsearch-url")
	fs.StringVar(&s.GrafanaUsername, "grafana-username", s.GrafanaUsername, "Grafana admin username (env GRAFANA_USERNAME)")
	fs.StringVar(&s.GrafanaPassword, "grafana-password", s.GrafanaPassword, "Grafana admin password (env GRAFANA_PASSWORD)")
	fs.StringVar(&s.GrafanaToken, "grafana-token", s.GrafanaToken, "Existing Grafana API token. If set, no service account is created (env GRAFANA_API_TOKEN)")

	fs.StringVar(&s.ServiceAccountName, "service-account", s.ServiceAccountName, "Name of the Grafana service account to create")
	fs.StringVar(&s.ServiceAccountRole, "service-account-role", s.ServiceAccountRole, "Role of the Grafana service account")
	fs.StringVar(&s.TokenName, "token-name", s.TokenName, "Name of the service account token")
	fs.Int64Var(&s.TokenSecondsToLive, "token-ttl", s.TokenSecondsToLive, "Seconds to live of the service account token, 0 never expires")

	fs.StringVar(&s.TemplatePath, "dashboard-template", s.TemplatePath, "Path to the dashboard template")
	fs.StringVar(&s.DashboardModelPath, "dashboard-model", s.DashboardModelPath, "Import this dashboard model as is instead of rendering the template")
	fs.StringVar(&s.OutputDir, "output-dir", s.OutputDir, "Directory where the dashboard model and data source mapping are written")
	fs.StringVar(&s.ImportMode, "import-mode", s.ImportMode, "How the dashboard is sent to Grafana: import (/api/dashboards/import) or db (/api/dashboards/db)")
}

func (s *Options) AddFlags(fs *pflag.FlagSet) {
	pfs := flag.NewFlagSet("grafana-provisioner", flag.ExitOnError)
	s.AddGoFlags(pfs)
	fs.AddGoFlagSet(pfs)
}

func (s *Options) Validate() []error {
	var errs []error
	if s.ElasticsearchURL == "" && (!s.waitOnly || !s.SkipElasticsearch) {
		errs = append(errs, errors.New("please set the ELASTICSEARCH_URL environment variable or --elasticsearch-url"))
	}
	if s.GrafanaURL == "" {
		errs = append(errs, errors.New("please set the GRAFANA_URL environment variable or --grafana-url"))
	}
	if s.PollInterval <= 0 {
		errs = append(errs, errors.Errorf("poll interval must be positive, found %s", s.PollInterval))
	}
	if s.waitOnly {
		return errs
	}

	if s.GrafanaToken == "" {
		if s.GrafanaUsername == "" {
			errs = append(errs, errors.New("please set the GRAFANA_USERNAME environment variable or --grafana-username, or provide --grafana-token"))
		}
		if s.GrafanaPassword == "" {
			errs = append(errs, errors.New("please set the GRAFANA_PASSWORD environment variable or --grafana-password"))
		}
	}
	if s.DashboardModelPath == "" && s.TemplatePath == "" {
		errs = append(errs, errors.New("either --dashboard-template or --dashboard-model is required"))
	}
	if err := dashboard.Mode(s.ImportMode).Validate(); err != nil {
		errs = append(errs, err)
	}
	if s.TokenSecondsToLive < 0 {
		errs = append(errs, errors.Errorf("token ttl must not be negative, found %d", s.TokenSecondsToLive))
	}
	return errs
}

func (s *Options) Complete() error {
	s.ElasticsearchURL = elasticsearch.NormalizeURL(s.ElasticsearchURL)
	if s.DatasourceURL == "" {
		s.DatasourceURL = s.ElasticsearchURL
	} else {
		s.DatasourceURL = elasticsearch.NormalizeURL(s.DatasourceURL)
	}
	if s.GrafanaCAFile != "" {
		data, err := os.ReadFile(s.GrafanaCAFile)
		if err != nil {
			return errors.Wrapf(err, "failed to read Grafana CA bundle %s", s.GrafanaCAFile)
		}
		s.caBundle = data
	}
	return nil
}

func (s *Options) grafanaConfig() *grafana.Config {
	cfg := &grafana.Config{
		Addr: s.GrafanaURL,
	}
	if s.GrafanaToken != "" {
		cfg.AuthConfig = &grafana.AuthConfig{BearerToken: s.GrafanaToken}
	} else if s.GrafanaUsername != "" {
		cfg.AuthConfig = &grafana.AuthConfig{
			BasicAuth: &grafana.BasicAuth{
				Username: s.GrafanaUsername,
				Password: s.GrafanaPassword,
			},
		}
	}
	if len(s.caBundle) > 0 {
		cfg.TLS = &grafana.TLS{CABundle: s.caBundle}
	}
	return cfg
}
