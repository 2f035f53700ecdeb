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
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.openviz.dev/grafana-provisioner/pkg/datasource"
	"go.openviz.dev/grafana-provisioner/pkg/grafana"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

const dashboardTemplate = `{"dashboard":{"title":"Copilot Usage","uid":"copilot","panels":[` +
	`{"id":1,"type":"stat","datasource":{"type":"elasticsearch","uid":"elasticsearch-total-uid"}},` +
	`{"id":2,"type":"table","datasource":{"type":"elasticsearch","uid":"elasticsearch-seat-assignments-uid"}}` +
	`]},"overwrite":true,"inputs":[]}`

var _ = Describe("Run", func() {
	var (
		es      *ghttp.Server
		gs      *ghttp.Server
		o       *Options
		outDir  string
		listing []grafana.Datasource
	)

	expectServiceAccount := func() {
		gs.AppendHandlers(ghttp.CombineHandlers(
			ghttp.VerifyRequest(http.MethodPost, "/api/serviceaccounts"),
			ghttp.VerifyBasicAuth("admin", "admin"),
			ghttp.RespondWithJSONEncoded(http.StatusCreated, grafana.ServiceAccount{ID: 2, Name: "sa-for-cpuad", Role: "Admin"}),
		))
	}

	expectDatasources := func(token string) {
		for _, spec := range datasource.DefaultSpecs() {
			status := http.StatusOK
			if spec.Name == "elasticsearch-total" {
				status = http.StatusConflict
			}
			gs.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/api/datasources"),
				ghttp.VerifyHeaderKV("Authorization", "Bearer "+token),
				ghttp.VerifyJSONRepresenting(datasource.Payload(spec, es.URL())),
				ghttp.RespondWithJSONEncoded(status, map[string]string{"message": "ok"}),
			))
		}
	}

	expectListing := func(token string) {
		gs.AppendHandlers(ghttp.CombineHandlers(
			ghttp.VerifyRequest(http.MethodGet, "/api/datasources"),
			ghttp.VerifyHeaderKV("Authorization", "Bearer "+token),
			ghttp.RespondWithJSONEncoded(http.StatusOK, listing),
		))
	}

	expectDashboard := func(endpoint, token string, body *[]byte, response interface{}) {
		gs.AppendHandlers(ghttp.CombineHandlers(
			ghttp.VerifyRequest(http.MethodPost, endpoint),
			ghttp.VerifyHeaderKV("Authorization", "Bearer "+token),
			func(w http.ResponseWriter, r *http.Request) {
				*body, _ = io.ReadAll(r.Body)
			},
			ghttp.RespondWithJSONEncoded(http.StatusOK, response),
		))
	}

	renderedModels := func() []string {
		models, err := filepath.Glob(filepath.Join(outDir, "dashboard-model-*.json"))
		Expect(err).NotTo(HaveOccurred())
		return models
	}

	BeforeEach(func() {
		es = ghttp.NewServer()
		gs = ghttp.NewServer()
		var err error
		outDir, err = os.MkdirTemp("", "grafana-provisioner")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, outDir)

		tplPath := filepath.Join(outDir, "dashboard-template.json")
		Expect(os.WriteFile(tplPath, []byte(dashboardTemplate), 0o644)).To(Succeed())

		o = NewOptions()
		o.ElasticsearchURL = es.URL()
		o.GrafanaURL = gs.URL() + "/"
		o.GrafanaUsername = "admin"
		o.GrafanaPassword = "admin"
		o.TemplatePath = tplPath
		o.OutputDir = outDir
		o.PollInterval = 5 * time.Millisecond

		listing = nil
		for i, name := range datasource.Names(datasource.DefaultSpecs()) {
			listing = append(listing, grafana.Datasource{ID: uint(i + 1), UID: "uid-" + name, Name: name})
		}

		Expect(os.Unsetenv(TokenEnv)).To(Succeed())

		es.AppendHandlers(
			ghttp.RespondWith(http.StatusServiceUnavailable, `{"status":"red"}`),
			ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodGet, "/_cluster/health"),
				ghttp.RespondWith(http.StatusOK, `{"cluster_name":"docker-cluster","status":"green"}`),
			),
		)
		gs.AppendHandlers(ghttp.CombineHandlers(
			ghttp.VerifyRequest(http.MethodGet, "/"),
			ghttp.RespondWith(http.StatusOK, "<html></html>"),
		))
	})

	JustBeforeEach(func() {
		Expect(o.Validate()).To(BeEmpty())
		Expect(o.Complete()).To(Succeed())
	})

	AfterEach(func() {
		es.Close()
		gs.Close()
		Expect(os.Unsetenv(TokenEnv)).To(Succeed())
	})

	It("should provision data sources and import the rendered dashboard", func() {
		expectServiceAccount()
		gs.AppendHandlers(ghttp.CombineHandlers(
			ghttp.VerifyRequest(http.MethodPost, "/api/serviceaccounts/2/tokens"),
			ghttp.RespondWithJSONEncoded(http.StatusOK, grafana.ServiceAccountTokenResponse{ID: 1, Name: "sa-for-cpuad-key", Key: "glsa_run"}),
		))
		expectDatasources("glsa_run")
		expectListing("glsa_run")
		var imported []byte
		expectDashboard("/api/dashboards/import", "glsa_run", &imported, grafana.ImportResponse{Title: "Copilot Usage", Imported: true})

		Expect(o.Run(context.Background())).To(Succeed())
		Expect(os.Getenv(TokenEnv)).To(Equal("glsa_run"))

		Expect(string(imported)).To(ContainSubstring(`"uid":"uid-elasticsearch-total"`))
		Expect(string(imported)).To(ContainSubstring(`"uid":"uid-elasticsearch-seat-assignments"`))
		Expect(string(imported)).NotTo(ContainSubstring("-uid\""))

		Expect(renderedModels()).To(HaveLen(2))

		mappings, err := filepath.Glob(filepath.Join(outDir, "dashboard-model-data_sources_name_uid_mapping-*.json"))
		Expect(err).NotTo(HaveOccurred())
		Expect(mappings).To(HaveLen(1))
		raw, err := os.ReadFile(mappings[0])
		Expect(err).NotTo(HaveOccurred())
		var mapping map[string]string
		Expect(json.Unmarshal(raw, &mapping)).To(Succeed())
		Expect(mapping).To(HaveKeyWithValue("elasticsearch-breakdown", "uid-elasticsearch-breakdown"))
	})

	It("should stop without exporting a token when token creation fails", func() {
		expectServiceAccount()
		gs.AppendHandlers(ghttp.CombineHandlers(
			ghttp.VerifyRequest(http.MethodPost, "/api/serviceaccounts/2/tokens"),
			ghttp.RespondWithJSONEncoded(http.StatusInternalServerError, map[string]string{"message": "failed to add service account token"}),
		))

		err := o.Run(context.Background())
		Expect(err).To(MatchError(ContainSubstring("failed to add service account token")))
		_, found := os.LookupEnv(TokenEnv)
		Expect(found).To(BeFalse())
		Expect(gs.ReceivedRequests()).To(HaveLen(3))
	})

	Context("with an existing token", func() {
		BeforeEach(func() {
			o.GrafanaUsername = ""
			o.GrafanaPassword = ""
			o.GrafanaToken = "glsa_existing"
			o.ImportMode = "db"
		})

		It("should skip the service account and upload the dashboard to the db endpoint", func() {
			expectDatasources("glsa_existing")
			expectListing("glsa_existing")
			var uploaded []byte
			expectDashboard("/api/dashboards/db", "glsa_existing", &uploaded, map[string]interface{}{"status": "success", "uid": "copilot", "version": 1})

			Expect(o.Run(context.Background())).To(Succeed())

			for _, r := range gs.ReceivedRequests() {
				Expect(r.URL.Path).NotTo(HavePrefix("/api/serviceaccounts"))
			}
			Expect(gs.ReceivedRequests()).To(HaveLen(1 + 5 + 2))
			Expect(string(uploaded)).To(ContainSubstring(`"uid":"uid-elasticsearch-total"`))
			_, found := os.LookupEnv(TokenEnv)
			Expect(found).To(BeFalse())
		})
	})

	Context("with a dashboard model on disk", func() {
		var model []byte

		BeforeEach(func() {
			model = []byte(`{"dashboard":{"title":"Copilot Usage","uid":"copilot","panels":[{"id":1,"type":"stat","datasource":{"uid":"P0"}}]},"overwrite":true}`)
			modelPath := filepath.Join(outDir, "copilot.json")
			Expect(os.WriteFile(modelPath, model, 0o644)).To(Succeed())
			o.DashboardModelPath = modelPath
		})

		It("should import the file as is without rendering the template", func() {
			expectServiceAccount()
			gs.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/api/serviceaccounts/2/tokens"),
				ghttp.RespondWithJSONEncoded(http.StatusCreated, grafana.ServiceAccountTokenResponse{ID: 1, Name: "sa-for-cpuad-key", Key: "glsa_model"}),
			))
			expectDatasources("glsa_model")
			var imported []byte
			expectDashboard("/api/dashboards/import", "glsa_model", &imported, grafana.ImportResponse{Title: "Copilot Usage", Imported: true})

			Expect(o.Run(context.Background())).To(Succeed())

			Expect(imported).To(MatchJSON(model))
			Expect(renderedModels()).To(BeEmpty())
			for _, r := range gs.ReceivedRequests() {
				Expect(r.Method + " " + r.URL.Path).NotTo(Equal("GET /api/datasources"))
			}
		})
	})
})

var _ = Describe("Options", func() {
	It("should reuse a token only from its own variable", func() {
		Expect(os.Setenv(APITokenEnv, "glsa_existing")).To(Succeed())
		DeferCleanup(os.Unsetenv, APITokenEnv)

		o := NewOptions()
		Expect(o.LoadEnv()).To(Succeed())
		Expect(o.GrafanaToken).To(Equal("glsa_existing"))
	})

	It("should report every missing setting at once", func() {
		o := NewOptions()
		o.GrafanaURL = ""
		o.ImportMode = "upsert"
		Expect(o.Validate()).To(HaveLen(5))
	})

	It("should not require credentials when a token is given", func() {
		o := NewOptions()
		o.ElasticsearchURL = "elasticsearch:9200"
		o.GrafanaToken = "glsa_existing"
		Expect(o.Validate()).To(BeEmpty())
		Expect(o.Complete()).To(Succeed())
		Expect(o.ElasticsearchURL).To(Equal("http://elasticsearch:9200"))
		Expect(o.DatasourceURL).To(Equal(o.ElasticsearchURL))
		Expect(o.grafanaConfig().AuthConfig.BearerToken).To(Equal("glsa_existing"))
	})

	It("should only need addresses to wait", func() {
		o := NewWaitOptions()
		o.SkipElasticsearch = true
		Expect(o.Validate()).To(BeEmpty())
	})

	It("should read settings from the environment", func() {
		for k, v := range map[string]string{
			"ELASTICSEARCH_URL": "http://es:9200",
			"GRAFANA_USERNAME":  "root",
			"POLL_INTERVAL":     "250ms",
			TokenEnv:            "glsa_stale",
		} {
			Expect(os.Setenv(k, v)).To(Succeed())
			DeferCleanup(os.Unsetenv, k)
		}

		o := NewOptions()
		Expect(o.LoadEnv()).To(Succeed())
		Expect(o.ElasticsearchURL).To(Equal("http://es:9200"))
		Expect(o.GrafanaToken).To(BeEmpty())
		Expect(o.GrafanaUsername).To(Equal("root"))
		Expect(o.PollInterval).To(Equal(250 * time.Millisecond))
		Expect(o.GrafanaURL).To(Equal("http://localhost:3000/"))
	})
})
