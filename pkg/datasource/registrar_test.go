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

package datasource_test

import (
	"context"
	"net/http"

	"go.openviz.dev/grafana-provisioner/pkg/datasource"
	"go.openviz.dev/grafana-provisioner/pkg/grafana"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
	"gomodules.xyz/x/crypto/rand"
)

var _ = Describe("Registrar", func() {
	const esURL = "http://elasticsearch:9200"

	var (
		server *ghttp.Server
		reg    *datasource.Registrar
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		gc, err := grafana.NewClient(&grafana.Config{
			Addr:       server.URL(),
			AuthConfig: &grafana.AuthConfig{BearerToken: "glsa_secret"},
		})
		Expect(err).NotTo(HaveOccurred())
		reg = &datasource.Registrar{Client: gc, URL: esURL}
	})

	AfterEach(func() {
		server.Close()
	})

	respond := func(spec datasource.Spec, status int) http.HandlerFunc {
		return ghttp.CombineHandlers(
			ghttp.VerifyRequest(http.MethodPost, "/api/datasources"),
			ghttp.VerifyHeaderKV("Authorization", "Bearer glsa_secret"),
			ghttp.VerifyJSONRepresenting(datasource.Payload(spec, esURL)),
			ghttp.RespondWithJSONEncoded(status, map[string]interface{}{
				"id":      1,
				"name":    spec.Name,
				"message": http.StatusText(status),
			}),
		)
	}

	It("should register the five default data sources", func() {
		specs := datasource.DefaultSpecs()
		Expect(specs).To(HaveLen(5))
		for _, spec := range specs {
			server.AppendHandlers(respond(spec, http.StatusOK))
		}

		result, err := reg.Register(context.Background(), specs)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Created).To(Equal(datasource.Names(specs)))
		Expect(result.Existing).To(BeEmpty())
	})

	It("should treat every conflict as already registered", func() {
		specs := datasource.DefaultSpecs()
		for i, spec := range specs {
			status := http.StatusOK
			if i%2 == 0 {
				status = http.StatusConflict
			}
			server.AppendHandlers(respond(spec, status))
		}

		result, err := reg.Register(context.Background(), specs)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Existing).To(ConsistOf("elasticsearch-breakdown", "elasticsearch-total", "elasticsearch-seat-assignments"))
		Expect(result.Created).To(ConsistOf("elasticsearch-breakdown-chat", "elasticsearch-seat-info-settings"))
	})

	DescribeTable("should stop on any other failure",
		func(status int) {
			specs := []datasource.Spec{
				{Name: rand.WithUniqSuffix("es"), Index: "copilot_usage_total"},
				{Name: rand.WithUniqSuffix("es"), Index: "copilot_usage_breakdown"},
			}
			server.AppendHandlers(respond(specs[0], status))

			result, err := reg.Register(context.Background(), specs)
			Expect(err).To(MatchError(ContainSubstring(specs[0].Name)))
			Expect(result.Created).To(BeEmpty())
			Expect(server.ReceivedRequests()).To(HaveLen(1))
		},
		Entry("bad request", http.StatusBadRequest),
		Entry("unauthorized", http.StatusUnauthorized),
		Entry("created", http.StatusCreated),
		Entry("internal error", http.StatusInternalServerError),
	)

	It("should send the fixed elasticsearch settings", func() {
		ds := datasource.Payload(datasource.Spec{Name: "elasticsearch-total", Index: "copilot_usage_total"}, esURL)
		Expect(ds.Type).To(Equal("elasticsearch"))
		Expect(ds.Access).To(Equal("proxy"))
		Expect(ds.URL).To(Equal(esURL))
		Expect(ds.JSONData).To(Equal(datasource.ElasticsearchJSONData{
			Index:                      "copilot_usage_total",
			MaxConcurrentShardRequests: 5,
			TimeField:                  "day",
			TimeInterval:               "1d",
		}))
	})
})
