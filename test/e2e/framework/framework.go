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

package framework

import (
	"go.openviz.dev/grafana-provisioner/pkg/grafana"

	"gomodules.xyz/x/crypto/rand"
)

type Framework struct {
	gc *grafana.Client

	elasticsearchURL string
	datasourceURL    string
	outputDir        string
}

func New(gc *grafana.Client, elasticsearchURL, datasourceURL, outputDir string) *Framework {
	return &Framework{
		gc:               gc,
		elasticsearchURL: elasticsearchURL,
		datasourceURL:    datasourceURL,
		outputDir:        outputDir,
	}
}

func (f *Framework) Invoke() *Invocation {
	return &Invocation{
		Framework: f,
		name:      rand.WithUniqSuffix("sa-e2e"),
		uid:       rand.WithUniqSuffix("cpuad"),
	}
}

func (f *Framework) OutputDir() string {
	return f.outputDir
}

func (f *Framework) ElasticsearchURL() string {
	return f.elasticsearchURL
}

func (f *Framework) DatasourceURL() string {
	return f.datasourceURL
}

type Invocation struct {
	*Framework
	name string
	uid  string
}

func (fi *Invocation) Name() string {
	return fi.name
}

func (fi *Invocation) DashboardUID() string {
	return fi.uid
}
