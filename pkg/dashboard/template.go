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
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.openviz.dev/grafana-provisioner/pkg/grafana"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"k8s.io/klog/v2"
)

const (
	DefaultTemplatePath = "dashboard-template.json"

	modelFileFormat   = "dashboard-model-%s.json"
	mappingFileFormat = "dashboard-model-data_sources_name_uid_mapping-%s.json"
	dateLayout        = "2006-01-02"

	placeholderSuffix = "-uid"
)

type DatasourceLister interface {
	ListDatasources(ctx context.Context) ([]grafana.Datasource, error)
}

// Materializer turns the dashboard template into an importable model by
// replacing `<name>-uid` placeholders with data source uids.
type Materializer struct {
	Fs           afero.Fs
	TemplatePath string
	OutputDir    string
	// Names lists the data sources whose placeholders are replaced.
	Names []string
	Now   func() time.Time
}

type Result struct {
	Model       string
	ModelPath   string
	MappingPath string
	Mapping     map[string]string
	// Checksum is the xxh3 hash of Model.
	Checksum uint64
	// Unchanged is set when ModelPath already held an identical model.
	Unchanged bool
}

// Placeholder returns the token the template uses for the uid of name.
func Placeholder(name string) string {
	return name + placeholderSuffix
}

// Mapping indexes data source uids by name.
func Mapping(list []grafana.Datasource) map[string]string {
	return lo.SliceToMap(list, func(ds grafana.Datasource) (string, string) {
		return ds.Name, ds.UID
	})
}

// Substitute replaces the placeholder of every name with its uid. All names
// must be present in mapping.
func Substitute(template string, mapping map[string]string, names []string) (string, error) {
	missing := lo.Filter(names, func(name string, _ int) bool {
		return mapping[name] == ""
	})
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", fmt.Errorf("data sources %s not found, they must be created first", strings.Join(missing, ", "))
	}

	out := template
	for _, name := range names {
		out = strings.ReplaceAll(out, Placeholder(name), mapping[name])
	}
	return out, nil
}

func (m *Materializer) ModelPath(t time.Time) string {
	return filepath.Join(m.OutputDir, fmt.Sprintf(modelFileFormat, t.Format(dateLayout)))
}

func (m *Materializer) MappingPath(t time.Time) string {
	return filepath.Join(m.OutputDir, fmt.Sprintf(mappingFileFormat, t.Format(dateLayout)))
}

// Materialize fetches the registered data sources, stores the name to uid
// mapping, renders the template and writes the model next to it.
func (m *Materializer) Materialize(ctx context.Context, lister DatasourceLister) (*Result, error) {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	today := now()

	list, err := lister.ListDatasources(ctx)
	if err != nil {
		klog.Errorf("Failed to get data sources: %v", err)
		return nil, errors.Wrap(err, "failed to get data sources")
	}
	mapping := Mapping(list)

	if m.OutputDir != "" {
		if err := m.Fs.MkdirAll(m.OutputDir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "failed to create output directory %s", m.OutputDir)
		}
	}

	mappingPath := m.MappingPath(today)
	data, err := json.MarshalIndent(mapping, "", "    ")
	if err != nil {
		return nil, err
	}
	if err := afero.WriteFile(m.Fs, mappingPath, data, 0o644); err != nil {
		return nil, errors.Wrapf(err, "failed to write %s", mappingPath)
	}
	klog.Infof("Wrote data source uid mapping for %d data sources to %s", len(mapping), mappingPath)

	tpl, err := afero.ReadFile(m.Fs, m.TemplatePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read dashboard template %s", m.TemplatePath)
	}

	model, err := Substitute(string(tpl), mapping, m.Names)
	if err != nil {
		klog.Errorf("Failed to render dashboard template %s: %v", m.TemplatePath, err)
		return nil, err
	}

	res := &Result{
		Model:       model,
		ModelPath:   m.ModelPath(today),
		MappingPath: mappingPath,
		Mapping:     mapping,
		Checksum:    Checksum([]byte(model)),
	}
	if existing, err := afero.ReadFile(m.Fs, res.ModelPath); err == nil && Checksum(existing) == res.Checksum {
		res.Unchanged = true
		klog.Infof("Dashboard model %s is up to date, checksum %016x", res.ModelPath, res.Checksum)
		return res, nil
	}
	if err := afero.WriteFile(m.Fs, res.ModelPath, []byte(model), 0o644); err != nil {
		return nil, errors.Wrapf(err, "failed to write %s", res.ModelPath)
	}
	klog.Infof("Wrote dashboard model (%s) to %s", humanize.Bytes(uint64(len(model))), res.ModelPath)
	return res, nil
}
