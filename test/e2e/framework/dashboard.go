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
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.openviz.dev/grafana-provisioner/pkg/dashboard"
	"go.openviz.dev/grafana-provisioner/pkg/datasource"
	"go.openviz.dev/grafana-provisioner/pkg/grafana"
)

// WriteDashboardTemplate writes an import request with one table panel per
// default data source and returns its path.
func (fi *Invocation) WriteDashboardTemplate() (string, error) {
	panels := make([]map[string]interface{}, 0)
	for i, name := range datasource.Names(datasource.DefaultSpecs()) {
		panels = append(panels, map[string]interface{}{
			"id":    i + 1,
			"type":  "table",
			"title": name,
			"datasource": map[string]string{
				"type": datasource.TypeElasticsearch,
				"uid":  dashboard.Placeholder(name),
			},
			"gridPos": map[string]int{"h": 8, "w": 12, "x": 0, "y": 8 * i},
		})
	}
	req := map[string]interface{}{
		"dashboard": map[string]interface{}{
			"uid":           fi.uid,
			"title":         fmt.Sprintf("Copilot Usage %s", fi.uid),
			"panels":        panels,
			"schemaVersion": 39,
		},
		"overwrite": true,
		"inputs":    []interface{}{},
		"folderUid": "",
	}
	data, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(fi.outputDir, fi.uid+"-template.json")
	return path, os.WriteFile(path, data, 0o644)
}

func (fi *Invocation) GetDashboardModel() ([]byte, error) {
	db, err := fi.gc.GetDashboardByUID(context.TODO(), fi.uid)
	if err != nil {
		return nil, err
	}
	return db.Dashboard, nil
}

func (fi *Invocation) DeleteDashboard() error {
	_, err := fi.gc.DeleteDashboardByUID(context.TODO(), fi.uid)
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

func isNotFound(err error) bool {
	apiErr, ok := err.(*grafana.APIError)
	return ok && apiErr.StatusCode == 404
}
