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
	"net/http"
	"time"

	. "github.com/onsi/gomega"
)

func (f *Framework) WaitForGrafanaServerToBeReady() {
	Eventually(func() int {
		code, err := f.gc.Probe(context.TODO())
		if err != nil {
			return 0
		}
		return code
	}, 5*time.Minute, time.Second).Should(Equal(http.StatusOK))
}

func (f *Framework) DatasourceNames() ([]string, error) {
	list, err := f.gc.ListDatasources(context.TODO())
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(list))
	for _, ds := range list {
		names = append(names, ds.Name)
	}
	return names, nil
}
