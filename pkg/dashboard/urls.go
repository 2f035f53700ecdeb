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
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"github.com/pkg/errors"
)

// PanelURLOptions control the embeddable (d-solo) panel links.
type PanelURLOptions struct {
	OrgID int64
	From  string
	To    string
	Theme string
}

// PanelURLs returns one d-solo URL per panel of the dashboard model.
func PanelURLs(grafanaURL string, model []byte, opts PanelURLOptions) ([]string, error) {
	board, panels, err := decodeBoard(model)
	if err != nil {
		return nil, err
	}
	if board.UID == "" {
		return nil, errors.New("dashboard uid is missing, panel urls need a stable uid")
	}
	s := board.Slug
	if s == "" {
		s = Slugify(board.Title)
	}
	base := strings.TrimSuffix(grafanaURL, "/")

	urls := make([]string, 0, len(panels))
	for _, p := range panels {
		if p.ID == 0 {
			continue
		}
		q := url.Values{}
		q.Set("orgId", strconv.FormatInt(opts.OrgID, 10))
		q.Set("from", opts.From)
		q.Set("to", opts.To)
		if opts.Theme != "" {
			q.Set("theme", opts.Theme)
		}
		q.Set("panelId", strconv.FormatUint(uint64(p.ID), 10))
		urls = append(urls, fmt.Sprintf("%s/d-solo/%s/%s?%s", base, board.UID, s, q.Encode()))
	}
	return urls, nil
}

// Slugify derives the url slug Grafana uses for a dashboard title.
func Slugify(title string) string {
	return slug.Make(title)
}
