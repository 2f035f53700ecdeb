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
	"encoding/json"

	"github.com/grafana-tools/sdk"
	"github.com/pkg/errors"
	"github.com/zeebo/xxh3"
)

const rowPanelType = "row"

type Summary struct {
	Title    string
	UID      string
	Panels   int
	Checksum uint64
}

// panelRef is the part of a panel needed to address it. Row panels keep
// their collapsed children in Panels.
type panelRef struct {
	ID     uint       `json:"id"`
	Type   string     `json:"type"`
	Panels []panelRef `json:"panels,omitempty"`
}

type layout struct {
	Panels []panelRef `json:"panels"`
	Rows   []struct {
		Panels []panelRef `json:"panels"`
	} `json:"rows"`
}

// Inspect decodes a dashboard model, either an import request
// ({"dashboard": {...}, ...}) or a bare dashboard.
func Inspect(model []byte) (*Summary, error) {
	board, panels, err := decodeBoard(model)
	if err != nil {
		return nil, err
	}
	return &Summary{
		Title:    board.Title,
		UID:      board.UID,
		Panels:   len(panels),
		Checksum: Checksum(model),
	}, nil
}

func Checksum(model []byte) uint64 {
	return xxh3.Hash(model)
}

// decodeBoard returns the dashboard and its embeddable panels in layout
// order. Row panels are replaced by the panels they hold, legacy rows
// are flattened the same way.
func decodeBoard(model []byte) (*sdk.Board, []panelRef, error) {
	var envelope struct {
		Dashboard json.RawMessage `json:"dashboard"`
	}
	if err := json.Unmarshal(model, &envelope); err != nil {
		return nil, nil, errors.Wrap(err, "dashboard model is not valid JSON")
	}
	raw := model
	if len(envelope.Dashboard) > 0 && string(envelope.Dashboard) != "null" {
		raw = envelope.Dashboard
	}

	board := &sdk.Board{}
	if err := json.Unmarshal(raw, board); err != nil {
		return nil, nil, errors.Wrap(err, "failed to decode dashboard")
	}
	var l layout
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, nil, errors.Wrap(err, "failed to decode dashboard panels")
	}

	panels := flatten(nil, l.Panels)
	for _, row := range l.Rows {
		panels = flatten(panels, row.Panels)
	}
	return board, panels, nil
}

func flatten(out []panelRef, panels []panelRef) []panelRef {
	for _, p := range panels {
		if p.Type == rowPanelType {
			out = flatten(out, p.Panels)
			continue
		}
		out = append(out, p)
	}
	return out
}
