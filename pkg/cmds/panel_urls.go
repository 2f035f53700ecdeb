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

package cmds

import (
	"fmt"
	"os"

	"go.openviz.dev/grafana-provisioner/pkg/dashboard"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func NewCmdPanelURLs() *cobra.Command {
	var (
		modelPath  string
		grafanaURL = os.Getenv("GRAFANA_URL")
		opts       = dashboard.PanelURLOptions{
			OrgID: 1,
			From:  "now-30d",
			To:    "now",
		}
	)
	if grafanaURL == "" {
		grafanaURL = "http://localhost:3000/"
	}

	cmd := &cobra.Command{
		Use:               "panel-urls",
		Short:             "Print embeddable panel urls of a dashboard model",
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if modelPath == "" {
				return errors.New("--dashboard-model is required")
			}
			model, err := os.ReadFile(modelPath)
			if err != nil {
				return errors.Wrapf(err, "failed to read dashboard model %s", modelPath)
			}
			urls, err := dashboard.PanelURLs(grafanaURL, model, opts)
			if err != nil {
				return err
			}
			for _, u := range urls {
				fmt.Fprintln(cmd.OutOrStdout(), u)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&modelPath, "dashboard-model", modelPath, "Path to the rendered dashboard model")
	cmd.Flags().StringVar(&grafanaURL, "grafana-url", grafanaURL, "Public address of the Grafana server (env GRAFANA_URL)")
	cmd.Flags().Int64Var(&opts.OrgID, "org-id", opts.OrgID, "Grafana organization id")
	cmd.Flags().StringVar(&opts.From, "from", opts.From, "Start of the time range, any value Grafana accepts")
	cmd.Flags().StringVar(&opts.To, "to", opts.To, "End of the time range, any value Grafana accepts")
	cmd.Flags().StringVar(&opts.Theme, "theme", opts.Theme, "Panel theme, light or dark")

	return cmd
}
