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
	"go.openviz.dev/grafana-provisioner/pkg/cmds/provision"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

func NewCmdWait() *cobra.Command {
	o := provision.NewWaitOptions()
	envErr := o.LoadEnv()

	cmd := &cobra.Command{
		Use:               "wait",
		Short:             "Block until Elasticsearch and Grafana are reachable",
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if envErr != nil {
				return errors.Wrap(envErr, "could not read configuration from environment")
			}
			if err := utilerrors.NewAggregate(o.Validate()); err != nil {
				return err
			}
			if err := o.Complete(); err != nil {
				return err
			}
			return o.Wait(cmd.Context())
		},
	}

	o.AddFlags(cmd.Flags())

	return cmd
}
