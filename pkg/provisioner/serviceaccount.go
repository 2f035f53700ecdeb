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

package provisioner

import (
	"context"

	"go.openviz.dev/grafana-provisioner/pkg/grafana"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

const (
	DefaultServiceAccountName = "sa-for-cpuad"
	DefaultServiceAccountRole = "Admin"
	DefaultTokenName          = "sa-for-cpuad-key"
)

type ServiceAccountClient interface {
	CreateServiceAccount(ctx context.Context, sa grafana.ServiceAccount) (*grafana.ServiceAccount, error)
	CreateServiceAccountToken(ctx context.Context, saID int64, token grafana.ServiceAccountToken) (*grafana.ServiceAccountTokenResponse, error)
}

// Provisioner creates the service account used by the remaining steps and
// issues an API token for it.
type Provisioner struct {
	Client         ServiceAccountClient
	ServiceAccount grafana.ServiceAccount
	Token          grafana.ServiceAccountToken
}

func New(c ServiceAccountClient) *Provisioner {
	return &Provisioner{
		Client: c,
		ServiceAccount: grafana.ServiceAccount{
			Name:       DefaultServiceAccountName,
			Role:       DefaultServiceAccountRole,
			IsDisabled: false,
		},
		Token: grafana.ServiceAccountToken{
			Name:          DefaultTokenName,
			SecondsToLive: 0,
		},
	}
}

// Provision returns the token key. On failure the returned key is always empty.
func (p *Provisioner) Provision(ctx context.Context) (string, error) {
	sa, err := p.Client.CreateServiceAccount(ctx, p.ServiceAccount)
	if err != nil {
		klog.Errorf("Failed to create service account %s: %v", p.ServiceAccount.Name, err)
		return "", errors.Wrap(err, "failed to create service account")
	}
	klog.Infof("Service account %s created successfully.", sa.Name)

	tok, err := p.Client.CreateServiceAccountToken(ctx, sa.ID, p.Token)
	if err != nil {
		klog.Errorf("Failed to create Grafana API token: %v", err)
		return "", errors.Wrap(err, "failed to create Grafana API token")
	}
	klog.Infof("Grafana API token %s created successfully.", p.Token.Name)

	return tok.Key, nil
}
