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

package readiness

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/klog/v2"
)

const DefaultInterval = 5 * time.Second

// ProbeFunc performs a single readiness check and reports the HTTP status code.
type ProbeFunc func(ctx context.Context) (int, error)

// Poller waits for a service until its probe answers 200.
type Poller struct {
	Name     string
	Interval time.Duration
	Probe    ProbeFunc
}

func New(name string, probe ProbeFunc) *Poller {
	return &Poller{
		Name:     name,
		Interval: DefaultInterval,
		Probe:    probe,
	}
}

// Wait blocks until the probe reports http.StatusOK. Probe errors and any
// other status mean "not ready yet". There is no retry limit, only ctx
// cancellation ends the wait early.
func (p *Poller) Wait(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	err := wait.PollImmediateUntilWithContext(ctx, interval, func(ctx context.Context) (bool, error) {
		code, err := p.Probe(ctx)
		if err != nil {
			klog.Errorf("%s is not reachable: %v", p.Name, err)
			return false, nil
		}
		if code != http.StatusOK {
			klog.Infof("%s is not ready yet, status: %d", p.Name, code)
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return errors.Wrapf(ctx.Err(), "stopped waiting for %s", p.Name)
		}
		return err
	}
	klog.Infof("%s is up and running.", p.Name)
	return nil
}
