// Copyright (c) 2025, Drydock Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package health

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/drydock-sh/drydock/pkg/defaults"
	"github.com/drydock-sh/drydock/pkg/environment"
	"github.com/drydock-sh/drydock/pkg/stack"
)

const partOfLabel = "app.kubernetes.io/part-of"

// logScanTokens are substrings that flag a log line as suspicious. Matching
// is case-insensitive.
var logScanTokens = []string{"panic:", "fatal", "error"}

// Verifier checks a deployed service from the outside: pod readiness,
// endpoint wiring, ingress binding, HTTP reachability, and a bounded scan of
// recent container logs. HTTP probes are rate limited so verification sweeps
// across many services stay polite.
type Verifier struct {
	client  kubernetes.Interface
	http    *http.Client
	limiter *rate.Limiter

	// probeURL overrides the hostname-derived endpoint when set.
	probeURL string
	tail     int64
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithHTTPClient overrides the probe client.
func WithHTTPClient(c *http.Client) VerifierOption {
	return func(v *Verifier) {
		if c != nil {
			v.http = c
		}
	}
}

// WithProbeURL overrides the URL probed for reachability instead of the
// environment hostname.
func WithProbeURL(u string) VerifierOption {
	return func(v *Verifier) { v.probeURL = u }
}

// NewVerifier creates a verifier over the given clientset.
func NewVerifier(client kubernetes.Interface, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		client:  client,
		http:    &http.Client{Timeout: defaults.HealthHTTPTimeout},
		limiter: rate.NewLimiter(rate.Limit(defaults.ProbeRatePerSecond), 1),
		tail:    defaults.LogScanTailLines,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify runs all checks for the service in the environment. It always
// returns a report; the error is reserved for verification being impossible
// (e.g. the API server is unreachable), not for failed checks.
func (v *Verifier) Verify(ctx context.Context, svc *stack.ServiceDescriptor, env *environment.Environment) (*Report, error) {
	rep := &Report{Service: svc.Name, Environment: env.ID, Verified: time.Now().UTC()}
	log := slog.With("service", svc.Name, "environment", env.ID)

	pods, err := v.checkPods(ctx, rep, svc, env.Namespace)
	if err != nil {
		return rep, err
	}
	if err := v.checkEndpoints(ctx, rep, svc, env.Namespace); err != nil {
		return rep, err
	}
	if svc.NeedsBaseURL {
		if err := v.checkIngress(ctx, rep, svc, env); err != nil {
			return rep, err
		}
		v.checkReachable(ctx, rep, svc, env)
	}
	v.scanLogs(ctx, rep, env.Namespace, pods)
	recordMetrics(rep)

	log.Info("verification complete",
		"healthy", rep.Healthy(),
		"failures", len(rep.Failures()),
		"warnings", len(rep.Warnings()))
	return rep, nil
}

// checkPods verifies every pod belonging to the service is ready and flags
// restart churn as a warning. The matching pods are returned for log
// scanning.
func (v *Verifier) checkPods(ctx context.Context, rep *Report, svc *stack.ServiceDescriptor, namespace string) ([]corev1.Pod, error) {
	list, err := v.client.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: fmt.Sprintf("%s=%s", partOfLabel, svc.Name),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods for %s: %w", svc.Name, err)
	}
	if len(list.Items) == 0 {
		rep.add("pod-readiness", ClassFailure, false, "no pods found")
		return nil, nil
	}

	notReady := 0
	for _, pod := range list.Items {
		if !podReady(&pod) {
			notReady++
		}
		for _, cs := range pod.Status.ContainerStatuses {
			if cs.RestartCount > defaults.RestartWarnThreshold {
				rep.add("restart-churn", ClassWarning, false,
					fmt.Sprintf("container %s in pod %s restarted %d times", cs.Name, pod.Name, cs.RestartCount))
			}
		}
	}
	if notReady > 0 {
		rep.add("pod-readiness", ClassFailure, false,
			fmt.Sprintf("%d of %d pods not ready", notReady, len(list.Items)))
	} else {
		rep.add("pod-readiness", ClassFailure, true,
			fmt.Sprintf("%d pods ready", len(list.Items)))
	}
	return list.Items, nil
}

// checkEndpoints verifies each component service has at least one ready
// endpoint address.
func (v *Verifier) checkEndpoints(ctx context.Context, rep *Report, svc *stack.ServiceDescriptor, namespace string) error {
	for _, comp := range svc.Components {
		eps, err := v.client.CoreV1().Endpoints(namespace).Get(ctx, comp.Name, metav1.GetOptions{})
		if apierrors.IsNotFound(err) {
			rep.add("endpoints", ClassFailure, false, fmt.Sprintf("service %s has no endpoints object", comp.Name))
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to get endpoints for %s: %w", comp.Name, err)
		}
		ready := 0
		for _, subset := range eps.Subsets {
			ready += len(subset.Addresses)
		}
		if ready == 0 {
			rep.add("endpoints", ClassFailure, false, fmt.Sprintf("service %s has no ready addresses", comp.Name))
		} else {
			rep.add("endpoints", ClassFailure, true, fmt.Sprintf("service %s: %d addresses", comp.Name, ready))
		}
	}
	return nil
}

// checkIngress verifies the ingress exists and routes the expected hostname.
func (v *Verifier) checkIngress(ctx context.Context, rep *Report, svc *stack.ServiceDescriptor, env *environment.Environment) error {
	app := svc.App()
	if app == nil {
		return nil
	}
	ing, err := v.client.NetworkingV1().Ingresses(env.Namespace).Get(ctx, app.Name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		rep.add("ingress", ClassFailure, false, fmt.Sprintf("ingress %s not found", app.Name))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get ingress for %s: %w", app.Name, err)
	}
	want := env.Hostname(svc.Name)
	for _, rule := range ing.Spec.Rules {
		if rule.Host == want {
			rep.add("ingress", ClassFailure, true, fmt.Sprintf("routes %s", want))
			return nil
		}
	}
	rep.add("ingress", ClassFailure, false, fmt.Sprintf("no rule for host %s", want))
	return nil
}

// checkReachable probes the service URL and accepts any 2xx or 3xx answer.
func (v *Verifier) checkReachable(ctx context.Context, rep *Report, svc *stack.ServiceDescriptor, env *environment.Environment) {
	url := v.probeURL
	if url == "" {
		url = fmt.Sprintf("https://%s/", env.Hostname(svc.Name))
	}
	if err := v.limiter.Wait(ctx); err != nil {
		rep.add("http-reachability", ClassFailure, false, err.Error())
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		rep.add("http-reachability", ClassFailure, false, err.Error())
		return
	}
	resp, err := v.http.Do(req)
	if err != nil {
		rep.add("http-reachability", ClassFailure, false, err.Error())
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		rep.add("http-reachability", ClassFailure, true, resp.Status)
	} else {
		rep.add("http-reachability", ClassFailure, false, resp.Status)
	}
}

// scanLogs tails recent container logs and raises a warning per pod whose
// output contains a suspicious token. Scan problems are themselves only
// warnings; verification never fails because logs were unavailable.
func (v *Verifier) scanLogs(ctx context.Context, rep *Report, namespace string, pods []corev1.Pod) {
	for _, pod := range pods {
		req := v.client.CoreV1().Pods(namespace).GetLogs(pod.Name, &corev1.PodLogOptions{TailLines: &v.tail})
		stream, err := req.Stream(ctx)
		if err != nil {
			rep.add("log-scan", ClassWarning, false, fmt.Sprintf("pod %s: logs unavailable: %v", pod.Name, err))
			continue
		}
		data, err := io.ReadAll(io.LimitReader(stream, 1<<20))
		stream.Close()
		if err != nil {
			rep.add("log-scan", ClassWarning, false, fmt.Sprintf("pod %s: %v", pod.Name, err))
			continue
		}
		if tok := firstSuspiciousToken(string(data)); tok != "" {
			rep.add("log-scan", ClassWarning, false, fmt.Sprintf("pod %s logs contain %q", pod.Name, tok))
		}
	}
}

func firstSuspiciousToken(logs string) string {
	lower := strings.ToLower(logs)
	for _, tok := range logScanTokens {
		if strings.Contains(lower, tok) {
			return tok
		}
	}
	return ""
}

func podReady(pod *corev1.Pod) bool {
	if pod.Status.Phase != corev1.PodRunning {
		return false
	}
	for _, cond := range pod.Status.Conditions {
		if cond.Type == corev1.PodReady {
			return cond.Status == corev1.ConditionTrue
		}
	}
	return false
}
