// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package isolate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPClient talks to the Kubernetes API server's REST endpoints
// directly over net/http. No client library for Kubernetes appears
// anywhere in the reference corpus this module was built from, so the
// small, stable set of calls this package needs (apply, list, delete
// a Job) are issued by hand rather than pulling in an SDK with no
// grounding.
type HTTPClient struct {
	// BaseURL is the API server address, e.g.
	// https://kubernetes.default.svc.
	BaseURL string

	// BearerToken authenticates requests, normally the in-cluster
	// service account token.
	BearerToken string

	// HTTP is the client used for requests. Defaults to
	// http.DefaultClient when nil.
	HTTP *http.Client
}

func (c *HTTPClient) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("isolate: encoding request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("isolate: building request: %w", err)
	}
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("isolate: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("isolate: %s %s: status %d: %s", method, path, resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ApplyJob creates the Job, replacing any existing Job of the same
// name first: Kubernetes Jobs are immutable once created, so the
// idempotent-replace semantics the dispatcher needs require a delete
// before the create when a prior attempt already succeeded in
// creating the object.
func (c *HTTPClient) ApplyJob(ctx context.Context, job Job) error {
	jobsPath := fmt.Sprintf("/apis/batch/v1/namespaces/%s/jobs", job.Metadata.Namespace)
	err := c.do(ctx, http.MethodPost, jobsPath, job, nil)
	if err == nil {
		return nil
	}
	if !strings.Contains(err.Error(), "status 409") {
		return err
	}

	if delErr := c.DeleteJob(ctx, job.Metadata.Namespace, job.Metadata.Name); delErr != nil {
		return fmt.Errorf("isolate: replacing existing job %s: %w", job.Metadata.Name, delErr)
	}
	return c.do(ctx, http.MethodPost, jobsPath, job, nil)
}

// jobList is the subset of batch/v1 JobList this package reads.
type jobList struct {
	Items []struct {
		Metadata ObjectMeta `json:"metadata"`
		Status   struct {
			Succeeded int `json:"succeeded"`
		} `json:"status"`
	} `json:"items"`
}

// ListSucceededJobNames lists succeeded Jobs in namespace whose name
// starts with namePrefix.
func (c *HTTPClient) ListSucceededJobNames(ctx context.Context, namespace, namePrefix string) ([]string, error) {
	var list jobList
	path := fmt.Sprintf("/apis/batch/v1/namespaces/%s/jobs", namespace)
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}

	var names []string
	for _, item := range list.Items {
		if item.Status.Succeeded > 0 && strings.HasPrefix(item.Metadata.Name, namePrefix) {
			names = append(names, item.Metadata.Name)
		}
	}
	return names, nil
}

// deleteJobRequest sets propagationPolicy so deleting a Job also
// deletes the Pods it created; otherwise completed Pods would outlive
// their Job indefinitely.
type deleteJobRequest struct {
	PropagationPolicy string `json:"propagationPolicy"`
}

// DeleteJob deletes the named Job and its Pods.
func (c *HTTPClient) DeleteJob(ctx context.Context, namespace, name string) error {
	path := fmt.Sprintf("/apis/batch/v1/namespaces/%s/jobs/%s", namespace, name)
	return c.do(ctx, http.MethodDelete, path, deleteJobRequest{PropagationPolicy: "Background"}, nil)
}

var _ Client = (*HTTPClient)(nil)
