// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package isolate

import (
	"context"
	"fmt"

	"github.com/atomist-sdm/sdmcore/lib/dispatch"
	"github.com/atomist-sdm/sdmcore/lib/ref"
)

// isolationKubernetes is the GoalInvocation.Parameters["isolation"]
// value that routes an invocation to KubernetesScheduler.
const isolationKubernetes = "k8s"

// goalSetLabel is the Job/Pod label goals in the same set share, used
// by the pod-affinity term so they prefer co-location.
const goalSetLabel = "sdm.atomist.com/goal-set-id"

// ObjectMeta mirrors the Kubernetes metadata fields this package
// needs. A hand-rolled subset rather than a full client library: no
// example in the corpus imports a Kubernetes client, and a Job
// manifest is a small, stable shape to construct and POST directly.
type ObjectMeta struct {
	Name      string            `json:"name"`
	Namespace string            `json:"namespace"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// Job is the minimal Kubernetes batch/v1 Job shape this package
// constructs and applies.
type Job struct {
	APIVersion string     `json:"apiVersion"`
	Kind       string     `json:"kind"`
	Metadata   ObjectMeta `json:"metadata"`
	Spec       JobSpec    `json:"spec"`
}

// JobSpec holds the fields of batch/v1 JobSpec this package sets.
type JobSpec struct {
	Template      PodTemplateSpec `json:"template"`
	BackoffLimit  int             `json:"backoffLimit"`
	TTLAfterFinished *int32       `json:"ttlSecondsAfterFinished,omitempty"`
}

// PodTemplateSpec holds the fields of the Job's embedded pod template
// this package sets.
type PodTemplateSpec struct {
	Metadata ObjectMeta `json:"metadata"`
	Spec     PodSpec    `json:"spec"`
}

// PodSpec holds the fields of the pod spec this package sets: the
// containers copied from the SDM's own deployment, an init container
// for repository cloning, the preferred pod affinity, and a Never
// restart policy (a failed isolated goal reports failure itself; the
// Job should not retry it).
type PodSpec struct {
	RestartPolicy  string        `json:"restartPolicy"`
	InitContainers []Container   `json:"initContainers,omitempty"`
	Containers     []Container   `json:"containers"`
	Affinity       *Affinity     `json:"affinity,omitempty"`
	Volumes        []Volume      `json:"volumes,omitempty"`
}

// Container is the subset of corev1.Container this package sets.
type Container struct {
	Name         string        `json:"name"`
	Image        string        `json:"image"`
	Command      []string      `json:"command,omitempty"`
	Args         []string      `json:"args,omitempty"`
	Env          []EnvVar      `json:"env,omitempty"`
	VolumeMounts []VolumeMount `json:"volumeMounts,omitempty"`
}

// EnvVar is a plain name/value environment variable.
type EnvVar struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Volume is an emptyDir volume, the only kind this package needs: the
// shared "home" volume an init container clones the repository into.
type Volume struct {
	Name     string       `json:"name"`
	EmptyDir *EmptyDirSpec `json:"emptyDir,omitempty"`
}

// EmptyDirSpec is an empty struct marking an emptyDir volume; present
// for JSON shape fidelity.
type EmptyDirSpec struct{}

// VolumeMount mounts a Volume into a Container.
type VolumeMount struct {
	Name      string `json:"name"`
	MountPath string `json:"mountPath"`
}

// Affinity holds the pod affinity terms this package sets.
type Affinity struct {
	PodAffinity *PodAffinity `json:"podAffinity,omitempty"`
}

// PodAffinity carries the preferred (not required) affinity terms:
// goals in the same set should co-locate when possible, but a Job
// must still schedule if they cannot.
type PodAffinity struct {
	PreferredDuringSchedulingIgnoredDuringExecution []WeightedPodAffinityTerm `json:"preferredDuringSchedulingIgnoredDuringExecution"`
}

// WeightedPodAffinityTerm pairs a PodAffinityTerm with a scheduling
// weight.
type WeightedPodAffinityTerm struct {
	Weight          int32           `json:"weight"`
	PodAffinityTerm PodAffinityTerm `json:"podAffinityTerm"`
}

// PodAffinityTerm matches pods by label, scoped to a topology key.
type PodAffinityTerm struct {
	LabelSelector LabelSelector `json:"labelSelector"`
	TopologyKey   string        `json:"topologyKey"`
}

// LabelSelector matches pods by exact label values.
type LabelSelector struct {
	MatchLabels map[string]string `json:"matchLabels"`
}

const homeVolumeName = "home"
const homeMountPath = "/atm/home"
const affinityWeight = int32(100)
const affinityTopologyKey = "kubernetes.io/hostname"

// jobName computes a Job name of the form
// <deployment>-job-<goalSetId[:7]>-<goalName>.
func jobName(deployment string, goalSetID ref.GoalSetID, goalName string) string {
	id := goalSetID.String()
	if len(id) > 7 {
		id = id[:7]
	}
	return fmt.Sprintf("%s-job-%s-%s", deployment, id, goalName)
}

// podAffinityTerm builds the preferred pod-affinity term keying goals
// in the same set to the same node. Pure construction over its
// inputs, no I/O.
func podAffinityTerm(goalSetID ref.GoalSetID) WeightedPodAffinityTerm {
	return WeightedPodAffinityTerm{
		Weight: affinityWeight,
		PodAffinityTerm: PodAffinityTerm{
			LabelSelector: LabelSelector{MatchLabels: map[string]string{goalSetLabel: goalSetID.String()}},
			TopologyKey:   affinityTopologyKey,
		},
	}
}

// JobInput carries everything buildJob needs to construct a Job
// manifest for one isolated goal.
type JobInput struct {
	Deployment  string
	Namespace   string
	GoalSetID   ref.GoalSetID
	GoalName    string
	RepoCloneURL string
	Container   Container
	Env         map[string]string
}

// buildJob constructs the Job manifest an isolated goal runs under:
// the SDM's own container plus the isolated-goal environment, an init container
// that clones the repository into a shared home volume, and a
// preferred pod affinity co-locating goals from the same set. Pure:
// no I/O, callers apply the result.
func buildJob(input JobInput) Job {
	name := jobName(input.Deployment, input.GoalSetID, input.GoalName)
	labels := map[string]string{goalSetLabel: input.GoalSetID.String()}

	container := input.Container
	container.Env = append(container.Env, envVars(input.Env)...)

	initContainer := Container{
		Name:    "clone-repository",
		Image:   input.Container.Image,
		Command: []string{"git", "clone", input.RepoCloneURL, homeMountPath},
		Env: []EnvVar{
			{Name: "ATOMIST_ISOLATED_GOAL_INIT", Value: "true"},
		},
		VolumeMounts: []VolumeMount{{Name: homeVolumeName, MountPath: homeMountPath}},
	}
	container.VolumeMounts = append(container.VolumeMounts, VolumeMount{Name: homeVolumeName, MountPath: homeMountPath})

	return Job{
		APIVersion: "batch/v1",
		Kind:       "Job",
		Metadata:   ObjectMeta{Name: name, Namespace: input.Namespace, Labels: labels},
		Spec: JobSpec{
			BackoffLimit: 0,
			Template: PodTemplateSpec{
				Metadata: ObjectMeta{Labels: labels},
				Spec: PodSpec{
					RestartPolicy:  "Never",
					InitContainers: []Container{initContainer},
					Containers:     []Container{container},
					Affinity: &Affinity{PodAffinity: &PodAffinity{
						PreferredDuringSchedulingIgnoredDuringExecution: []WeightedPodAffinityTerm{podAffinityTerm(input.GoalSetID)},
					}},
					Volumes: []Volume{{Name: homeVolumeName, EmptyDir: &EmptyDirSpec{}}},
				},
			},
		},
	}
}

func envVars(values map[string]string) []EnvVar {
	vars := make([]EnvVar, 0, len(values))
	for name, value := range values {
		vars = append(vars, EnvVar{Name: name, Value: value})
	}
	return vars
}

// Client abstracts the Kubernetes API operations KubernetesScheduler
// and the cleanup sweep need, so both can be tested without a real
// cluster.
type Client interface {
	// ApplyJob creates the Job, or replaces it with force if a Job of
	// the same name already exists (re-dispatch of the same goal must
	// be idempotent).
	ApplyJob(ctx context.Context, job Job) error

	// ListSucceededJobNames lists the names of Jobs in namespace whose
	// name has the given prefix and whose status.succeeded > 0.
	ListSucceededJobNames(ctx context.Context, namespace, namePrefix string) ([]string, error)

	// DeleteJob deletes the named Job.
	DeleteJob(ctx context.Context, namespace, name string) error
}

// KubernetesScheduler fulfills a goal by applying a Job manifest that
// clones the SDM's own Pod spec.
type KubernetesScheduler struct {
	Client Client

	// Deployment and Namespace identify the SDM's own deployment, used
	// to name and label Jobs and to read the template container.
	Deployment string
	Namespace  string

	// Container is the SDM's own container spec, copied into every
	// Job this scheduler creates.
	Container Container

	// RepoCloneURL is the repository the init container clones.
	RepoCloneURL string
}

// Supports claims invocations whose goal implementation requested
// Kubernetes Job isolation.
func (k *KubernetesScheduler) Supports(inv dispatch.GoalInvocation) bool {
	return inv.Parameters["isolation"] == isolationKubernetes
}

// Schedule applies the Job manifest and returns immediately: the Job
// itself reports the goal's terminal state over the bootstrap socket
// once its container runs, so Schedule returns a zero Result, which
// the dispatcher reads as "scheduled, no terminal state yet."
func (k *KubernetesScheduler) Schedule(ctx context.Context, inv dispatch.GoalInvocation) (dispatch.Result, error) {
	e := inv.Goal
	job := buildJob(JobInput{
		Deployment:   k.Deployment,
		Namespace:    k.Namespace,
		GoalSetID:    e.GoalSetID,
		GoalName:     e.UniqueName.String(),
		RepoCloneURL: k.RepoCloneURL,
		Container:    k.Container,
		Env: map[string]string{
			"ATOMIST_ISOLATED_GOAL":    "true",
			"ATOMIST_GOAL_SET_ID":      e.GoalSetID.String(),
			"ATOMIST_GOAL_UNIQUE_NAME": e.UniqueName.String(),
			"ATOMIST_CORRELATION_ID":   inv.Parameters["correlationId"],
			"ATOMIST_GOAL_TEAM":        inv.Parameters["team"],
			"ATOMIST_GOAL_TEAM_NAME":   inv.Parameters["teamName"],
		},
	})

	if err := k.Client.ApplyJob(ctx, job); err != nil {
		return dispatch.Result{}, fmt.Errorf("applying job %s: %w", job.Metadata.Name, err)
	}
	return dispatch.Result{Phase: "scheduled"}, nil
}
