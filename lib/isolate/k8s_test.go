// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package isolate

import (
	"context"
	"log/slog"
	"testing"

	"github.com/atomist-sdm/sdmcore/lib/clock"
	"github.com/atomist-sdm/sdmcore/lib/dispatch"
	"github.com/atomist-sdm/sdmcore/lib/ref"
	"github.com/atomist-sdm/sdmcore/lib/schema/goal"
)

func TestJobNameTruncatesGoalSetID(t *testing.T) {
	goalSetID := ref.NewGoalSetID()
	name := jobName("sdm-core", goalSetID, "build")

	wantPrefix := "sdm-core-job-" + goalSetID.String()[:7] + "-build"
	if name != wantPrefix {
		t.Errorf("jobName = %q, want %q", name, wantPrefix)
	}
}

func TestPodAffinityTermMatchesGoalSetLabel(t *testing.T) {
	goalSetID := ref.NewGoalSetID()
	term := podAffinityTerm(goalSetID)

	if term.Weight != affinityWeight {
		t.Errorf("Weight = %d, want %d", term.Weight, affinityWeight)
	}
	if got := term.PodAffinityTerm.LabelSelector.MatchLabels[goalSetLabel]; got != goalSetID.String() {
		t.Errorf("label %s = %q, want %q", goalSetLabel, got, goalSetID.String())
	}
	if term.PodAffinityTerm.TopologyKey != affinityTopologyKey {
		t.Errorf("TopologyKey = %q, want %q", term.PodAffinityTerm.TopologyKey, affinityTopologyKey)
	}
}

func TestBuildJobSetsRestartPolicyNeverAndCloneInitContainer(t *testing.T) {
	goalSetID := ref.NewGoalSetID()
	job := buildJob(JobInput{
		Deployment:   "sdm-core",
		Namespace:    "ci",
		GoalSetID:    goalSetID,
		GoalName:     "build",
		RepoCloneURL: "https://example.com/acme/widgets.git",
		Container:    Container{Name: "sdm-core", Image: "sdm-core:latest"},
		Env:          map[string]string{"ATOMIST_GOAL_SET_ID": goalSetID.String()},
	})

	if job.Kind != "Job" {
		t.Errorf("Kind = %q, want Job", job.Kind)
	}
	if job.Spec.Template.Spec.RestartPolicy != "Never" {
		t.Errorf("RestartPolicy = %q, want Never", job.Spec.Template.Spec.RestartPolicy)
	}
	if len(job.Spec.Template.Spec.InitContainers) != 1 {
		t.Fatalf("expected exactly one init container, got %d", len(job.Spec.Template.Spec.InitContainers))
	}
	initContainer := job.Spec.Template.Spec.InitContainers[0]
	if len(initContainer.Command) == 0 || initContainer.Command[0] != "git" {
		t.Errorf("init container command = %v, want a git clone", initContainer.Command)
	}

	mainContainer := job.Spec.Template.Spec.Containers[0]
	foundHomeMount := false
	for _, mount := range mainContainer.VolumeMounts {
		if mount.Name == homeVolumeName && mount.MountPath == homeMountPath {
			foundHomeMount = true
		}
	}
	if !foundHomeMount {
		t.Error("expected the main container to mount the shared home volume")
	}

	foundEnv := false
	for _, env := range mainContainer.Env {
		if env.Name == "ATOMIST_GOAL_SET_ID" && env.Value == goalSetID.String() {
			foundEnv = true
		}
	}
	if !foundEnv {
		t.Error("expected the main container to carry the isolated-goal environment")
	}

	if job.Spec.Template.Spec.Affinity == nil || job.Spec.Template.Spec.Affinity.PodAffinity == nil {
		t.Fatal("expected a pod affinity to be set")
	}
	terms := job.Spec.Template.Spec.Affinity.PodAffinity.PreferredDuringSchedulingIgnoredDuringExecution
	if len(terms) != 1 || terms[0].PodAffinityTerm.LabelSelector.MatchLabels[goalSetLabel] != goalSetID.String() {
		t.Error("expected the pod affinity to key on this goal set's id")
	}
}

func TestBuildJobIsDeterministic(t *testing.T) {
	goalSetID := ref.NewGoalSetID()
	input := JobInput{
		Deployment: "sdm-core",
		Namespace:  "ci",
		GoalSetID:  goalSetID,
		GoalName:   "build",
		Container:  Container{Name: "sdm-core", Image: "sdm-core:latest"},
	}

	first := buildJob(input)
	second := buildJob(input)
	if first.Metadata.Name != second.Metadata.Name {
		t.Errorf("job names differ across identical inputs: %q vs %q", first.Metadata.Name, second.Metadata.Name)
	}
}

type fakeClient struct {
	applied []Job
	succeeded map[string]bool
	deleted []string
}

func (f *fakeClient) ApplyJob(_ context.Context, job Job) error {
	f.applied = append(f.applied, job)
	return nil
}

func (f *fakeClient) ListSucceededJobNames(_ context.Context, _, namePrefix string) ([]string, error) {
	var names []string
	for name, ok := range f.succeeded {
		if ok && len(name) >= len(namePrefix) && name[:len(namePrefix)] == namePrefix {
			names = append(names, name)
		}
	}
	return names, nil
}

func (f *fakeClient) DeleteJob(_ context.Context, _, name string) error {
	f.deleted = append(f.deleted, name)
	return nil
}

func TestKubernetesSchedulerSupportsOnlyK8sIsolation(t *testing.T) {
	k := &KubernetesScheduler{}
	if k.Supports(dispatch.GoalInvocation{Parameters: map[string]string{"isolation": "subprocess"}}) {
		t.Error("expected KubernetesScheduler to decline a subprocess-tagged invocation")
	}
	if !k.Supports(dispatch.GoalInvocation{Parameters: map[string]string{"isolation": "k8s"}}) {
		t.Error("expected KubernetesScheduler to claim a k8s-tagged invocation")
	}
}

func TestKubernetesSchedulerScheduleAppliesJobAndReturnsScheduledPhase(t *testing.T) {
	client := &fakeClient{}
	k := &KubernetesScheduler{
		Client:     client,
		Deployment: "sdm-core",
		Namespace:  "ci",
		Container:  Container{Name: "sdm-core", Image: "sdm-core:latest"},
	}

	goalSetID := ref.NewGoalSetID()
	inv := dispatch.GoalInvocation{
		Goal: goal.Event{
			GoalSetID:  goalSetID,
			UniqueName: ref.MustParseUniqueName("build"),
		},
		Parameters: map[string]string{"isolation": "k8s", "team": "acme", "teamName": "Acme"},
	}

	result, err := k.Schedule(context.Background(), inv)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if result.Phase != "scheduled" {
		t.Errorf("result.Phase = %q, want scheduled", result.Phase)
	}
	if len(client.applied) != 1 {
		t.Fatalf("expected exactly one applied job, got %d", len(client.applied))
	}
}

func TestCleanupSweepDeletesOnlySucceededJobsWithDeploymentPrefix(t *testing.T) {
	client := &fakeClient{succeeded: map[string]bool{
		"sdm-core-job-abc0000-build":  true,
		"sdm-core-job-abc0000-test":   false,
		"other-job-abc0000-build":     true,
	}}

	cleanup := &Cleanup{
		Client:     client,
		Clock:      clock.Real(),
		Namespace:  "ci",
		Deployment: "sdm-core",
		Logger:     slog.Default(),
	}
	cleanup.sweep(context.Background())

	if len(client.deleted) != 1 || client.deleted[0] != "sdm-core-job-abc0000-build" {
		t.Errorf("deleted = %v, want exactly [sdm-core-job-abc0000-build]", client.deleted)
	}
}

func TestNewCleanupDefaultsScheduleWhenEmpty(t *testing.T) {
	cleanup, err := NewCleanup(&fakeClient{}, clock.Real(), "ci", "sdm-core", "", nil)
	if err != nil {
		t.Fatalf("NewCleanup: %v", err)
	}
	if cleanup.Logger == nil {
		t.Error("expected a default logger when none is given")
	}
}

func TestNewCleanupRejectsInvalidSchedule(t *testing.T) {
	_, err := NewCleanup(&fakeClient{}, clock.Real(), "ci", "sdm-core", "not a cron expression", nil)
	if err == nil {
		t.Fatal("expected an error for an invalid cron expression")
	}
}
