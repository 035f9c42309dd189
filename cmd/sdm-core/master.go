// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/atomist-sdm/sdmcore/lib/bus"
	"github.com/atomist-sdm/sdmcore/lib/bus/httpbus"
	"github.com/atomist-sdm/sdmcore/lib/bus/membus"
	"github.com/atomist-sdm/sdmcore/lib/chatadmin"
	"github.com/atomist-sdm/sdmcore/lib/clock"
	"github.com/atomist-sdm/sdmcore/lib/completion"
	"github.com/atomist-sdm/sdmcore/lib/config"
	"github.com/atomist-sdm/sdmcore/lib/dispatch"
	"github.com/atomist-sdm/sdmcore/lib/gitsource"
	"github.com/atomist-sdm/sdmcore/lib/goalplan"
	"github.com/atomist-sdm/sdmcore/lib/goalsign"
	"github.com/atomist-sdm/sdmcore/lib/goalstate"
	"github.com/atomist-sdm/sdmcore/lib/isolate"
	"github.com/atomist-sdm/sdmcore/lib/ledger"
	"github.com/atomist-sdm/sdmcore/lib/pushtest"
	"github.com/atomist-sdm/sdmcore/lib/ref"
	"github.com/atomist-sdm/sdmcore/lib/schema/goal"
	"github.com/atomist-sdm/sdmcore/lib/schema/push"
	"github.com/atomist-sdm/sdmcore/lib/secret"
	"github.com/atomist-sdm/sdmcore/lib/version"
)

// master holds every dependency wired together at startup and the
// in-memory index the chat admin cancellation surface reads from.
type master struct {
	cfg    *config.Config
	logger *slog.Logger

	eventBus   bus.EventBus
	rules      []goalplan.Rule
	policy     goalplan.MergePolicy
	registry   *pushtest.Registry
	source     *gitsource.Source
	verifier   *goalsign.Verifier
	signer     *goalsign.Signer
	ledger     *ledger.Store
	dispatcher *dispatch.Dispatcher
	reactor    *completion.Reactor
	self       ref.RegistrationName
	cleanup    *isolate.Cleanup

	mu      sync.Mutex
	pending map[ref.GoalSetID]struct{}
}

// runMaster wires every component and runs the push-planning,
// dispatch, and completion loops until ctx is canceled. It requires
// an event bus capable of Subscribe — bus/httpbus's Subscribe always
// errors, so Bus.Mode must be "memory" until a streaming or webhook
// transport backs the HTTP client.
func runMaster(ctx context.Context, configPath string, logger *slog.Logger) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.EnsurePaths(); err != nil {
		return fmt.Errorf("creating configured directories: %w", err)
	}

	m, err := newMaster(cfg, logger)
	if err != nil {
		return fmt.Errorf("wiring master: %w", err)
	}
	defer m.ledger.Close()
	defer func() {
		if m.signer != nil {
			m.signer.Close()
		}
	}()

	if err := m.run(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

func loadConfig(configPath string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newMaster builds every wired dependency from cfg but starts
// nothing — call run to start the loops.
func newMaster(cfg *config.Config, logger *slog.Logger) (*master, error) {
	self, err := ref.ParseRegistrationName(cfg.Registration.Self)
	if err != nil {
		return nil, fmt.Errorf("registration.self: %w", err)
	}

	eventBus, err := buildEventBus(cfg)
	if err != nil {
		return nil, fmt.Errorf("building event bus: %w", err)
	}

	rules, err := goalplan.LoadRules(cfg.Planning.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("loading goal rules: %w", err)
	}
	if issues := goalplan.Validate(rules); len(issues) > 0 {
		return nil, fmt.Errorf("goal rules failed validation: %v", issues)
	}
	policy := goalplan.MergeAdditive
	if cfg.Planning.MergePolicy == string(goalplan.MergeReplace) {
		policy = goalplan.MergeReplace
	}

	source := &gitsource.Source{
		Root:            cfg.Source.CloneRoot,
		ResolveCloneURL: defaultCloneURLResolver,
	}

	verifier, err := buildVerifier(cfg)
	if err != nil {
		return nil, fmt.Errorf("building signature verifier: %w", err)
	}
	signer, err := buildSigner(cfg)
	if err != nil {
		return nil, fmt.Errorf("building signer: %w", err)
	}

	store, err := ledger.Open(ledger.Config{
		Path:     cfg.Ledger.Path,
		PoolSize: cfg.Ledger.PoolSize,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	m := &master{
		cfg:      cfg,
		logger:   logger,
		eventBus: eventBus,
		rules:    rules,
		policy:   policy,
		registry: pushtest.NewRegistry(),
		source:   source,
		verifier: verifier,
		signer:   signer,
		ledger:   store,
		self:     self,
		pending:  make(map[ref.GoalSetID]struct{}),
	}

	kubernetesClient, err := buildKubernetesClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("building kubernetes client: %w", err)
	}
	schedulers := buildSchedulers(cfg, kubernetesClient)

	if kubernetesClient != nil {
		k8s := cfg.Isolate.Kubernetes
		cleanup, err := isolate.NewCleanup(kubernetesClient, clock.Real(), k8s.Namespace, k8s.Deployment, "", logger)
		if err != nil {
			return nil, fmt.Errorf("building job cleanup: %w", err)
		}
		m.cleanup = cleanup
	}

	m.dispatcher = &dispatch.Dispatcher{
		Self:            self,
		Verifier:        verifier,
		SigningEnabled:  cfg.Signing.Enabled,
		Implementations: buildRegistry(rules, schedulers),
		FetchSet:        m.fetchSet,
		Publish:         m.publishGoalEvent,
		Host:            cfg.Registration.Host,
		Version:         version.Short(),
	}

	m.reactor = &completion.Reactor{
		Self:     self,
		FetchSet: m.fetchSet,
		Credentials: func(context.Context, goal.Event) (dispatch.Credentials, error) {
			return dispatch.Credentials{}, nil
		},
		Channels: func(context.Context, goal.Event) (dispatch.AddressableChannels, error) {
			return nil, nil
		},
		PublishStatus: m.publishStatus,
		Logger:        logger,
	}

	return m, nil
}

func buildEventBus(cfg *config.Config) (bus.EventBus, error) {
	switch cfg.Bus.Mode {
	case "memory":
		return membus.New(), nil
	case "http":
		token, err := secret.ReadFromPath(cfg.Bus.TokenFile)
		if err != nil {
			return nil, fmt.Errorf("reading bus token: %w", err)
		}
		defer token.Close()
		return &httpbus.Client{BaseURL: cfg.Bus.BaseURL, Token: token.String()}, nil
	default:
		return nil, fmt.Errorf("unsupported bus mode %q", cfg.Bus.Mode)
	}
}

func buildVerifier(cfg *config.Config) (*goalsign.Verifier, error) {
	var keys []goalsign.VerificationKey
	for _, path := range cfg.Signing.TrustedKeyFiles {
		pemBytes, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading trusted key %s: %w", path, err)
		}
		key, err := goalsign.ParseVerificationKeyPEM(path, pemBytes)
		if err != nil {
			return nil, fmt.Errorf("parsing trusted key %s: %w", path, err)
		}
		keys = append(keys, key)
	}
	return goalsign.NewVerifier(keys...)
}

func buildSigner(cfg *config.Config) (*goalsign.Signer, error) {
	if cfg.Signing.PrivateKeyPath == "" {
		return nil, nil
	}
	buffer, err := secret.ReadFromPath(cfg.Signing.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading signing key: %w", err)
	}
	return goalsign.LoadSigner(buffer)
}

// defaultCloneURLResolver synthesizes a plain HTTPS clone URL from a
// repository coordinate. A provider-specific client that resolves
// authenticated clone URLs is an external collaborator this core does
// not implement.
func defaultCloneURLResolver(coordinate ref.RepoCoordinate) (string, error) {
	return fmt.Sprintf("https://%s/%s/%s.git", coordinate.Provider.String(), coordinate.Owner, coordinate.Name), nil
}

// fetchSet adapts bus.EventBus.GetGoalSet's pointer return to the
// value-returning signature dispatch.Dispatcher and completion.Reactor
// expect.
func (m *master) fetchSet(ctx context.Context, id ref.GoalSetID) (goal.Set, error) {
	set, err := m.eventBus.GetGoalSet(ctx, id)
	if err != nil {
		return goal.Set{}, err
	}
	return *set, nil
}

// publishGoalEvent converts a full goal event into the StateUpdate the
// bus expects and applies it.
func (m *master) publishGoalEvent(ctx context.Context, e goal.Event) error {
	return m.eventBus.PutGoalState(ctx, goal.ForEvent(e, e.State))
}

// publishStatus reports the coarse external status for a goal set.
// The source-control provider that actually surfaces this status to a
// pull request or commit is an external collaborator; this core only
// emits the bus event the provider-facing component consumes.
func (m *master) publishStatus(ctx context.Context, goalSetID ref.GoalSetID, status goal.ExternalStatus, url string) error {
	_, err := m.eventBus.Publish(ctx, bus.KindSuccessStatus, struct {
		GoalSetID string              `json:"goalSetId"`
		Status    goal.ExternalStatus `json:"status"`
		URL       string              `json:"url,omitempty"`
	}{GoalSetID: goalSetID.String(), Status: status, URL: url})
	return err
}

// run starts the chat admin surface and the three event loops as
// goroutines, then returns once they're launched; callers wait on ctx.
func (m *master) run(ctx context.Context) error {
	cancelService := &chatadmin.CancelService{
		Self:         m.self,
		ListPending:  m.listPending,
		PutGoalState: m.eventBus.PutGoalState,
	}
	go func() {
		if err := chatadmin.Serve(ctx, m.eventBus, cancelService, m.logger); err != nil && ctx.Err() == nil {
			m.logger.Error("chatadmin: serve exited", "error", err)
		}
	}()

	go m.planLoop(ctx)
	go m.dispatchLoop(ctx)
	go m.completionLoop(ctx)

	if m.cleanup != nil {
		go func() {
			if err := m.cleanup.Run(ctx); err != nil && ctx.Err() == nil {
				m.logger.Error("cleanup: run exited", "error", err)
			}
		}()
	}

	return nil
}

// listPending backs chatadmin.CancelService.ListPending from the
// in-memory index maintained by the dispatch and completion loops.
func (m *master) listPending(ctx context.Context, self ref.RegistrationName) ([]goal.Set, error) {
	m.mu.Lock()
	ids := make([]ref.GoalSetID, 0, len(m.pending))
	for id := range m.pending {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	sets := make([]goal.Set, 0, len(ids))
	for _, id := range ids {
		set, err := m.fetchSet(ctx, id)
		if err != nil {
			m.logger.Error("listPending: fetching goal set", "goalSetId", id.String(), "error", err)
			continue
		}
		sets = append(sets, set)
	}
	return sets, nil
}

func (m *master) markPending(id ref.GoalSetID) {
	m.mu.Lock()
	m.pending[id] = struct{}{}
	m.mu.Unlock()
}

func (m *master) clearPendingIfTerminal(ctx context.Context, id ref.GoalSetID) {
	set, err := m.fetchSet(ctx, id)
	if err != nil {
		return
	}
	if set.AllTerminal() {
		m.mu.Lock()
		delete(m.pending, id)
		m.mu.Unlock()
	}
}

// planLoop subscribes to incoming pushes, plans a goal set for each,
// signs and persists every planned event, and publishes the
// requested ones.
func (m *master) planLoop(ctx context.Context) {
	anyBranch, err := m.eventBus.Subscribe(ctx, bus.KindPushToAnyBranch)
	if err != nil {
		m.logger.Error("planLoop: subscribing to pushes", "error", err)
		return
	}
	firstPush, err := m.eventBus.Subscribe(ctx, bus.KindFirstPushToRepo)
	if err != nil {
		m.logger.Error("planLoop: subscribing to first pushes", "error", err)
		return
	}

	for {
		var envelope bus.Envelope
		var ok bool
		select {
		case <-ctx.Done():
			return
		case envelope, ok = <-anyBranch:
		case envelope, ok = <-firstPush:
		}
		if !ok {
			return
		}

		var p push.Push
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			m.logger.Error("planLoop: decoding push", "error", err)
			continue
		}
		m.handlePush(ctx, p)
	}
}

func (m *master) handlePush(ctx context.Context, p push.Push) {
	pc := pushtest.Context{
		Push: p,
		FileExists: func(ctx context.Context, path string) (bool, error) {
			repo, err := m.source.Checkout(ctx, p.Repo, p.SHA)
			if err != nil {
				return false, err
			}
			return repo.FileExists(ctx, path)
		},
		FileContains: func(ctx context.Context, glob, contentRegex string) (bool, error) {
			repo, err := m.source.Checkout(ctx, p.Repo, p.SHA)
			if err != nil {
				return false, err
			}
			return repo.FileContains(ctx, glob, contentRegex)
		},
	}

	set, err := goalplan.Plan(ctx, p, m.rules, m.policy, m.registry, pc, func(e goal.Event) {
		m.signAndPersist(ctx, e)
	})
	if err != nil {
		m.logger.Error("handlePush: planning goal set", "repo", p.Repo.String(), "sha", p.SHA.String(), "error", err)
		return
	}
	if len(set.Goals) == 0 {
		return
	}
	m.markPending(set.GoalSetID)
}

// signAndPersist signs e (when this registration holds a signing key)
// and publishes it. Requested goals are also published to
// KindRequestedSdmGoal so a dispatch loop (this process's or another
// registration's) picks them up.
func (m *master) signAndPersist(ctx context.Context, e goal.Event) {
	if m.signer != nil {
		signature, err := m.signer.Sign(e)
		if err != nil {
			m.logger.Error("signAndPersist: signing goal event", "uniqueName", e.UniqueName.String(), "error", err)
		} else {
			e.Signature = signature
		}
	}

	if err := m.publishGoalEvent(ctx, e); err != nil {
		m.logger.Error("signAndPersist: persisting goal event", "uniqueName", e.UniqueName.String(), "error", err)
		return
	}

	if e.State == goal.StateRequested {
		if _, err := m.eventBus.Publish(ctx, bus.KindRequestedSdmGoal, e); err != nil {
			m.logger.Error("signAndPersist: publishing requested goal", "uniqueName", e.UniqueName.String(), "error", err)
		}
	}
}

// dispatchLoop subscribes to requested goals, admits each through the
// ledger's at-most-once check, and hands admitted events to the
// dispatcher.
func (m *master) dispatchLoop(ctx context.Context) {
	requested, err := m.eventBus.Subscribe(ctx, bus.KindRequestedSdmGoal)
	if err != nil {
		m.logger.Error("dispatchLoop: subscribing", "error", err)
		return
	}

	for {
		var envelope bus.Envelope
		var ok bool
		select {
		case <-ctx.Done():
			return
		case envelope, ok = <-requested:
		}
		if !ok {
			return
		}

		var e goal.Event
		if err := json.Unmarshal(envelope.Payload, &e); err != nil {
			m.logger.Error("dispatchLoop: decoding goal event", "error", err)
			continue
		}

		m.markPending(e.GoalSetID)

		admitted, err := m.ledger.Admit(ctx, e.GoalSetID, e.UniqueName, e.TS)
		if err != nil {
			m.logger.Error("dispatchLoop: checking ledger admission", "uniqueName", e.UniqueName.String(), "error", err)
			continue
		}
		if !admitted {
			continue
		}

		if err := m.dispatcher.Dispatch(ctx, e); err != nil {
			m.logger.Error("dispatchLoop: dispatching goal", "uniqueName", e.UniqueName.String(), "error", err)
		}
	}
}

// completionLoop subscribes to completed goals, runs the completion
// reactor, then advances any goals whose preconditions are now
// satisfied.
func (m *master) completionLoop(ctx context.Context) {
	completed, err := m.eventBus.Subscribe(ctx, bus.KindCompletedSdmGoal)
	if err != nil {
		m.logger.Error("completionLoop: subscribing", "error", err)
		return
	}

	for {
		var envelope bus.Envelope
		var ok bool
		select {
		case <-ctx.Done():
			return
		case envelope, ok = <-completed:
		}
		if !ok {
			return
		}

		var e goal.Event
		if err := json.Unmarshal(envelope.Payload, &e); err != nil {
			m.logger.Error("completionLoop: decoding goal event", "error", err)
			continue
		}

		if err := m.reactor.React(ctx, e); err != nil {
			m.logger.Error("completionLoop: reacting to completed goal", "uniqueName", e.UniqueName.String(), "error", err)
		}

		m.advance(ctx, e.GoalSetID)
		m.clearPendingIfTerminal(ctx, e.GoalSetID)
	}
}

// advance re-evaluates a goal set's precondition graph, requesting
// every goal whose preconditions are now satisfied.
func (m *master) advance(ctx context.Context, id ref.GoalSetID) {
	set, err := m.fetchSet(ctx, id)
	if err != nil {
		m.logger.Error("advance: fetching goal set", "goalSetId", id.String(), "error", err)
		return
	}

	for _, key := range goalstate.Candidates(set) {
		g, ok := set.Find(key)
		if !ok {
			continue
		}
		target := goal.StateRequested
		if g.PreApprovalRequired {
			target = goal.StateWaitingForPreApproval
		}
		updated, err := goalstate.Apply(g, target)
		if err != nil {
			m.logger.Error("advance: applying transition", "uniqueName", key.UniqueName.String(), "error", err)
			continue
		}
		m.signAndPersist(ctx, updated)
	}
}

// buildKubernetesClient constructs the Kubernetes API client this
// registration uses both to schedule isolated Jobs and to sweep
// finished ones, or returns nil when no deployment and namespace are
// configured, leaving goals that request "k8s" isolation unsupported
// on a registration with no cluster wiring.
func buildKubernetesClient(cfg *config.Config) (isolate.Client, error) {
	k8s := cfg.Isolate.Kubernetes
	if k8s.Deployment == "" && k8s.Namespace == "" {
		return nil, nil
	}

	token, err := secret.ReadFromPath(k8s.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("reading kubernetes token: %w", err)
	}
	defer token.Close()

	return &isolate.HTTPClient{
		BaseURL:     k8s.APIServerURL,
		BearerToken: token.String(),
	}, nil
}

// buildSchedulers wires the isolated-goal schedulers this
// registration supports. The subprocess scheduler is always
// available; the Kubernetes scheduler is only wired when client is
// non-nil.
func buildSchedulers(cfg *config.Config, client isolate.Client) []dispatch.Scheduler {
	schedulers := []dispatch.Scheduler{
		&isolate.SubprocessScheduler{
			RunDir: cfg.Isolate.RunDir,
		},
	}

	if client == nil {
		return schedulers
	}

	k8s := cfg.Isolate.Kubernetes
	schedulers = append(schedulers, &isolate.KubernetesScheduler{
		Client:     client,
		Deployment: k8s.Deployment,
		Namespace:  k8s.Namespace,
		Container: isolate.Container{
			Name:  k8s.Deployment,
			Image: k8s.Image,
		},
	})
	return schedulers
}

// buildRegistry wires the isolated-goal schedulers available to every
// goal the loaded rules define. Individual goal implementations carry
// no Executor of their own in this core — the dispatcher's scheduler
// selection is the only path a requested goal takes; a goal whose
// Data never sets a matching "isolation" parameter has scheduler
// coverage but no scheduler claims it, and the dispatcher's admission
// filter 4 rejects it.
func buildRegistry(rules []goalplan.Rule, schedulers []dispatch.Scheduler) dispatch.Registry {
	registry := make(dispatch.Registry)
	for _, rule := range rules {
		for _, def := range rule.Goals {
			registry[goal.Key{Environment: def.Environment, UniqueName: def.UniqueName}] = dispatch.Implementation{
				Schedulers: schedulers,
			}
		}
	}
	return registry
}
