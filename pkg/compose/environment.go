package compose

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/schmitthub/gangway/internal/logger"
	"github.com/schmitthub/gangway/pkg/hostmap"
)

// stageRunner is the slice of Runner the sequencer depends on. Tests
// substitute fakes.
type stageRunner interface {
	Up(ctx context.Context, forceRecreate bool) (map[string]*Service, error)
	Down(ctx context.Context) error
}

// stage is one compose file plus its options and readiness callbacks.
// Stages are immutable once their Environment is built.
type stage struct {
	file          string
	project       string
	forceRecreate bool
	forceDown     bool
	env           map[string]string
	callbacks     []StartupCallback

	runner stageRunner
}

func (s *stage) String() string {
	return fmt.Sprintf("stage %s (project %q, forceRecreate=%v, forceDown=%v)",
		s.file, s.project, s.forceRecreate, s.forceDown)
}

type envState int

const (
	stateNew envState = iota
	stateRunning
	stateStopped
)

// Environment is a group of container services provisioned from one or
// more compose files, run as ordered stages. Build one with a Builder,
// call Setup before the tests that use it and Teardown afterwards:
//
//	env, err := compose.NewBuilder().
//		File("testdata/zookeeper.yaml").
//		ProjectName("myproject").
//		AfterStart(compose.WaitForPort("zookeeper", 2181)).
//		Build()
//	...
//	if err := env.Setup(ctx); err != nil { ... }
//	defer env.Teardown(ctx)
//
// An Environment is driven from a single goroutine: stages run strictly
// sequentially and lookups are only valid after Setup returns.
type Environment struct {
	stages   []*stage
	services map[string]*Service
	state    envState
}

// Setup runs the stages in order. A stage's containers must exist and
// all its readiness callbacks must succeed before the next stage begins;
// any failure aborts the whole setup. Setup must be called exactly once.
func (e *Environment) Setup(ctx context.Context) error {
	if e.state != stateNew {
		return errors.New("compose: environment setup already ran")
	}
	e.state = stateRunning

	for _, st := range e.stages {
		logger.Info().Str("file", st.file).Str("project", st.project).Msg("starting stage")

		services, err := st.runner.Up(ctx, st.forceRecreate)
		if err != nil {
			return fmt.Errorf("compose: %s failed: %w", st, err)
		}

		for _, cb := range st.callbacks {
			if err := cb(ctx, services); err != nil {
				return fmt.Errorf("compose: readiness check for %s failed: %w", st, err)
			}
		}

		for name, svc := range services {
			if _, exists := e.services[name]; exists {
				logger.Warn().Str("service", name).Msg("duplicate service name across stages; later stage wins")
			}
			e.services[name] = svc
		}
	}

	logger.Info().Int("services", len(e.services)).Msg("environment ready")
	return nil
}

// Teardown brings down the stages flagged ForceDown, in order. It is
// best effort and idempotent: failures are logged as warnings, never
// returned, and repeated calls are no-ops. Stages without the flag keep
// their containers running for reuse by later runs.
func (e *Environment) Teardown(ctx context.Context) {
	if e.state == stateStopped {
		return
	}
	e.state = stateStopped

	for _, st := range e.stages {
		if !st.forceDown {
			continue
		}
		if err := st.runner.Down(ctx); err != nil {
			logger.Warn().Err(err).Str("file", st.file).Msg("teardown failed; leaving containers behind")
			continue
		}
		logger.Info().Str("file", st.file).Msg("stage torn down")
	}
}

// ServiceByName returns the service with the given logical name, or nil
// if no stage declared it.
func (e *Environment) ServiceByName(name string) *Service {
	return e.services[name]
}

// ServicesByPrefix returns the services whose name starts with prefix
// (case-sensitive), sorted by name. The empty prefix returns all.
func (e *Environment) ServicesByPrefix(prefix string) []*Service {
	var out []*Service
	for name, svc := range e.services {
		if strings.HasPrefix(name, prefix) {
			out = append(out, svc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Services returns all services, sorted by name.
func (e *Environment) Services() []*Service {
	return e.ServicesByPrefix("")
}

// Builder assembles an Environment as an ordered list of stages. File
// starts a new stage; the other methods configure the stage most
// recently started. Build finalizes the list; the builder must not be
// reused afterwards.
type Builder struct {
	stages []*stage
	hosts  *hostmap.Table
	err    error
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// File starts a new stage for the given compose file. Stages run in the
// order their files are added.
func (b *Builder) File(path string) *Builder {
	if path == "" {
		b.fail(errors.New("compose: stage file path must not be empty"))
		return b
	}
	b.stages = append(b.stages, &stage{
		file: path,
		env:  make(map[string]string),
	})
	return b
}

// ProjectName sets the compose project scope of the current stage.
func (b *Builder) ProjectName(name string) *Builder {
	if st := b.current("ProjectName"); st != nil {
		if name == "" {
			b.fail(errors.New("compose: project name must not be empty"))
			return b
		}
		st.project = name
	}
	return b
}

// ForceRecreate makes the current stage replace existing containers even
// when they are already running. Without it containers (and their
// volumes, including prior state) are reused, which keeps startup cheap.
func (b *Builder) ForceRecreate() *Builder {
	if st := b.current("ForceRecreate"); st != nil {
		st.forceRecreate = true
	}
	return b
}

// ForceDown makes Teardown remove the current stage's containers and
// networks. Without it the stage's services outlive the fixture so later
// runs can reuse them. Treat the removal as a hint, not a guarantee: a
// killed test process never reaches Teardown at all.
func (b *Builder) ForceDown() *Builder {
	if st := b.current("ForceDown"); st != nil {
		st.forceDown = true
	}
	return b
}

// Env adds an environment variable to the current stage's compose
// invocations, available for interpolation inside the compose file.
func (b *Builder) Env(key, value string) *Builder {
	if st := b.current("Env"); st != nil {
		if key == "" {
			b.fail(errors.New("compose: environment variable name must not be empty"))
			return b
		}
		st.env[key] = value
	}
	return b
}

// AfterStart adds a readiness callback to the current stage. Callbacks
// run in the order added, after the stage's containers are up; each
// blocks the next, and an error from any of them fails the whole setup.
func (b *Builder) AfterStart(cb StartupCallback) *Builder {
	if st := b.current("AfterStart"); st != nil {
		if cb == nil {
			b.fail(errors.New("compose: AfterStart callback must not be nil"))
			return b
		}
		st.callbacks = append(st.callbacks, cb)
	}
	return b
}

// HostTable registers service names of every stage in the given table
// instead of hostmap.Default.
func (b *Builder) HostTable(t *hostmap.Table) *Builder {
	b.hosts = t
	return b
}

// Build finalizes the stage list and returns the Environment.
func (b *Builder) Build() (*Environment, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.stages) == 0 {
		return nil, errors.New("compose: at least one stage file is required")
	}

	for _, st := range b.stages {
		opts := []RunnerOption{}
		if st.project != "" {
			opts = append(opts, WithProjectName(st.project))
		}
		if b.hosts != nil {
			opts = append(opts, WithHostTable(b.hosts))
		}
		for k, v := range st.env {
			opts = append(opts, WithEnv(k, v))
		}
		runner, err := NewRunner(st.file, opts...)
		if err != nil {
			return nil, err
		}
		st.project = runner.ProjectName()
		st.runner = runner
	}

	return &Environment{
		stages:   b.stages,
		services: make(map[string]*Service),
	}, nil
}

func (b *Builder) current(op string) *stage {
	if b.err != nil {
		return nil
	}
	if len(b.stages) == 0 {
		b.fail(fmt.Errorf("compose: %s called before File", op))
		return nil
	}
	return b.stages[len(b.stages)-1]
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}
