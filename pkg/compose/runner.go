package compose

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/shlex"

	"github.com/schmitthub/gangway/internal/engine"
	"github.com/schmitthub/gangway/internal/execx"
	"github.com/schmitthub/gangway/internal/logger"
	"github.com/schmitthub/gangway/pkg/hostmap"
)

// Environment variables gangway injects into every compose invocation,
// so compose files can reference sibling resources relative to their own
// directory and run container processes as the invoking host user.
const (
	// EnvDirectory carries the compose file's parent directory.
	EnvDirectory = "DIRECTORY"

	// EnvCurrentUserID carries the invoking user's numeric id.
	EnvCurrentUserID = "CURRENT_USER_ID"

	// EnvComposeCommand overrides the compose command line gangway
	// drives, e.g. "docker-compose" on hosts without the compose plugin.
	EnvComposeCommand = "GANGWAY_COMPOSE_COMMAND"
)

var (
	envOnce      sync.Once
	envErr       error
	composeArgv  []string
	sharedEngine *engine.Client
)

// ensureEnvironment verifies, once per process, that the docker daemon
// responds and a working compose command exists. Every later call
// returns the same verdict: a broken environment is systemic, not
// transient.
func ensureEnvironment(ctx context.Context) error {
	envOnce.Do(func() {
		argv, err := detectComposeCommand(ctx)
		if err != nil {
			envErr = &EnvironmentError{Err: err}
			return
		}
		composeArgv = argv

		eng, err := engine.New(ctx)
		if err != nil {
			envErr = &EnvironmentError{Err: err}
			return
		}
		sharedEngine = eng

		logger.Debug().
			Strs("compose_command", composeArgv).
			Msg("container tooling verified")
	})
	return envErr
}

// detectComposeCommand picks the compose command line to drive. An
// explicit override wins; otherwise the compose plugin is preferred over
// the standalone docker-compose binary.
func detectComposeCommand(ctx context.Context) ([]string, error) {
	iv := &execx.Invoker{}

	if raw := os.Getenv(EnvComposeCommand); raw != "" {
		argv, err := shlex.Split(raw)
		if err != nil || len(argv) == 0 {
			return nil, fmt.Errorf("invalid %s value %q: %v", EnvComposeCommand, raw, err)
		}
		if _, err := iv.Run(ctx, argv[0], append(argv[1:], "version")...); err != nil {
			return nil, fmt.Errorf("configured compose command %q is not functional: %w", raw, err)
		}
		return argv, nil
	}

	if _, err := iv.Run(ctx, "docker", "compose", "version"); err == nil {
		return []string{"docker", "compose"}, nil
	}
	if _, err := iv.Run(ctx, "docker-compose", "--version"); err == nil {
		return []string{"docker-compose"}, nil
	}
	return nil, fmt.Errorf("neither \"docker compose\" nor \"docker-compose\" is runnable")
}

// commandInvoker runs the runner's subprocesses. *execx.Invoker is the
// production implementation; tests substitute fakes.
type commandInvoker interface {
	Run(ctx context.Context, name string, args ...string) (*execx.Result, error)
}

// containerInspector answers the engine queries descriptor construction
// needs. *engine.Client is the production implementation.
type containerInspector interface {
	ContainerIP(ctx context.Context, containerID string) (string, error)
}

// Runner drives the compose CLI for one compose file and project scope.
// It turns tool output into Service descriptors and registers each
// logical name in its host table.
type Runner struct {
	file    string
	project string
	env     map[string]string
	hosts   *hostmap.Table

	invoker   commandInvoker
	inspector containerInspector
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithProjectName scopes the runner to an explicit compose project name.
// Container names combine the project name with the service name, so two
// runners over the same file with different project names own distinct
// containers. The default is derived from the compose file's directory,
// matching the tool's own default.
func WithProjectName(name string) RunnerOption {
	return func(r *Runner) { r.project = name }
}

// WithEnv adds an environment variable to every compose invocation.
func WithEnv(key, value string) RunnerOption {
	return func(r *Runner) { r.env[key] = value }
}

// WithHostTable registers service names in the given table instead of
// hostmap.Default.
func WithHostTable(t *hostmap.Table) RunnerOption {
	return func(r *Runner) { r.hosts = t }
}

// NewRunner creates a runner for the given compose file.
func NewRunner(file string, opts ...RunnerOption) (*Runner, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve compose file path %q: %w", file, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("compose file %q: %w", file, err)
	}

	r := &Runner{
		file:  abs,
		env:   make(map[string]string),
		hosts: hostmap.Default,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.project == "" {
		r.project = defaultProjectName(abs)
	}

	env := []string{
		EnvDirectory + "=" + filepath.Dir(abs),
		EnvCurrentUserID + "=" + strconv.Itoa(os.Getuid()),
	}
	for k, v := range r.env {
		env = append(env, k+"="+v)
	}
	r.invoker = &execx.Invoker{Env: env}

	return r, nil
}

// File returns the absolute compose file path.
func (r *Runner) File() string { return r.file }

// ProjectName returns the compose project scope.
func (r *Runner) ProjectName() string { return r.project }

// Up brings every service declared by the compose file to running state
// and returns its descriptors by logical name. Existing containers are
// reused unless forceRecreate is set, in which case they are replaced
// (with fresh container ids). Reusing a container also reuses its
// volumes, so prior state may be visible.
func (r *Runner) Up(ctx context.Context, forceRecreate bool) (map[string]*Service, error) {
	names, err := r.upDetached(ctx, forceRecreate)
	if err != nil {
		return nil, err
	}

	services := make(map[string]*Service, len(names))
	for _, name := range names {
		svc, err := r.describeService(ctx, name)
		if err != nil {
			return nil, err
		}
		services[name] = svc
	}
	return services, nil
}

// upDetached runs compose up and returns the logical names the file
// declares.
func (r *Runner) upDetached(ctx context.Context, forceRecreate bool) ([]string, error) {
	recreateFlag := "--no-recreate"
	if forceRecreate {
		recreateFlag = "--force-recreate"
	}
	if _, err := r.compose(ctx, "up", "-d", recreateFlag); err != nil {
		return nil, err
	}

	res, err := r.compose(ctx, "config", "--services")
	if err != nil {
		return nil, err
	}
	return res.Lines(), nil
}

// ServiceNames returns the logical names declared by the compose file
// without changing container state.
func (r *Runner) ServiceNames(ctx context.Context) ([]string, error) {
	if err := ensureEnvironment(ctx); err != nil {
		return nil, err
	}
	res, err := r.compose(ctx, "config", "--services")
	if err != nil {
		return nil, err
	}
	return res.Lines(), nil
}

// StartService starts the named service and returns its refreshed
// descriptor. Port mappings and addresses may differ from before the
// container was stopped.
func (r *Runner) StartService(ctx context.Context, name string) (*Service, error) {
	if _, err := r.compose(ctx, "start", name); err != nil {
		return nil, err
	}
	return r.describeService(ctx, name)
}

// StopService halts the named service's container without removing it.
func (r *Runner) StopService(ctx context.Context, name string) error {
	_, err := r.compose(ctx, "stop", name)
	return err
}

// Down removes the containers and networks in this runner's scope. It is
// best effort: compose cannot remove a network that other containers
// still use, so callers treat failures as advisory.
func (r *Runner) Down(ctx context.Context) error {
	_, err := r.compose(ctx, "down")
	return err
}

func (r *Runner) startService(ctx context.Context, name string) (*Service, error) {
	return r.StartService(ctx, name)
}

func (r *Runner) stopService(ctx context.Context, name string) error {
	return r.StopService(ctx, name)
}

// describeService builds the descriptor for a declared service: one
// docker ps line (filtered by the compose project and service labels)
// yields the container id and the published-port text, a separate
// inspect query yields the internal address. The name is then registered
// in the host table so it resolves to the internal address.
func (r *Runner) describeService(ctx context.Context, name string) (*Service, error) {
	res, err := r.invoker.Run(ctx, "docker", "ps",
		"--filter", "label="+engine.LabelProject+"="+r.project,
		"--filter", "label="+engine.LabelService+"="+name,
		"--format", "{{.ID}}\t{{.Ports}}")
	if err != nil {
		return nil, err
	}

	lines := res.Lines()
	if len(lines) == 0 {
		return nil, &ContainerStateError{
			Service: name,
			Reason:  "no running container found; it most likely terminated early",
		}
	}
	if len(lines) > 1 {
		logger.Warn().
			Str("service", name).
			Str("project", r.project).
			Int("containers", len(lines)).
			Msg("multiple containers match service; using the first")
	}

	id, portText, _ := strings.Cut(lines[0], "\t")
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, &ContainerStateError{Service: name, Reason: "unparsable container listing"}
	}
	ports, externalIP := parsePublishedPorts(portText)

	inspector := r.inspector
	if inspector == nil {
		inspector = sharedEngine
	}
	internalIP, err := inspector.ContainerIP(ctx, id)
	if err != nil {
		return nil, &ContainerStateError{Service: name, Reason: "cannot determine internal address", Err: err}
	}
	if internalIP == "" {
		return nil, &ContainerStateError{Service: name, Reason: "container has no internal address"}
	}

	if err := r.hosts.Install(name, internalIP); err != nil {
		return nil, &ContainerStateError{Service: name, Reason: "cannot register service name", Err: err}
	}

	svc := &Service{
		id:         id,
		name:       name,
		externalIP: externalIP,
		internalIP: internalIP,
		ports:      ports,
		runner:     r,
	}
	logger.Debug().
		Str("service", name).
		Str("container", id).
		Str("internal_ip", internalIP).
		Msg("service described")
	return svc, nil
}

// compose invokes the compose command against this runner's file and
// project scope.
func (r *Runner) compose(ctx context.Context, args ...string) (*execx.Result, error) {
	if err := ensureEnvironment(ctx); err != nil {
		return nil, err
	}

	argv := append([]string{}, composeArgv...)
	argv = append(argv, "-f", r.file)
	if r.project != "" {
		argv = append(argv, "-p", r.project)
	}
	argv = append(argv, args...)

	return r.invoker.Run(ctx, argv[0], argv[1:]...)
}

// defaultProjectName mirrors compose's default project naming: the
// compose file's directory name, lowercased, restricted to the
// characters compose accepts.
func defaultProjectName(file string) string {
	name := strings.ToLower(filepath.Base(filepath.Dir(file)))
	var b strings.Builder
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
			b.WriteRune(c)
		}
	}
	if b.Len() == 0 {
		return "default"
	}
	return b.String()
}
