package compose

import (
	"context"
	"fmt"
	"sort"
)

// serviceController restarts and halts a service by its logical name.
// *Runner is the production implementation; tests substitute fakes.
type serviceController interface {
	startService(ctx context.Context, name string) (*Service, error)
	stopService(ctx context.Context, name string) error
}

// Service describes one running container behind a logical compose
// service name. The name is stable for the lifetime of its stage; the
// container id changes only when the container is recreated. Address and
// port fields are re-derived on every Start, so a handle obtained before
// a restart keeps working afterwards. After Stop the addresses are stale
// until the next Start.
type Service struct {
	id         string
	name       string
	externalIP string
	internalIP string
	ports      map[int]int

	runner serviceController
}

// ID returns the container id.
func (s *Service) ID() string { return s.id }

// Name returns the logical service name from the compose file.
func (s *Service) Name() string { return s.name }

// ExternalIP returns the address published ports are reachable on from
// the host running the tests.
func (s *Service) ExternalIP() string { return s.externalIP }

// InternalIP returns the container's address on the engine's private
// network. Every container port is reachable on it, published or not.
func (s *Service) InternalIP() string { return s.internalIP }

// Port returns the external port the given internal port is published
// on. An unpublished port maps to itself: it is still reachable on the
// internal IP.
func (s *Service) Port(internalPort int) int {
	if external, ok := s.ports[internalPort]; ok {
		return external
	}
	return internalPort
}

// Ports returns the internal ports with a published mapping, sorted.
func (s *Service) Ports() []int {
	ports := make([]int, 0, len(s.ports))
	for p := range s.ports {
		ports = append(ports, p)
	}
	sort.Ints(ports)
	return ports
}

// Start starts the service's container and refreshes this descriptor in
// place: port mappings and addresses may have changed across the
// restart. Starting an already running service has no effect.
func (s *Service) Start(ctx context.Context) error {
	fresh, err := s.runner.startService(ctx, s.name)
	if err != nil {
		return err
	}
	s.copyFrom(fresh)
	return nil
}

// Stop halts the service's container without removing it. Stopping an
// already stopped service has no effect.
func (s *Service) Stop(ctx context.Context) error {
	return s.runner.stopService(ctx, s.name)
}

// copyFrom takes the refreshed runtime state of other. The id is carried
// over too: it only differs when the container was recreated.
func (s *Service) copyFrom(other *Service) {
	s.id = other.id
	s.externalIP = other.externalIP
	s.internalIP = other.internalIP
	s.ports = other.ports
}

func (s *Service) String() string {
	return fmt.Sprintf("service %s (container %s, internal %s, external %s, ports %v)",
		s.name, s.id, s.internalIP, s.externalIP, s.ports)
}
