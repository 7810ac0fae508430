package compose

import (
	"fmt"
	"time"
)

// EnvironmentError reports that the docker daemon or the compose CLI is
// missing or non-functional. The check runs once per process, before the
// first environment is brought up; the error is fatal for every fixture.
type EnvironmentError struct {
	Err error
}

func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("container tooling unavailable (check that docker and docker compose work from this environment): %v", e.Err)
}

func (e *EnvironmentError) Unwrap() error {
	return e.Err
}

// ContainerStateError reports that a declared service has no usable
// container behind it, or that its descriptor could not be registered.
type ContainerStateError struct {
	Service string
	Reason  string
	Err     error
}

func (e *ContainerStateError) Error() string {
	msg := fmt.Sprintf("service %q: %s", e.Service, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ContainerStateError) Unwrap() error {
	return e.Err
}

// ConnectTimeoutError reports that a readiness check could not connect
// to a service port before its deadline.
type ConnectTimeoutError struct {
	Service string
	Addr    string
	Port    int
	Timeout time.Duration
}

func (e *ConnectTimeoutError) Error() string {
	return fmt.Sprintf("cannot connect to service %q at %s:%d after %s",
		e.Service, e.Addr, e.Port, e.Timeout)
}
