package engine

import "fmt"

// DockerError reports a failed engine operation.
type DockerError struct {
	Op  string // operation that failed, e.g. "connect", "inspect"
	Err error
}

func (e *DockerError) Error() string {
	return fmt.Sprintf("docker %s failed: %v", e.Op, e.Err)
}

func (e *DockerError) Unwrap() error {
	return e.Err
}
