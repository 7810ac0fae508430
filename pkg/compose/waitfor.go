package compose

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/schmitthub/gangway/internal/logger"
)

// StartupCallback runs after a stage's containers are started. The
// containers exist at that point but the services inside them may still
// be initializing; callbacks block the next stage until the services
// they watch are usable. Returning an error fails the whole setup.
type StartupCallback func(ctx context.Context, services map[string]*Service) error

// Readiness poll defaults, matching a typical service start: checks are
// cheap, so poll often and give up only after a full minute.
const (
	DefaultWaitTimeout  = 60 * time.Second
	DefaultWaitInterval = 100 * time.Millisecond

	// dialTimeout bounds a single connection attempt.
	dialTimeout = 500 * time.Millisecond
)

// WaitForPort returns a callback that blocks until a TCP connection to
// the service's internal address on the given port succeeds, polling
// with the default timeout and interval.
func WaitForPort(service string, internalPort int) StartupCallback {
	return WaitForPortTimeout(service, internalPort, DefaultWaitTimeout, DefaultWaitInterval)
}

// WaitForPortTimeout is WaitForPort with an explicit deadline and poll
// interval. There is no push notification from the engine, so the check
// simply retries until the deadline; it fails with a
// *ConnectTimeoutError naming the service and port.
func WaitForPortTimeout(service string, internalPort int, timeout, interval time.Duration) StartupCallback {
	return func(ctx context.Context, services map[string]*Service) error {
		svc, ok := services[service]
		if !ok {
			return &ContainerStateError{Service: service, Reason: "not declared in this stage"}
		}

		addr := net.JoinHostPort(svc.InternalIP(), strconv.Itoa(internalPort))
		logger.Info().
			Str("service", service).
			Str("addr", addr).
			Msg("waiting for port to open")

		deadline := time.Now().Add(timeout)
		for {
			conn, err := net.DialTimeout("tcp", addr, dialTimeout)
			if err == nil {
				conn.Close()
				logger.Info().Str("service", service).Str("addr", addr).Msg("port open")
				return nil
			}

			if time.Now().After(deadline) {
				return &ConnectTimeoutError{
					Service: service,
					Addr:    svc.InternalIP(),
					Port:    internalPort,
					Timeout: timeout,
				}
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
		}
	}
}
