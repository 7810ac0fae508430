package compose

import (
	"regexp"
	"strconv"
)

// portToken matches one published-port token in docker's human-oriented
// ps output, e.g. "0.0.0.0:32768->2181/tcp". Tokens for unpublished
// ports ("2888/tcp") carry no arrow and never match.
var portToken = regexp.MustCompile(`(\d+\.\d+\.\d+\.\d+):(\d+)->(\d+)/tcp`)

// defaultExternalIP is used when a port is bound to the wildcard address:
// a 0.0.0.0 bind is reachable on loopback from the host running the tests.
const defaultExternalIP = "127.0.0.1"

// parsePublishedPorts extracts the internal-to-external port table from
// free text containing zero or more published-port tokens, in any order.
// When the same internal port appears more than once, the last occurrence
// wins. The returned external IP is the host address the ports are
// reachable on; it is 127.0.0.1 unless a token names a concrete bind
// address. When tokens name different concrete addresses, the last one
// wins, mirroring the per-port policy.
func parsePublishedPorts(text string) (ports map[int]int, externalIP string) {
	ports = make(map[int]int)
	externalIP = defaultExternalIP

	for _, m := range portToken.FindAllStringSubmatch(text, -1) {
		external, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		internal, err := strconv.Atoi(m[3])
		if err != nil {
			continue
		}
		ports[internal] = external
		if m[1] != "0.0.0.0" {
			externalIP = m[1]
		}
	}
	return ports, externalIP
}
