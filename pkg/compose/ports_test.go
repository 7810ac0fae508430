package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePublishedPorts(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantPorts  map[int]int
		wantExtIP  string
	}{
		{
			name:      "single published port with unpublished siblings",
			text:      "2888/tcp, 3888/tcp, 0.0.0.0:32768->2181/tcp",
			wantPorts: map[int]int{2181: 32768},
			wantExtIP: "127.0.0.1",
		},
		{
			name:      "unpublished port absent from table",
			text:      "0.0.0.0:32768->2181/tcp, 2888/tcp",
			wantPorts: map[int]int{2181: 32768},
			wantExtIP: "127.0.0.1",
		},
		{
			name:      "no published ports",
			text:      "2888/tcp, 3888/tcp",
			wantPorts: map[int]int{},
			wantExtIP: "127.0.0.1",
		},
		{
			name:      "empty text",
			text:      "",
			wantPorts: map[int]int{},
			wantExtIP: "127.0.0.1",
		},
		{
			name:      "multiple published ports",
			text:      "0.0.0.0:32768->2181/tcp, 0.0.0.0:32769->2888/tcp",
			wantPorts: map[int]int{2181: 32768, 2888: 32769},
			wantExtIP: "127.0.0.1",
		},
		{
			name:      "duplicate internal port last occurrence wins",
			text:      "0.0.0.0:32768->2181/tcp, 0.0.0.0:32769->2181/tcp",
			wantPorts: map[int]int{2181: 32769},
			wantExtIP: "127.0.0.1",
		},
		{
			name:      "tokens extracted regardless of order",
			text:      "0.0.0.0:32769->2888/tcp, 2889/tcp, 0.0.0.0:32768->2181/tcp",
			wantPorts: map[int]int{2181: 32768, 2888: 32769},
			wantExtIP: "127.0.0.1",
		},
		{
			name:      "concrete bind address is kept",
			text:      "192.168.1.5:32768->2181/tcp",
			wantPorts: map[int]int{2181: 32768},
			wantExtIP: "192.168.1.5",
		},
		{
			name:      "last concrete bind address wins",
			text:      "192.168.1.5:32768->2181/tcp, 10.0.0.7:32769->2888/tcp",
			wantPorts: map[int]int{2181: 32768, 2888: 32769},
			wantExtIP: "10.0.0.7",
		},
		{
			name:      "wildcard bind does not displace a concrete address",
			text:      "192.168.1.5:32768->2181/tcp, 0.0.0.0:32769->2888/tcp",
			wantPorts: map[int]int{2181: 32768, 2888: 32769},
			wantExtIP: "192.168.1.5",
		},
		{
			name:      "wildcard bind maps to loopback",
			text:      "0.0.0.0:32768->2181/tcp",
			wantPorts: map[int]int{2181: 32768},
			wantExtIP: "127.0.0.1",
		},
		{
			name:      "udp mappings are ignored",
			text:      "0.0.0.0:32768->53/udp",
			wantPorts: map[int]int{},
			wantExtIP: "127.0.0.1",
		},
		{
			name:      "surrounding ps noise tolerated",
			text:      "abc123  zookeeper  Up 3 seconds  0.0.0.0:32768->2181/tcp",
			wantPorts: map[int]int{2181: 32768},
			wantExtIP: "127.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ports, extIP := parsePublishedPorts(tt.text)
			assert.Equal(t, tt.wantPorts, ports)
			assert.Equal(t, tt.wantExtIP, extIP)
		})
	}
}
