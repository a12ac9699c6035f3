package ipaddr

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValid(t *testing.T) {
	tests := []struct {
		ip   string
		want bool
	}{
		{"192.168.1.1", true},
		{"0.0.0.0", true},
		{"255.255.255.255", true},
		{"256.1.1.1", false},
		{"999.999.999.999", false},
		{"1.2.3", false},
		{"1.2.3.4.5", false},
		{"1.2.3.+4", false},
		{"1..3.4", false},
		{"1.2.3.0004", false},
		{"2001:0db8:85a3:0000:0000:8a2e:0370:7334", true},
		{"2001:db8:85a3:0:0:8a2e:370:7334", true},
		{"2001:db8:85a3::8a2e:370:7334", false},
		{"::1", false},
		{"::ffff:192.168.1.1", false},
		{"2001:db8:85a3:0:0:8a2e:370:73345", false},
		{"2001:db8:85a3:0:0:8a2e:370:zzzz", false},
		{"not-an-ip", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(tt.ip))
		})
	}
}

func TestFromHeaders(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
		ok      bool
	}{
		{"first forwarded hop", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "10.0.0.1", true},
		{"forwarded wins over real ip", map[string]string{"X-Forwarded-For": "10.0.0.1", "X-Real-IP": "10.0.0.9"}, "10.0.0.1", true},
		{"real ip fallback", map[string]string{"X-Real-IP": "172.16.0.4"}, "172.16.0.4", true},
		{"empty forwarded hop falls back", map[string]string{"X-Forwarded-For": " , 10.0.0.2", "X-Real-IP": "172.16.0.4"}, "172.16.0.4", true},
		{"invalid forwarded is dropped", map[string]string{"X-Forwarded-For": "unknown", "X-Real-IP": "172.16.0.4"}, "", false},
		{"no headers", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}
			got, ok := FromHeaders(h)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
