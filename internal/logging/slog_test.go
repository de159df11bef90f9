package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeHost(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		expected string
	}{
		{
			name:     "URL with IP",
			host:     "https://192.168.1.100:6443",
			expected: "https://<redacted-ip>:6443",
		},
		{
			name:     "URL with hostname",
			host:     "https://api.cluster.example.com:6443",
			expected: "https://api.cluster.example.com:6443",
		},
		{
			name:     "bare IP",
			host:     "10.0.0.1",
			expected: "<redacted-ip>",
		},
		{
			name:     "empty",
			host:     "",
			expected: "<empty>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeHost(tt.host))
		})
	}
}

func TestAttributeHelpers(t *testing.T) {
	assert.Equal(t, KeyOperation, Operation("pod_list").Key)
	assert.Equal(t, "pod_list", Operation("pod_list").Value.String())

	assert.Equal(t, KeyContext, Context("prod").Key)
	assert.Equal(t, KeyNamespace, Namespace("default").Key)
	assert.Equal(t, KeyKind, Kind("Pod").Key)
	assert.Equal(t, KeyName, Name("web-1").Key)
	assert.Equal(t, KeyStatus, Status(StatusSuccess).Key)
	assert.Equal(t, KeyDuration, Duration(time.Second).Key)
}

func TestErrorAttr(t *testing.T) {
	assert.Equal(t, "", Error(nil).Value.String())
	assert.Equal(t, "boom", Error(errors.New("boom")).Value.String())
}

func TestSetupReturnsLogger(t *testing.T) {
	logger := Setup(true)
	assert.NotNil(t, logger)
}
