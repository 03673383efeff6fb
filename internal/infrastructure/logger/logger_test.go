package logger

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrint_KeyValueFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewRollbarLogger(log.New(&buf, "", 0), Options{Env: "test"})

	l.Warn("correction failed", errors.New("boom"), map[string]interface{}{"user_id": "u-1", "attempt": 3})

	assert.Equal(t, "WARN correction failed error=\"boom\" attempt=3 user_id=u-1\n", buf.String())
}

func TestPrepare(t *testing.T) {
	err := errors.New("db down")

	tests := []struct {
		name string
		args []interface{}
		want []interface{}
	}{
		{
			name: "message only",
			want: []interface{}{"hello"},
		},
		{
			name: "error carries message in extras",
			args: []interface{}{err},
			want: []interface{}{err, map[string]interface{}{"message": "hello"}},
		},
		{
			name: "maps are merged",
			args: []interface{}{map[string]interface{}{"a": 1}, map[string]interface{}{"b": 2}},
			want: []interface{}{"hello", map[string]interface{}{"a": 1, "b": 2}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, prepare("hello", tt.args))
		})
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	require.NotPanics(t, func() {
		l.Info("quiet", map[string]interface{}{"k": "v"})
	})
}
