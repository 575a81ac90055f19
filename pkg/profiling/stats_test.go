package profiling

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecorderDisabledIsNoop(t *testing.T) {
	r := &Recorder{}
	r.Start("event:window:new").Stop()
	r.Observe("command", time.Millisecond)
	assert.Zero(t, r.Count("command"))

	var out bytes.Buffer
	r.Summarize(&out)
	assert.Empty(t, out.String())
}

func TestRecorderAggregates(t *testing.T) {
	r := &Recorder{}
	r.Enable()
	r.Observe("command", 2*time.Millisecond)
	r.Observe("command", 4*time.Millisecond)
	r.Observe("event:window:new", time.Millisecond)
	r.Start("event:window:new").Stop()

	assert.Equal(t, 2, r.Count("command"))
	assert.Equal(t, 2, r.Count("event:window:new"))

	var out bytes.Buffer
	r.Summarize(&out)
	assert.Contains(t, out.String(), "- command: 2× avg 3ms max 4ms")
	assert.Less(t, bytes.Index(out.Bytes(), []byte("command")), bytes.Index(out.Bytes(), []byte("event:window:new")))
}
