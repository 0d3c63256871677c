package provisioning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConsoleObserver_FormatEvent(t *testing.T) {
	t.Parallel()

	o := NewConsoleObserver()

	msg := o.formatEvent(Event{
		Type:     EventResourceCreated,
		Phase:    "provision",
		Resource: "demo-vpc",
		Message:  "vpc created",
	})

	assert.Contains(t, msg, "resource.created")
	assert.Contains(t, msg, "[provision]")
	assert.Contains(t, msg, "resource=demo-vpc")
	assert.Contains(t, msg, "vpc created")
}

func TestConsoleObserver_WithFields(t *testing.T) {
	t.Parallel()

	o := NewConsoleObserver().WithFields(map[string]string{"cluster": "demo"})
	child, ok := o.WithFields(map[string]string{"region": "eu-central-1"}).(*ConsoleObserver)
	assert.True(t, ok)

	assert.Equal(t, "demo", child.contextFields["cluster"])
	assert.Equal(t, "eu-central-1", child.contextFields["region"])

	// The parent is unchanged.
	parent, ok := o.(*ConsoleObserver)
	assert.True(t, ok)
	_, has := parent.contextFields["region"]
	assert.False(t, has)
}

func TestEventTimestampDefaulted(t *testing.T) {
	t.Parallel()

	o := NewConsoleObserver()
	e := Event{Type: EventProgress, Message: "halfway"}
	assert.True(t, e.Timestamp.IsZero())

	// Event stamps unset timestamps on emission; formatting must not panic
	// either way.
	o.Event(e)
	o.Event(Event{Type: EventProgress, Message: "done", Timestamp: time.Now()})
}
