package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublish_WritesKeyedJSON(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, topic: "fluxia.sales", logger: zap.NewNop()}

	event := map[string]string{"event_type": "sale.completed", "sale_id": "s-1"}
	require.NoError(t, p.Publish(context.Background(), "co-1", event))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "co-1", string(w.msgs[0].Key))
	assert.False(t, w.msgs[0].Time.IsZero())

	var got map[string]string
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, event, got)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublish_Errors(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, topic: "fluxia.sales", logger: zap.NewNop()}

	err := p.Publish(context.Background(), "co-1", make(chan int))
	require.Error(t, err)
	assert.Empty(t, w.msgs, "unencodable events are not written")

	broken := errors.New("leader not available")
	w.err = broken
	err = p.Publish(context.Background(), "co-1", map[string]string{"sale_id": "s-1"})
	assert.ErrorIs(t, err, broken)
}

func TestNewProducer_UsesTopic(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, "fluxia.sales", zap.NewNop())
	kw, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "fluxia.sales", kw.Topic)
	assert.IsType(t, &kafka.Hash{}, kw.Balancer)
	require.NoError(t, p.Close())
}

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop{}.Publish(context.Background(), "co-1", struct{}{}))
}
