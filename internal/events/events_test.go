package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func TestNew(t *testing.T) {
	evt := New(FocusStockConverted, "stock-1", "INFY", map[string]any{"quantity": 5})

	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, "INFY", evt.Key())
	assert.JSONEq(t, `{"quantity":5}`, string(evt.Payload))

	noSymbol := New(PositionDeleted, "pos-1", "", nil)
	assert.Equal(t, "pos-1", noSymbol.Key())
	assert.Nil(t, noSymbol.Payload)
}

func TestKafkaSinkPublish(t *testing.T) {
	w := &fakeWriter{}
	sink := &KafkaSink{writer: w, topic: "tradebook.events"}

	evt := New(PositionCreated, "pos-1", "TCS", nil)
	require.NoError(t, sink.Publish(context.Background(), evt))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "TCS", string(msg.Key))
	assert.Equal(t, "POSITION_CREATED", string(msg.Headers[0].Value))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, evt.ID, decoded.ID)
	assert.Equal(t, PositionCreated, decoded.Type)

	require.NoError(t, sink.Close())
	assert.True(t, w.closed)
}

func TestKafkaSinkPublishError(t *testing.T) {
	sink := &KafkaSink{writer: &fakeWriter{err: errors.New("broker down")}, topic: "t"}
	err := sink.Publish(context.Background(), New(PositionCreated, "pos-1", "TCS", nil))
	assert.ErrorContains(t, err, "broker down")
}

func TestEmitSwallowsErrors(t *testing.T) {
	rec := &Recorder{Err: errors.New("boom")}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NotPanics(t, func() {
		Emit(ctx, rec, New(PositionClosed, "pos-1", "TCS", nil))
		Emit(ctx, nil, New(PositionClosed, "pos-1", "TCS", nil))
	})
	assert.Equal(t, []EventType{PositionClosed}, rec.Types())
}

func TestLogSink(t *testing.T) {
	sink := NewLogSink()
	assert.NoError(t, sink.Publish(context.Background(), New(TeamVoteCast, "pos-1", "TCS", nil)))
	assert.NoError(t, sink.Close())
}
