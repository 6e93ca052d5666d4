package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeRoundTrip(t *testing.T) {
	msg, err := NewProfessorDeleted(ProfessorDeleted{ProfessorID: "p1", Name: "Ana | Cruz"})
	require.NoError(t, err)

	got, err := deserialize(serialize(msg))
	require.NoError(t, err)
	assert.Equal(t, TypeProfessorDeleted, got.Type)

	p, err := DecodeProfessorDeleted(got)
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ProfessorID)
	assert.Equal(t, "Ana | Cruz", p.Name)
}

func TestDecodeRejectsOtherTypes(t *testing.T) {
	_, err := DecodeProfessorDeleted(Message{Type: "checkin", Body: []byte("{}")})
	assert.Error(t, err)
}

func TestInMemoryPublishConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	require.NoError(t, q.Publish(ctx, Message{Type: TypeProfessorDeleted, Body: []byte(`{"professorId":"p1"}`)}))

	ch, err := q.Consume(ctx)
	require.NoError(t, err)
	select {
	case msg := <-ch:
		assert.Equal(t, TypeProfessorDeleted, msg.Type)
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}

	cancel()
	assert.Eventually(t, func() bool {
		_, open := <-ch
		return !open
	}, time.Second, 10*time.Millisecond)
}
