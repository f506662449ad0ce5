package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	ev, err := NewEvent(ThreadCreated, map[string]uint{"id": 1})
	require.NoError(t, err)

	assert.NoError(t, n.PublishBroadcast(context.Background(), ev))
	assert.NoError(t, n.PublishMember(context.Background(), 3, ev))
	assert.NoError(t, n.StartSubscriber(context.Background(), func(string, string) {}))
}

func TestMemberChannel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "tipa:notifications:member:42", MemberChannel(42))

	id, ok := parseMemberChannel(MemberChannel(42))
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)

	for _, bad := range []string{"tipa:notifications:member:", "tipa:notifications:member:x", "tipa:notifications:member:0", "other:member:1"} {
		_, ok := parseMemberChannel(bad)
		assert.False(t, ok, bad)
	}
}

func TestNotifier_SubscriberReceivesEnvelope(t *testing.T) {
	n := NewNotifier(newRedis(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type msg struct{ channel, payload string }
	got := make(chan msg, 4)
	require.NoError(t, n.StartSubscriber(ctx, func(channel, payload string) {
		got <- msg{channel, payload}
	}))

	ev, err := NewEvent(MemberApproved, map[string]uint{"member_id": 9})
	require.NoError(t, err)
	require.NoError(t, n.PublishMember(context.Background(), 9, ev))

	select {
	case m := <-got:
		assert.Equal(t, MemberChannel(9), m.channel)
		var decoded Event
		require.NoError(t, json.Unmarshal([]byte(m.payload), &decoded))
		assert.Equal(t, MemberApproved, decoded.Type)
		assert.JSONEq(t, `{"member_id":9}`, string(decoded.Payload))
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
}

func TestNotifier_SubscriberSurvivesPanics(t *testing.T) {
	n := NewNotifier(newRedis(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 2)
	require.NoError(t, n.StartSubscriber(ctx, func(string, string) {
		calls <- struct{}{}
		panic("boom")
	}))

	ev, _ := NewEvent(EventUpdated, nil)
	for i := 0; i < 2; i++ {
		require.NoError(t, n.PublishBroadcast(context.Background(), ev))
		select {
		case <-calls:
		case <-time.After(time.Second):
			t.Fatalf("message %d not delivered", i)
		}
	}
}
