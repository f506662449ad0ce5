package notifications

import (
	"context"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"tipa/internal/middleware"
	"tipa/internal/observability"
)

const (
	channelPrefix       = "tipa:notifications:"
	broadcastChannel    = channelPrefix + "broadcast"
	memberChannelPrefix = channelPrefix + "member:"
)

// Notifier publishes events into Redis channels. A nil client turns every
// call into a no-op so the API keeps working without Redis.
type Notifier struct {
	rdb *redis.Client
}

func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishBroadcast sends ev to every connected member.
func (n *Notifier) PublishBroadcast(ctx context.Context, ev Event) error {
	return n.publish(ctx, broadcastChannel, ev)
}

// PublishMember sends ev to the connections of one member.
func (n *Notifier) PublishMember(ctx context.Context, memberID uint, ev Event) error {
	return n.publish(ctx, MemberChannel(memberID), ev)
}

func (n *Notifier) publish(ctx context.Context, channel string, ev Event) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	payload, err := ev.Encode()
	if err != nil {
		return err
	}
	if err := n.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		observability.RedisErrorRate.WithLabelValues("publish").Inc()
		return err
	}
	return nil
}

// StartSubscriber subscribes to every notification channel and calls
// onMessage for each message until ctx is cancelled.
func (n *Notifier) StartSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, channelPrefix+"*")
	// Wait for the subscription so publishes right after start are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		observability.RedisErrorRate.WithLabelValues("subscribe").Inc()
		return err
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("Panic in notification subscriber", "panic", r, "stack", string(debug.Stack()))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// MemberChannel derives the Redis channel name for a member.
func MemberChannel(memberID uint) string {
	return memberChannelPrefix + strconv.FormatUint(uint64(memberID), 10)
}

// parseMemberChannel returns the member id of a member channel.
func parseMemberChannel(channel string) (uint, bool) {
	rest, ok := strings.CutPrefix(channel, memberChannelPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(rest, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
