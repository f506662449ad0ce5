package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	MemberKeyPrefix        = "member:%d"
	MemberSubjectKeyPrefix = "member:sub:%s"
	EventKeyPrefix         = "event:%d"
	ResourcesKeyPrefix     = "resources:%s"
)

const (
	MemberTTL    = 5 * time.Minute
	EventTTL     = 2 * time.Minute
	ResourcesTTL = 10 * time.Minute
)

func MemberKey(memberID uint) string {
	return fmt.Sprintf(MemberKeyPrefix, memberID)
}

func MemberSubjectKey(subject string) string {
	return fmt.Sprintf(MemberSubjectKeyPrefix, subject)
}

func EventKey(eventID uint) string {
	return fmt.Sprintf(EventKeyPrefix, eventID)
}

// ResourcesKey caches the public list for one kind ("" is every kind).
func ResourcesKey(kind string) string {
	if kind == "" {
		kind = "all"
	}
	return fmt.Sprintf(ResourcesKeyPrefix, kind)
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateMember(ctx context.Context, memberID uint, subject string) {
	Invalidate(ctx, MemberKey(memberID), MemberSubjectKey(subject))
}

func InvalidateEvent(ctx context.Context, eventID uint) {
	Invalidate(ctx, EventKey(eventID))
}

func InvalidateResources(ctx context.Context, kind string) {
	Invalidate(ctx, ResourcesKey(kind), ResourcesKey(""))
}
