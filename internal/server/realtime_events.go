package server

import (
	"context"
	"time"

	"tipa/internal/middleware"
	"tipa/internal/models"
	"tipa/internal/notifications"
)

const publishTimeout = 2 * time.Second

// publishBroadcastEvent fans ev out to every connected member. With Redis the
// hub receives it back through its subscription, so every instance delivers
// it exactly once; without Redis it goes straight to the local hub.
func (s *Server) publishBroadcastEvent(eventType notifications.EventType, payload interface{}) {
	s.publish(eventType, payload, 0)
}

// publishMemberEvent delivers ev to one member's connections only.
func (s *Server) publishMemberEvent(memberID uint, eventType notifications.EventType, payload interface{}) {
	s.publish(eventType, payload, memberID)
}

func (s *Server) publish(eventType notifications.EventType, payload interface{}, memberID uint) {
	ev, err := notifications.NewEvent(eventType, payload)
	if err != nil {
		middleware.Logger.Error("Failed to build live event", "type", eventType, "error", err)
		return
	}

	if s.redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if memberID == 0 {
			err = s.notifier.PublishBroadcast(ctx, ev)
		} else {
			err = s.notifier.PublishMember(ctx, memberID, ev)
		}
		if err != nil {
			middleware.Logger.Warn("Failed to publish live event", "type", eventType, "member_id", memberID, "error", err)
		}
		return
	}

	msg, err := ev.Encode()
	if err != nil {
		middleware.Logger.Error("Failed to encode live event", "type", eventType, "error", err)
		return
	}
	if memberID == 0 {
		s.hub.BroadcastAll([]byte(msg))
	} else {
		s.hub.SendMember(memberID, []byte(msg))
	}
}

func threadSummary(t *models.Thread) map[string]interface{} {
	return map[string]interface{}{
		"thread_id":    t.ID,
		"category":     t.Category,
		"title":        t.Title,
		"author_email": t.AuthorEmail,
		"created_at":   t.CreatedAt.Format(time.RFC3339Nano),
	}
}
