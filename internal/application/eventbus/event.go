// Package eventbus implements spec.md §6's `publish(topic, event)` contract:
// a fan-out of campaign/lead/account state changes to in-process and
// cross-instance subscribers, driving the "live feeds" mentioned in §1(e).
package eventbus

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies what changed.
type EventType string

const (
	EventTypeActivityRecorded  EventType = "activity.recorded"
	EventTypeCampaignStarted   EventType = "campaign.started"
	EventTypeCampaignCompleted EventType = "campaign.completed"
	EventTypeCampaignStats     EventType = "campaign.stats"
	EventTypeAccountStatus     EventType = "account.status"
)

// Topics are the channel names spec.md §6 names for live feeds.
const (
	TopicCampaignStats   = "campaigns:list:updates"
	TopicAccountStatus   = "linkedin:account:status"
	campaignTopicPattern = "campaign:%s:stats"
)

// CampaignTopic returns the per-campaign stats topic for campaignID.
func CampaignTopic(campaignID uuid.UUID) string {
	return "campaign:" + campaignID.String() + ":stats"
}

// Event is the payload fanned out to subscribers.
type Event struct {
	Type       EventType
	Topic      string
	TenantID   uuid.UUID
	CampaignID *uuid.UUID
	Timestamp  time.Time
	Data       map[string]any
}

// Filter decides whether an event should reach a given subscriber.
type Filter interface {
	ShouldNotify(event Event) bool
}

// TopicFilter passes only events on the given topics.
type TopicFilter struct {
	topics map[string]bool
}

// NewTopicFilter builds a Filter that only admits the given topics. No
// topics means all events pass.
func NewTopicFilter(topics ...string) Filter {
	if len(topics) == 0 {
		return nil
	}
	m := make(map[string]bool, len(topics))
	for _, t := range topics {
		m[t] = true
	}
	return &TopicFilter{topics: m}
}

func (f *TopicFilter) ShouldNotify(event Event) bool {
	if f == nil || len(f.topics) == 0 {
		return true
	}
	return f.topics[event.Topic]
}
