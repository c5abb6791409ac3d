package eventbus

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSubscriber struct {
	name      string
	filter    Filter
	mu        sync.Mutex
	events    []Event
	shouldErr bool
}

func newMockSubscriber(name string) *mockSubscriber {
	return &mockSubscriber{name: name}
}

func (m *mockSubscriber) Name() string { return m.name }
func (m *mockSubscriber) Filter() Filter { return m.filter }

func (m *mockSubscriber) OnEvent(ctx context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	if m.shouldErr {
		return fmt.Errorf("mock subscriber error")
	}
	return nil
}

func (m *mockSubscriber) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func TestBus_RegisterDuplicateName(t *testing.T) {
	b := New()
	require.NoError(t, b.Register(newMockSubscriber("a")))
	assert.Error(t, b.Register(newMockSubscriber("a")))
}

func TestBus_Unregister(t *testing.T) {
	b := New()
	require.NoError(t, b.Register(newMockSubscriber("a")))
	assert.NoError(t, b.Unregister("a"))
	assert.Error(t, b.Unregister("a"))
}

func TestBus_PublishNotifiesAllSubscribers(t *testing.T) {
	b := New()
	sub1 := newMockSubscriber("sub1")
	sub2 := newMockSubscriber("sub2")
	require.NoError(t, b.Register(sub1))
	require.NoError(t, b.Register(sub2))

	tenantID := uuid.New()
	b.Publish(context.Background(), TopicCampaignStats, Event{
		Type:      EventTypeCampaignStats,
		TenantID:  tenantID,
		Timestamp: time.Now(),
	})

	assert.Eventually(t, func() bool {
		return sub1.count() == 1 && sub2.count() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestBus_PublishRespectsFilter(t *testing.T) {
	b := New()
	sub := newMockSubscriber("filtered")
	sub.filter = NewTopicFilter(TopicAccountStatus)
	require.NoError(t, b.Register(sub))

	b.Publish(context.Background(), TopicCampaignStats, Event{Type: EventTypeCampaignStats})

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, sub.count())
}

func TestBus_SubscriberPanicIsRecovered(t *testing.T) {
	b := New()
	sub := &panicSubscriber{}
	require.NoError(t, b.Register(sub))

	assert.NotPanics(t, func() {
		b.Publish(context.Background(), TopicCampaignStats, Event{})
		time.Sleep(50 * time.Millisecond)
	})
}

type panicSubscriber struct{}

func (p *panicSubscriber) Name() string  { return "panic" }
func (p *panicSubscriber) Filter() Filter { return nil }
func (p *panicSubscriber) OnEvent(ctx context.Context, event Event) error {
	panic("boom")
}

func TestCampaignTopic(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, fmt.Sprintf("campaign:%s:stats", id), CampaignTopic(id))
}
