package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/huellitas/huellitas-backend/pkg/config"
	"github.com/huellitas/huellitas-backend/pkg/db/models"
	"github.com/huellitas/huellitas-backend/pkg/enums"
	"github.com/huellitas/huellitas-backend/pkg/logger"
	"github.com/huellitas/huellitas-backend/pkg/metrics"
	"github.com/huellitas/huellitas-backend/pkg/outbox"
	"github.com/huellitas/huellitas-backend/pkg/outbox/payloads"
	"github.com/huellitas/huellitas-backend/pkg/outbox/registry"
)

func TestProcessBatchContinuesAfterTransientFailure(t *testing.T) {
	repo := &fakeRepo{events: []models.OutboxEvent{
		visitEvent(t, 0),
		visitEvent(t, 0),
	}}
	pub := &fakePublisher{results: []publishResult{
		fakePublishResult{err: errors.New("transient")},
		fakePublishResult{},
	}}
	dlq := &fakeDLQRepo{}
	reg := prometheus.NewRegistry()
	p := newTestPublisher(t, repo, pub, resolvingRegistry("huellitas-domain-events"), dlq, reg, config.OutboxConfig{})

	processed, err := p.processBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, []uuid.UUID{repo.events[0].ID}, repo.failed)
	assert.Equal(t, []uuid.UUID{repo.events[1].ID}, repo.published)
	assert.Empty(t, dlq.entries)

	expected := `
# HELP huellitas_outbox_published_total Outbox events delivered to Pub/Sub.
# TYPE huellitas_outbox_published_total counter
huellitas_outbox_published_total{event_type="visit_status_changed"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "huellitas_outbox_published_total"))
}

func TestProcessBatchSetsMessageAttributes(t *testing.T) {
	event := visitEvent(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{}}}
	p := newTestPublisher(t, repo, pub, resolvingRegistry("huellitas-domain-events"), &fakeDLQRepo{}, nil, config.OutboxConfig{})

	_, err := p.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, pub.sent, 1)

	msg := pub.sent[0]
	assert.Equal(t, event.Payload, string(msg.Data))
	assert.Equal(t, string(enums.EventVisitStatusChanged), msg.Attributes["event_type"])
	assert.Equal(t, event.AggregateID.String(), msg.Attributes["aggregate_id"])
	assert.Equal(t, messageSource, msg.Attributes["source"])
}

func TestProcessBatchDeadLettersNonRetryable(t *testing.T) {
	event := visitEvent(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	dlq := &fakeDLQRepo{}
	resolver := &fakeRegistry{err: registry.NewNonRetryableError(errors.New("invalid payload"))}
	p := newTestPublisher(t, repo, &fakePublisher{}, resolver, dlq, nil, config.OutboxConfig{})

	processed, err := p.processBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	require.Len(t, dlq.entries, 1)

	entry := dlq.entries[0]
	assert.Equal(t, event.ID, entry.EventID)
	assert.Equal(t, event.Payload, entry.Payload)
	assert.Equal(t, enums.OutboxDLQReasonNonRetryable, entry.ErrorReason)
	assert.Equal(t, []uuid.UUID{event.ID}, repo.terminal)
}

func TestProcessBatchDeadLettersAtMaxAttempts(t *testing.T) {
	event := visitEvent(t, 1)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{err: errors.New("transient")}}}
	dlq := &fakeDLQRepo{}
	reg := prometheus.NewRegistry()
	p := newTestPublisher(t, repo, pub, resolvingRegistry("huellitas-domain-events"), dlq, reg, config.OutboxConfig{MaxAttempts: 2})

	_, err := p.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, dlq.entries, 1)
	assert.Equal(t, enums.OutboxDLQReasonMaxAttempts, dlq.entries[0].ErrorReason)
	assert.Empty(t, repo.failed)

	expected := `
# HELP huellitas_outbox_dead_letter_total Outbox events moved to the DLQ.
# TYPE huellitas_outbox_dead_letter_total counter
huellitas_outbox_dead_letter_total{event_type="visit_status_changed",reason="max_attempts"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "huellitas_outbox_dead_letter_total"))
}

func TestProcessBatchReparkedEventIsNotCountedTwice(t *testing.T) {
	event := visitEvent(t, 1)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{err: errors.New("transient")}}}
	dlq := &fakeDLQRepo{entries: []models.OutboxDLQ{
		outbox.DeadLetterFor(event, enums.OutboxDLQReasonMaxAttempts, errors.New("earlier run")),
	}}
	reg := prometheus.NewRegistry()
	p := newTestPublisher(t, repo, pub, resolvingRegistry("huellitas-domain-events"), dlq, reg, config.OutboxConfig{MaxAttempts: 2})

	_, err := p.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, dlq.entries, 1)
	require.NotNil(t, dlq.entries[0].ErrorMessage)
	assert.Equal(t, "earlier run", *dlq.entries[0].ErrorMessage)
	assert.Equal(t, []uuid.UUID{event.ID}, repo.terminal)
	count, err := testutil.GatherAndCount(reg, "huellitas_outbox_dead_letter_total")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestProcessBatchUnknownTopicIsNonRetryable(t *testing.T) {
	event := visitEvent(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	dlq := &fakeDLQRepo{}
	p := newTestPublisher(t, repo, nil, resolvingRegistry("missing-topic"), dlq, nil, config.OutboxConfig{})

	_, err := p.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, dlq.entries, 1)
	assert.Contains(t, *dlq.entries[0].ErrorMessage, "missing-topic")
}

func TestNewPublisherAppliesDefaults(t *testing.T) {
	p := newTestPublisher(t, &fakeRepo{}, &fakePublisher{}, &fakeRegistry{}, &fakeDLQRepo{}, nil, config.OutboxConfig{})
	assert.Equal(t, defaultBatchSize, p.batchSize)
	assert.Equal(t, defaultMaxAttempts, p.maxAttempts)
	assert.Equal(t, defaultPollMs*time.Millisecond, p.pollInterval)

	_, err := NewPublisher(PublisherParams{Logger: logger.Nop()})
	assert.Error(t, err)
}

func newTestPublisher(t *testing.T, repo outboxRepository, pub *fakePublisher, resolver eventResolver, dlq dlqRepository, reg prometheus.Registerer, cfg config.OutboxConfig) *Publisher {
	t.Helper()
	p, err := NewPublisher(PublisherParams{
		Config:   cfg,
		Logger:   logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard}),
		DB:       fakeDB{},
		Topics:   fakeTopics{},
		Outbox:   repo,
		DLQ:      dlq,
		Registry: resolver,
		Metrics:  metrics.NewOutboxMetrics(reg),
		PublisherFor: func(topic string) topicPublisher {
			if pub == nil || topic == "missing-topic" {
				return nil
			}
			return pub
		},
	})
	require.NoError(t, err)
	return p
}

func visitEvent(t *testing.T, attempts int) models.OutboxEvent {
	t.Helper()
	data, err := json.Marshal(payloads.VisitStatusChangedEvent{
		VisitID: uuid.New(),
		From:    enums.VisitStatusScheduled,
		To:      enums.VisitStatusAccepted,
	})
	require.NoError(t, err)
	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now(),
		Data:       data,
	})
	require.NoError(t, err)
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventVisitStatusChanged,
		AggregateType: enums.AggregateVisit,
		AggregateID:   uuid.New(),
		Payload:       string(envelope),
		AttemptCount:  attempts,
	}
}

func resolvingRegistry(topic string) *fakeRegistry {
	return &fakeRegistry{resolved: &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{
			EventType:     enums.EventVisitStatusChanged,
			AggregateType: enums.AggregateVisit,
			Topic:         topic,
		},
		Payload: &payloads.VisitStatusChangedEvent{},
	}}
}

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	terminal  []uuid.UUID
}

func (f *fakeRepo) FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error {
	f.terminal = append(f.terminal, id)
	return nil
}

type fakeDB struct{}

func (fakeDB) Ping(context.Context) error { return nil }

func (fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error { return fn(nil) }

type fakeTopics struct{}

func (fakeTopics) Ping(context.Context) error { return nil }

func (fakeTopics) Publisher(string) *gcppubsub.Publisher { return nil }

type fakePublisher struct {
	results []publishResult
	sent    []*gcppubsub.Message
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.sent = append(f.sent, msg)
	if len(f.results) == 0 {
		return nil
	}
	result := f.results[0]
	f.results = f.results[1:]
	return result
}

type fakePublishResult struct {
	err error
}

func (f fakePublishResult) Get(context.Context) (string, error) {
	return "", f.err
}

type fakeRegistry struct {
	resolved *registry.ResolvedEvent
	err      error
}

func (f *fakeRegistry) Resolve(event models.OutboxEvent) (*registry.ResolvedEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	resolved := *f.resolved
	resolved.Envelope.EventID = event.ID.String()
	resolved.Envelope.OccurredAt = time.Now()
	return &resolved, nil
}

type fakeDLQRepo struct {
	entries []models.OutboxDLQ
}

func (f *fakeDLQRepo) ParkTx(_ *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error) (bool, error) {
	for _, entry := range f.entries {
		if entry.EventID == event.ID {
			return false, nil
		}
	}
	f.entries = append(f.entries, outbox.DeadLetterFor(event, reason, cause))
	return true, nil
}
