//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haloscope/amp-service/internal/adapter/kafka"
	"github.com/haloscope/amp-service/internal/config"
	"github.com/haloscope/amp-service/internal/domain"
	"github.com/haloscope/amp-service/internal/observability"
	"github.com/haloscope/amp-service/internal/pipeline"
)

const (
	testSourceTopic = "test-source"
	testSinkTopic   = "test-sink"
)

// predictedMessage holds a deserialized message read from the sink topic.
type predictedMessage struct {
	Event   domain.PredictionEvent
	Key     string
	Headers map[string]string
}

// readPrediction reads a single message from the sink consumer and deserializes it.
func readPrediction(ctx context.Context, t *testing.T, consumer *kafkago.Reader) predictedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var event domain.PredictionEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event), "unmarshal sink message")

	return predictedMessage{
		Event:   event,
		Key:     string(msg.Key),
		Headers: headers,
	}
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader (extractor)
// and kafka.Writer (loader) correctly round-trip a request through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("test-reader-%d", time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}

	// Publish a prediction request for the peak day to the source topic.
	payload, err := json.Marshal(domain.PredictionRequest{
		RequestID: "it-req-1",
		Date:      "2026-06-04",
		Detector:  "xenon-north",
	})
	require.NoError(t, err)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte("test-key"),
		Value: payload,
	}))

	// Extract via kafka.Reader.
	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawRequest
	for {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("test-key"), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")

	// Commit the offset.
	require.NoError(t, raw.Commit(ctx))

	// Evaluate the request.
	transformer := pipeline.NewTransformer(
		domain.NewPredictor(domain.DefaultParams()),
		discardLogger(),
		observability.NewMetricsForTesting(),
	)
	out, err := transformer.Transform(ctx, raw)
	require.NoError(t, err)

	// Load via kafka.Writer.
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	require.NoError(t, writer.LoadBatch(ctx, []domain.OutputEvent{out}))

	// Read from the sink topic and verify headers + value.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	pm := readPrediction(ctx, t, consumer)
	assert.Equal(t, "rate", pm.Headers["outcome"])
	assert.Contains(t, pm.Headers, "processed_at")
	_, err = time.Parse(time.RFC3339, pm.Headers["processed_at"])
	assert.NoError(t, err, "processed_at should be valid RFC3339")

	assert.Equal(t, domain.OutcomeRate, pm.Event.Outcome)
	assert.Equal(t, "it-req-1", pm.Event.RequestID)
	assert.Equal(t, "2026-06-04", pm.Event.Date)
	assert.InDelta(t, 8.5, pm.Event.Density, 1e-9)
	assert.InDelta(t, 95.14, pm.Event.SignalRate, 0.01)
	assert.Equal(t, pm.Event.ID, pm.Key)
}

// TestPipelineEndToEnd wires the full pipeline (Reader → Transformer → Writer)
// with real Kafka and verifies a mixed batch of good, off-peak, and malformed
// requests.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("test-pipeline-%d", time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}

	requests := []domain.PredictionRequest{
		{RequestID: "e2e-1", Date: "2026-06-04"}, // peak day
		{RequestID: "e2e-2", Date: "2026-01-15"}, // off-peak, baseline rate
		{RequestID: "e2e-3", Date: "2026-13-45"}, // malformed, tagged error
	}

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	for _, req := range requests {
		payload, err := json.Marshal(req)
		require.NoError(t, err)
		require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
			Key:   []byte(req.RequestID),
			Value: payload,
		}))
	}

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	transformer := pipeline.NewTransformer(
		domain.NewPredictor(domain.DefaultParams()),
		discardLogger(),
		metrics,
	)
	p := pipeline.New(reader, transformer, writer, discardLogger(), metrics, 10)

	runCtx, stopPipeline := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- p.Run(runCtx) }()

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	byRequestID := map[string]predictedMessage{}
	for len(byRequestID) < len(requests) {
		pm := readPrediction(ctx, t, consumer)
		byRequestID[pm.Event.RequestID] = pm
	}

	stopPipeline()
	require.NoError(t, <-done)

	peak := byRequestID["e2e-1"]
	assert.Equal(t, domain.OutcomeRate, peak.Event.Outcome)
	assert.InDelta(t, 95.14, peak.Event.SignalRate, 0.01)

	offPeak := byRequestID["e2e-2"]
	assert.Equal(t, domain.OutcomeRate, offPeak.Event.Outcome)
	assert.Equal(t, 1.0, offPeak.Event.SignalRate)
	assert.Equal(t, 0.0, offPeak.Event.Probability)

	malformed := byRequestID["e2e-3"]
	assert.Equal(t, domain.OutcomeError, malformed.Event.Outcome)
	assert.Equal(t, "error", malformed.Headers["outcome"])
	assert.Zero(t, malformed.Event.SignalRate)
}
