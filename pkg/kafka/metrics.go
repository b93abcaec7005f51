package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "yorumator"

var consumerLabels = []string{"topic", "consumer_group"}

func consumerCounter(name, help string) *prometheus.CounterVec {
	return promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "kafka_consumer",
		Name:      name,
		Help:      help,
	}, consumerLabels)
}

func producerCounter(name, help string) *prometheus.CounterVec {
	return promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "kafka_producer",
		Name:      name,
		Help:      help,
	}, []string{"topic"})
}

// Consumer metrics, labelled by topic and consumer group unless noted.
var (
	ConsumerMessagesReceived  = consumerCounter("messages_received_total", "Messages fetched from the broker.")
	ConsumerMessagesProcessed = consumerCounter("messages_processed_total", "Messages whose handler succeeded.")
	ConsumerMessagesFailed    = consumerCounter("messages_failed_total", "Messages whose handler failed every retry.")
	ConsumerDLQPublished      = consumerCounter("dlq_published_total", "Messages parked on a dead-letter topic.")

	ConsumerProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "kafka_consumer",
		Name:      "processing_duration_seconds",
		Help:      "Time spent in the message handler, retries included.",
		Buckets:   prometheus.DefBuckets,
	}, consumerLabels)

	// ConsumerMessagesDuplicate is labelled by event type: a redelivered
	// event may arrive on any member of the group.
	ConsumerMessagesDuplicate = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "kafka_consumer",
		Name:      "messages_duplicate_total",
		Help:      "Already-materialized events skipped by the idempotency guard.",
	}, []string{"event_type"})
)

// Producer metrics, labelled by topic.
var (
	ProducerMessagesPublished = producerCounter("messages_published_total", "Events written to Kafka.")
	ProducerPublishErrors     = producerCounter("publish_errors_total", "Event writes that failed.")

	ProducerPublishDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "kafka_producer",
		Name:      "publish_duration_seconds",
		Help:      "Duration of synchronous event writes.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"topic"})
)
