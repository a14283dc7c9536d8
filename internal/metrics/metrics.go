package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"crypto-alert-bot/internal/database"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"
)

const (
	namespace = "cryptobot"
	subsystem = "chat_bot"
)

// CacheStats is implemented by cache.PriceCache.
type CacheStats interface {
	Stats() (hits, misses uint64)
}

// BotMetrics holds the bot's prometheus collectors. A nil *BotMetrics is
// valid and records nothing.
type BotMetrics struct {
	CommandsProcessed  prometheus.Counter
	CommandErrors      *prometheus.CounterVec
	MessagesHandled    prometheus.Counter
	ChannelsCount      prometheus.Gauge
	ChannelNames       *prometheus.CounterVec
	MessagesPerChannel *prometheus.CounterVec
	AlertsTriggered    prometheus.Counter
	AlertCycleDuration prometheus.Histogram
	ChannelsSet        map[string]string
	Mutex              sync.Mutex

	registry *prometheus.Registry
}

func NewBotMetrics() *BotMetrics {
	metrics := &BotMetrics{
		CommandsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "commands_processed",
			Help:      "The total number of processed commands",
		}),
		CommandErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "command_errors",
				Help:      "Commands that ended in an error, by error kind",
			},
			[]string{"kind"},
		),
		MessagesHandled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_handled",
			Help:      "The total number of handled messages",
		}),
		ChannelsCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "channels_count",
			Help:      "The current number of unique channels the bot is operating in",
		}),
		ChannelNames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "channel_names",
				Help:      "Tracks channels the bot has interacted with",
			},
			[]string{"channel_id", "channel_name"},
		),
		MessagesPerChannel: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "messages_per_channel",
				Help:      "The total number of messages handled per channel",
			},
			[]string{"channel_id", "channel_name"},
		),
		AlertsTriggered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "alerts_triggered",
			Help:      "Price alerts that reached their target",
		}),
		AlertCycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "alert_cycle_seconds",
			Help:      "Duration of alert evaluation cycles",
			Buckets:   prometheus.DefBuckets,
		}),
		ChannelsSet: make(map[string]string),
		registry:    prometheus.NewRegistry(),
	}

	metrics.registry.MustRegister(
		metrics.CommandsProcessed,
		metrics.CommandErrors,
		metrics.MessagesHandled,
		metrics.ChannelsCount,
		metrics.ChannelNames,
		metrics.MessagesPerChannel,
		metrics.AlertsTriggered,
		metrics.AlertCycleDuration,
	)

	return metrics
}

// RegisterCache exposes cache hit and miss counts.
func (m *BotMetrics) RegisterCache(c CacheStats) {
	if m == nil {
		return
	}
	m.registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "price_cache_hits",
			Help:      "Upstream lookups answered from the price cache",
		}, func() float64 {
			hits, _ := c.Stats()
			return float64(hits)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "price_cache_misses",
			Help:      "Upstream lookups that went to the price API",
		}, func() float64 {
			_, misses := c.Stats()
			return float64(misses)
		}),
	)
}

// Handler serves the registry in the prometheus text format.
func (m *BotMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveMessage counts an inbound message and records its channel.
func (m *BotMetrics) ObserveMessage(channelID, channelName string) {
	if m == nil {
		return
	}
	m.MessagesHandled.Inc()
	m.updateChannelsSet(channelID, channelName)
	m.MessagesPerChannel.WithLabelValues(channelID, channelName).Inc()
}

func (m *BotMetrics) ObserveCommand() {
	if m == nil {
		return
	}
	m.CommandsProcessed.Inc()
}

func (m *BotMetrics) ObserveCommandError(kind string) {
	if m == nil {
		return
	}
	m.CommandErrors.WithLabelValues(kind).Inc()
}

func (m *BotMetrics) ObserveAlertTriggered() {
	if m == nil {
		return
	}
	m.AlertsTriggered.Inc()
}

func (m *BotMetrics) ObserveAlertCycle(d time.Duration) {
	if m == nil {
		return
	}
	m.AlertCycleDuration.Observe(d.Seconds())
}

func (m *BotMetrics) updateChannelsSet(channelID, channelName string) {
	m.Mutex.Lock()
	defer m.Mutex.Unlock()

	if _, exists := m.ChannelsSet[channelID]; !exists {
		m.ChannelsSet[channelID] = channelName
		m.ChannelsCount.Set(float64(len(m.ChannelsSet)))

		m.ChannelNames.WithLabelValues(channelID, channelName).Inc()
	}
}

// LoadFromDB restores counters saved by SaveToDB.
func (m *BotMetrics) LoadFromDB(db *database.DB) {
	m.Mutex.Lock()
	defer m.Mutex.Unlock()

	commandsProcessed, _ := db.GetMetric("commands_processed")
	messagesHandled, _ := db.GetMetric("messages_handled")
	alertsTriggered, _ := db.GetMetric("alerts_triggered")

	m.CommandsProcessed.Add(commandsProcessed)
	m.MessagesHandled.Add(messagesHandled)
	m.AlertsTriggered.Add(alertsTriggered)

	loadLabeledMetrics(db, "channel_names", func(channelID, channelName string, _ float64) {
		m.ChannelNames.WithLabelValues(channelID, channelName).Add(1)
		m.ChannelsSet[channelID] = channelName
	})
	m.ChannelsCount.Set(float64(len(m.ChannelsSet)))

	loadLabeledMetrics(db, "messages_per_channel", func(channelID, channelName string, value float64) {
		m.MessagesPerChannel.WithLabelValues(channelID, channelName).Add(value)
	})

	log.Info("Metrics loaded from database.")
}

func loadLabeledMetrics(db *database.DB, metricName string, callback func(labelKey, labelValue string, value float64)) {
	metricsWithLabels, err := db.GetMetricsWithLabels(metricName)
	if err != nil {
		log.Errorf("Failed to load %s: %v", metricName, err)
		return
	}
	for labelKey, labelValues := range metricsWithLabels {
		for labelValue, value := range labelValues {
			callback(labelKey, labelValue, value)
		}
	}
}

// SaveToDB persists counters so they continue after a restart.
func (m *BotMetrics) SaveToDB(db *database.DB) {
	m.Mutex.Lock()
	defer m.Mutex.Unlock()

	save := func(err error) {
		if err != nil {
			log.Errorf("Failed to save metric: %v", err)
		}
	}

	save(db.SaveMetric("commands_processed", GetMetricValue(m.CommandsProcessed)))
	save(db.SaveMetric("messages_handled", GetMetricValue(m.MessagesHandled)))
	save(db.SaveMetric("alerts_triggered", GetMetricValue(m.AlertsTriggered)))

	for channelID, channelName := range m.ChannelsSet {
		save(db.SaveMetricWithLabels("channel_names", channelID, channelName, 1))
	}

	metricChan := make(chan prometheus.Metric)
	go func() {
		m.MessagesPerChannel.Collect(metricChan)
		close(metricChan)
	}()

	for metric := range metricChan {
		metricProto := &dto.Metric{}
		if err := metric.Write(metricProto); err != nil {
			log.Errorf("Failed to read MessagesPerChannel metric: %v", err)
			continue
		}
		var channelID, channelName string
		for _, label := range metricProto.Label {
			switch label.GetName() {
			case "channel_id":
				channelID = label.GetValue()
			case "channel_name":
				channelName = label.GetValue()
			}
		}
		save(db.SaveMetricWithLabels("messages_per_channel", channelID, channelName, metricProto.Counter.GetValue()))
	}

	log.Info("Metrics saved to database.")
}

// GetMetricValue reads the current value of a single counter or gauge.
func GetMetricValue(metric prometheus.Collector) float64 {
	metricChan := make(chan prometheus.Metric, 1)
	metric.Collect(metricChan)
	close(metricChan)

	metricProto := &dto.Metric{}
	if err := (<-metricChan).Write(metricProto); err != nil {
		log.Errorf("Failed to read metric value: %v", err)
		return 0
	}

	switch {
	case metricProto.Counter != nil:
		return metricProto.Counter.GetValue()
	case metricProto.Gauge != nil:
		return metricProto.Gauge.GetValue()
	}
	return 0
}

// ChannelLabel builds a readable channel name when the platform gives none.
func ChannelLabel(channelID, name string) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("%s-%s", "PrivateChat", channelID)
}
