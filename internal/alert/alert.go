package alert

import (
	"context"
	"sort"
	"sync"
	"time"

	"crypto-alert-bot/internal/metrics"
	"crypto-alert-bot/internal/price"
	"crypto-alert-bot/internal/store"
	"crypto-alert-bot/internal/types"
	"crypto-alert-bot/lib/helpers"
	"crypto-alert-bot/lib/translation"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const DefaultInterval = time.Minute

// Notifier delivers a text message to a chat channel.
//
//go:generate mockgen -package=alert -destination=mock_notifier_test.go -source=alert.go Notifier
type Notifier interface {
	Notify(ctx context.Context, target types.ChannelID, text string) error
}

// Timer returns a channel that fires once after d. time.After satisfies it.
type Timer func(d time.Duration) <-chan time.Time

// Evaluator compares stored alerts with current prices and notifies the
// channels whose target has been reached.
type Evaluator struct {
	store    *store.Store
	source   price.Source
	notifier Notifier
	metrics  *metrics.BotMetrics
	interval time.Duration
	timer    Timer

	// only one cycle runs at a time
	mu sync.Mutex
}

type Option func(*Evaluator)

func WithInterval(d time.Duration) Option {
	return func(e *Evaluator) {
		if d > 0 {
			e.interval = d
		}
	}
}

func WithTimer(t Timer) Option {
	return func(e *Evaluator) { e.timer = t }
}

func WithMetrics(m *metrics.BotMetrics) Option {
	return func(e *Evaluator) { e.metrics = m }
}

func NewEvaluator(s *store.Store, source price.Source, notifier Notifier, opts ...Option) *Evaluator {
	e := &Evaluator{
		store:    s,
		source:   source,
		notifier: notifier,
		interval: DefaultInterval,
		timer:    time.After,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run evaluates alerts every interval until ctx is done. A cycle that has
// started always completes; ctx is checked only between cycles.
func (e *Evaluator) Run(ctx context.Context) {
	log.Infof("Alert service started, checking every %s", e.interval)

	for {
		if err := e.RunCycle(context.WithoutCancel(ctx)); err != nil {
			log.WithError(err).Error("Alert cycle failed")
		}

		select {
		case <-ctx.Done():
			log.Info("Alert service stopped.")
			return
		case <-e.timer(e.interval):
		}
	}
}

// RunCycle performs one evaluation pass. Prices are fetched sequentially
// outside the store lock; triggered alerts are then removed in a single store
// update, which is saved even when nothing fired. Notifications go out after
// the update has been saved and the lock released, so a slow chat API never
// blocks alert commands. An alert whose removal could not be saved is not
// notified and stays for the next cycle.
func (e *Evaluator) RunCycle(ctx context.Context) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	defer func() {
		e.metrics.ObserveAlertCycle(time.Since(start))
		if r := recover(); r != nil {
			err = errors.Errorf("panic in alert cycle: %v", r)
		}
	}()

	log.Debug("Checking alerts...")

	snapshot, err := e.store.Snapshot(ctx)
	if err != nil {
		return errors.Wrap(err, "load alerts")
	}

	prices := e.fetchPrices(ctx, snapshot)

	var fired []firedAlert
	err = e.store.Update(ctx, func(alerts types.Alerts) error {
		fired = fired[:0]
		for _, asset := range sortedAssets(alerts) {
			record := alerts[asset]
			current, ok := prices[asset]
			if !ok {
				continue
			}

			log.WithFields(log.Fields{
				"asset":   asset,
				"target":  record.TargetPrice,
				"current": current,
			}).Debug("Checking price alert")

			if current < record.TargetPrice {
				continue
			}

			fired = append(fired, firedAlert{record: record, price: current})
			delete(alerts, asset)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "save alerts")
	}

	for _, f := range fired {
		e.notify(ctx, f.record, f.price)
	}

	log.Debugf("Alert check completed, %d of %d triggered", len(fired), len(snapshot))
	return nil
}

type firedAlert struct {
	record types.AlertRecord
	price  float64
}

func (e *Evaluator) fetchPrices(ctx context.Context, alerts types.Alerts) map[string]float64 {
	prices := make(map[string]float64, len(alerts))
	for _, asset := range sortedAssets(alerts) {
		p, err := e.source.Price(ctx, asset)
		if err != nil {
			log.WithError(err).Warnf("No price data for %s, retrying next cycle", asset)
			continue
		}
		prices[asset] = p
	}
	return prices
}

func (e *Evaluator) notify(ctx context.Context, record types.AlertRecord, current float64) {
	text := NotificationText(record, current)

	entry := log.WithFields(log.Fields{
		"asset":   record.AssetID,
		"channel": record.NotifyTarget,
	})

	if err := e.notifier.Notify(ctx, record.NotifyTarget, text); err != nil {
		entry.WithError(err).Error("Failed to send price alert notification")
	} else {
		entry.Info("Price alert notification sent")
	}
	e.metrics.ObserveAlertTriggered()
}

// NotificationText is the message sent when an alert fires.
func NotificationText(record types.AlertRecord, current float64) string {
	return translation.Translate(
		"🚨 **ALERT**: %s price has reached $%s! (Target: $%s)",
		record.AssetID,
		helpers.FormatPriceRaw(current),
		helpers.FormatPriceRaw(record.TargetPrice),
	)
}

func sortedAssets(alerts types.Alerts) []string {
	assets := make([]string, 0, len(alerts))
	for asset := range alerts {
		assets = append(assets, asset)
	}
	sort.Strings(assets)
	return assets
}
