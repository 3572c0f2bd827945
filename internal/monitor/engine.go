package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/t77yq/floorwatch/internal/audio"
	"github.com/t77yq/floorwatch/internal/model"
)

// Options configures an AlertEngine
type Options struct {
	Settings           model.Settings
	EvaluationInterval time.Duration
	// Location defines calendar days for the daily goal; nil means time.Local
	Location *time.Location
	Clock    clock.Clock
	Player   audio.Player
	// CueRate limits audio cues per second; zero disables the limit
	CueRate  rate.Limit
	CueBurst int
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{
		Settings:           model.DefaultSettings(),
		EvaluationInterval: EvaluationInterval,
		Location:           time.Local,
		Clock:              clock.New(),
		Player:             audio.NopPlayer{},
		CueRate:            2,
		CueBurst:           3,
	}
}

// AlertEngine owns the alert store and settings, runs the periodic rule
// evaluation and exposes the operations UI consumers call.
type AlertEngine struct {
	logger   *zap.Logger
	feed     SnapshotFeed
	clock    clock.Clock
	interval time.Duration

	store      *AlertStore
	settings   *SettingsController
	evaluator  *Evaluator
	wheel      *ExpiryWheel
	dispatcher *Dispatcher
	cron       *cron.Cron

	evalMu sync.Mutex

	mu      sync.Mutex
	running bool
	stopped bool
	cancel  context.CancelFunc
}

// cronLogger adapts zap.Logger to cron.Logger
type cronLogger struct {
	logger *zap.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, zap.Any("details", keysAndValues))
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, zap.Error(err), zap.Any("details", keysAndValues))
}

// NewAlertEngine creates an engine reading business state from feed. A nil
// feed leaves only the push path.
func NewAlertEngine(feed SnapshotFeed, opts Options, logger *zap.Logger) *AlertEngine {
	logger = logger.Named("alert-engine")

	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.EvaluationInterval <= 0 {
		opts.EvaluationInterval = EvaluationInterval
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	var limiter *rate.Limiter
	if opts.CueRate > 0 {
		burst := opts.CueBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(opts.CueRate, burst)
	}

	cl := &cronLogger{logger: logger.Named("cron")}

	e := &AlertEngine{
		logger:    logger,
		feed:      feed,
		clock:     opts.Clock,
		interval:  opts.EvaluationInterval,
		store:     NewAlertStore(MaxAlerts),
		settings:  NewSettingsController(opts.Settings, logger),
		evaluator: NewEvaluator(opts.Location, logger),
		cron: cron.New(
			cron.WithLocation(opts.Location),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
	e.wheel = NewExpiryWheel(opts.Clock, e.expire, logger)
	e.dispatcher = NewDispatcher(e.store, e.wheel, opts.Player, limiter, logger)
	return e
}

// Start schedules the periodic evaluation and runs one evaluation right away
func (e *AlertEngine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return ErrEngineStopped
	}
	if e.running {
		e.mu.Unlock()
		return ErrEngineRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	spec := "@every " + e.interval.String()
	if _, err := e.cron.AddFunc(spec, func() { e.Evaluate(runCtx) }); err != nil {
		e.mu.Unlock()
		cancel()
		return fmt.Errorf("failed to schedule evaluation: %w", err)
	}
	e.running = true
	e.cancel = cancel
	e.mu.Unlock()

	e.wheel.Start()
	e.cron.Start()

	e.logger.Info("Alert engine started", zap.Duration("interval", e.interval))

	e.Evaluate(runCtx)
	return nil
}

// Stop halts the periodic evaluation and cancels every pending auto-hide.
// The store keeps its alerts.
func (e *AlertEngine) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	wasRunning := e.running
	e.running = false
	cancel := e.cancel
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if wasRunning {
		<-e.cron.Stop().Done()
	}
	e.wheel.Stop()
	e.dispatcher.Wait()

	e.logger.Info("Alert engine stopped")
}

// Evaluate runs one tick: it reads settings, the business snapshot and the
// store once, then stores an alert for each newly true condition. It returns
// the IDs of the created alerts.
func (e *AlertEngine) Evaluate(ctx context.Context) []string {
	e.evalMu.Lock()
	defer e.evalMu.Unlock()

	settings := e.settings.Get()
	if !settings.Enabled {
		e.logger.Debug("Evaluation skipped, notifications disabled")
		return nil
	}
	if e.feed == nil {
		return nil
	}

	snap, err := e.feed.Snapshot(ctx)
	if err != nil {
		e.logger.Error("Failed to read snapshot", zap.Error(err))
		return nil
	}

	now := e.clock.Now()
	existing := e.store.List()

	var ids []string
	for _, p := range e.evaluator.Evaluate(now, snap, settings, existing) {
		ids = append(ids, e.insert(p, Classify(p), settings, now))
	}
	return ids
}

// CreateNotification classifies and stores an alert for p and returns its ID.
// It returns "" when notifications or the alert's category are disabled.
func (e *AlertEngine) CreateNotification(p model.Payload) string {
	if p == nil {
		return ""
	}

	settings := e.settings.Get()
	c := Classify(p)
	if !settings.Enabled || !settings.Categories.Enabled(c.Category) {
		e.logger.Debug("Notification suppressed by settings",
			zap.String("type", string(c.Type)),
			zap.String("category", string(c.Category)))
		return ""
	}
	return e.insert(p, c, settings, e.clock.Now())
}

func (e *AlertEngine) insert(p model.Payload, c Classification, settings model.Settings, now time.Time) string {
	alert := model.Alert{
		ID:        newAlertID(),
		Type:      c.Type,
		Timestamp: now,
		Payload:   p,
		Title:     c.Title,
		Message:   c.Message,
		Priority:  c.Priority,
		Category:  c.Category,
		Icon:      c.Icon,
		Color:     c.Color,
	}

	for _, ev := range e.store.Insert(alert) {
		e.wheel.Cancel(ev.ID)
		e.logger.Debug("Alert evicted", zap.String("id", ev.ID), zap.String("type", string(ev.Type)))
	}
	e.dispatcher.Dispatch(alert, settings)

	e.logger.Info("Alert created",
		zap.String("id", alert.ID),
		zap.String("type", string(alert.Type)),
		zap.String("priority", string(alert.Priority)),
		zap.String("category", string(alert.Category)))

	return alert.ID
}

func (e *AlertEngine) expire(id string) {
	if _, err := e.store.Remove(id); err != nil {
		return
	}
	e.logger.Debug("Alert expired", zap.String("id", id))
}

// MarkAsRead flags an alert as read; repeating the call is harmless
func (e *AlertEngine) MarkAsRead(id string) error {
	if _, err := e.store.MarkRead(id); err != nil {
		return fmt.Errorf("failed to mark alert %s as read: %w", id, err)
	}
	return nil
}

// MarkAllAsRead flags every stored alert as read
func (e *AlertEngine) MarkAllAsRead() int {
	return e.store.MarkAllRead()
}

// HideNotification removes an alert before its auto-hide fires
func (e *AlertEngine) HideNotification(id string) error {
	if _, err := e.store.Remove(id); err != nil {
		return fmt.Errorf("failed to hide alert %s: %w", id, err)
	}
	e.wheel.Cancel(id)
	return nil
}

// ClearAll removes every alert and returns how many were removed
func (e *AlertEngine) ClearAll() int {
	removed := e.store.ClearAll()
	for _, a := range removed {
		e.wheel.Cancel(a.ID)
	}
	e.logger.Debug("Alerts cleared", zap.Int("count", len(removed)))
	return len(removed)
}

// ClearCategory removes every alert of one category
func (e *AlertEngine) ClearCategory(cat model.AlertCategory) (int, error) {
	if !cat.Valid() && cat != model.CategoryGeneral {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCategory, cat)
	}
	removed := e.store.ClearCategory(cat)
	for _, a := range removed {
		e.wheel.Cancel(a.ID)
	}
	e.logger.Debug("Category cleared",
		zap.String("category", string(cat)),
		zap.Int("count", len(removed)))
	return len(removed), nil
}

func (e *AlertEngine) SetEnabled(v bool) model.Settings      { return e.settings.SetEnabled(v) }
func (e *AlertEngine) SetSoundEnabled(v bool) model.Settings { return e.settings.SetSoundEnabled(v) }
func (e *AlertEngine) SetShowBadge(v bool) model.Settings    { return e.settings.SetShowBadge(v) }

// SetAutoHide changes the delay for alerts created from now on
func (e *AlertEngine) SetAutoHide(d time.Duration) model.Settings {
	return e.settings.SetAutoHide(d)
}

func (e *AlertEngine) SetCategoryEnabled(cat model.AlertCategory, v bool) (model.Settings, error) {
	return e.settings.SetCategoryEnabled(cat, v)
}

// UpdateSettings merges a partial update into the settings
func (e *AlertEngine) UpdateSettings(patch model.SettingsPatch) model.Settings {
	return e.settings.Update(patch)
}

// Settings returns the current settings
func (e *AlertEngine) Settings() model.Settings {
	return e.settings.Get()
}

// Alerts returns every stored alert, newest first
func (e *AlertEngine) Alerts() []model.Alert {
	return e.store.List()
}

// Get returns one stored alert
func (e *AlertEngine) Get(id string) (model.Alert, bool) {
	return e.store.Get(id)
}

// Unread returns the unread alerts, newest first
func (e *AlertEngine) Unread() []model.Alert {
	return e.store.Query(func(a model.Alert) bool { return !a.Read })
}

// Filter returns the alerts of one category, newest first
func (e *AlertEngine) Filter(cat model.AlertCategory) []model.Alert {
	return e.store.Query(func(a model.Alert) bool { return a.Category == cat })
}

// Stats counts the current store contents
func (e *AlertEngine) Stats() model.Stats {
	return ComputeStats(e.store.List())
}

// Toasts returns the alerts to show as transient toasts
func (e *AlertEngine) Toasts() []model.Alert {
	return e.dispatcher.Toasts()
}

// BadgeCount returns the unread count, or 0 when the badge is hidden
func (e *AlertEngine) BadgeCount() int {
	if !e.settings.Get().ShowBadge {
		return 0
	}
	return ComputeStats(e.store.List()).Unread
}

// PendingExpiries returns the number of scheduled auto-hides
func (e *AlertEngine) PendingExpiries() int {
	return e.wheel.Pending()
}

func newAlertID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
