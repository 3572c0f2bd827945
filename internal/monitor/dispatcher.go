package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/t77yq/floorwatch/internal/audio"
	"github.com/t77yq/floorwatch/internal/model"
)

const (
	// MaxToasts is how many alerts the toast projection shows at once
	MaxToasts = 3

	cueTimeout = 2 * time.Second
)

// Dispatcher runs the side effects of a newly stored alert
type Dispatcher struct {
	logger  *zap.Logger
	store   *AlertStore
	wheel   *ExpiryWheel
	player  audio.Player
	limiter *rate.Limiter
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher. A nil limiter plays every cue.
func NewDispatcher(store *AlertStore, wheel *ExpiryWheel, player audio.Player, limiter *rate.Limiter, logger *zap.Logger) *Dispatcher {
	if player == nil {
		player = audio.NopPlayer{}
	}
	return &Dispatcher{
		logger:  logger.Named("dispatcher"),
		store:   store,
		wheel:   wheel,
		player:  player,
		limiter: limiter,
	}
}

// Dispatch schedules auto-hide and plays the cue for a stored alert. It
// never blocks on audio.
func (d *Dispatcher) Dispatch(alert model.Alert, settings model.Settings) {
	if settings.AutoHide > 0 {
		d.wheel.Schedule(alert.ID, settings.AutoHide)
	}

	if settings.SoundEnabled && alert.Priority == model.PriorityHigh {
		d.playCue(alert)
	}
}

func (d *Dispatcher) playCue(alert model.Alert) {
	if d.limiter != nil && !d.limiter.Allow() {
		d.logger.Debug("Audio cue skipped by rate limit",
			zap.String("id", alert.ID),
			zap.String("type", string(alert.Type)))
		return
	}

	tone := audio.ToneFor(alert.Type)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("Audio cue panicked",
					zap.String("id", alert.ID),
					zap.Error(fmt.Errorf("%v", r)))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), cueTimeout)
		defer cancel()

		if err := d.player.Play(ctx, tone); err != nil {
			d.logger.Warn("Failed to play audio cue",
				zap.String("id", alert.ID),
				zap.String("type", string(alert.Type)),
				zap.Float64("frequency", tone.Frequency),
				zap.Error(err))
		}
	}()
}

// Toasts returns the newest unread high priority alerts, at most MaxToasts.
// It is recomputed from the store on every call.
func (d *Dispatcher) Toasts() []model.Alert {
	toasts := d.store.Query(func(a model.Alert) bool {
		return !a.Read && a.Priority == model.PriorityHigh
	})
	if len(toasts) > MaxToasts {
		toasts = toasts[:MaxToasts]
	}
	return toasts
}

// Wait blocks until in-flight cues finish
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
