package announce

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vowsuite/vowsuite/internal/config"
	"github.com/vowsuite/vowsuite/internal/pkg/distlock"
	"github.com/vowsuite/vowsuite/internal/pkg/logger"
)

const dispatchLockTTL = 2 * time.Minute

// Dispatcher drains queued announcements in the background: claim a
// batch of recipients, render the templates per guest, and hand each
// delivery to the guest's channel. Only one dispatcher across the fleet
// runs a tick at a time.
type Dispatcher struct {
	store     Store
	templates *TemplateService
	channels  map[string]Channel
	throttle  *Throttle
	redis     *redis.Client
	cfg       config.AnnounceConfig
}

// NewDispatcher creates a dispatcher. The channels map is keyed by
// channel name ("email", "sms", "whatsapp"); redis may be nil when
// running a single instance.
func NewDispatcher(store Store, templates *TemplateService, channels map[string]Channel, throttle *Throttle, redisClient *redis.Client, cfg config.AnnounceConfig) *Dispatcher {
	return &Dispatcher{
		store:     store,
		templates: templates,
		channels:  channels,
		throttle:  throttle,
		redis:     redisClient,
		cfg:       cfg,
	}
}

// Run ticks until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.TickInterval())
	defer ticker.Stop()

	logger.Info("announcement dispatcher started", "tick_interval", d.cfg.TickInterval().String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("announcement dispatcher stopped")
			return
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

func (d *Dispatcher) tick(ctx context.Context) {
	if d.redis != nil {
		lock := distlock.NewRedisLock(d.redis, "announce:dispatch", dispatchLockTTL)
		ok, err := lock.Acquire(ctx)
		if err != nil {
			logger.Warn("dispatch lock unavailable", "error", err)
			return
		}
		if !ok {
			return
		}
		defer lock.Release(ctx)
	}

	for {
		a, err := d.store.NextQueued(ctx)
		if err != nil {
			logger.Error("loading queued announcement", "error", err)
			return
		}
		if a == nil {
			return
		}
		if !d.dispatchBatch(ctx, a) {
			return
		}
	}
}

// dispatchBatch sends one claim's worth of recipients. Returns false
// when there is nothing left to do this tick.
func (d *Dispatcher) dispatchBatch(ctx context.Context, a *Announcement) bool {
	recipients, err := d.store.ClaimPending(ctx, a.ID, d.cfg.BatchSize)
	if err != nil {
		logger.Error("claiming recipients", "announcement_id", a.ID, "error", err)
		return false
	}
	if len(recipients) == 0 {
		return d.finishIfDone(ctx, a)
	}

	weddingVars, err := d.store.WeddingVars(ctx, a.WeddingID)
	if err != nil {
		logger.Error("loading wedding vars", "announcement_id", a.ID, "error", err)
		weddingVars = map[string]interface{}{}
	}

	for _, r := range recipients {
		if ctx.Err() != nil {
			return false
		}
		d.deliver(ctx, a, r, weddingVars)
	}
	return true
}

func (d *Dispatcher) finishIfDone(ctx context.Context, a *Announcement) bool {
	done, err := d.store.FinishIfDone(ctx, a.ID)
	if err != nil {
		logger.Error("finishing announcement", "announcement_id", a.ID, "error", err)
		return false
	}
	if done {
		logger.Info("announcement sent", "announcement_id", a.ID)
	}
	// Either finished, or another dispatcher holds the remainder.
	return done
}

func (d *Dispatcher) deliver(ctx context.Context, a *Announcement, r *Recipient, weddingVars map[string]interface{}) {
	ch, ok := d.channels[r.Channel]
	if !ok {
		d.fail(ctx, r, "no channel configured: "+r.Channel)
		return
	}

	bindings := GuestBindings(r, weddingVars)
	subject, err := d.templates.Render(a.Subject, bindings)
	if err != nil {
		d.fail(ctx, r, "render subject: "+err.Error())
		return
	}
	body, err := d.templates.Render(a.Body, bindings)
	if err != nil {
		d.fail(ctx, r, "render body: "+err.Error())
		return
	}

	for !d.throttle.Allow(ctx, r.Channel) {
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}

	messageID, err := ch.Send(ctx, &Message{To: r.Address, Subject: subject, Body: body})
	if err != nil {
		d.fail(ctx, r, err.Error())
		return
	}
	if err := d.store.MarkRecipientSent(ctx, r.ID, messageID); err != nil {
		logger.Error("marking recipient sent", "recipient_id", r.ID, "error", err)
	}
}

func (d *Dispatcher) fail(ctx context.Context, r *Recipient, reason string) {
	logger.Warn("delivery failed", "recipient_id", r.ID, "channel", r.Channel, "reason", reason)
	if err := d.store.MarkRecipientFailed(ctx, r.ID, reason); err != nil {
		logger.Error("marking recipient failed", "recipient_id", r.ID, "error", err)
	}
}
