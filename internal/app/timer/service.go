package timer

import (
	"context"
	"errors"
	"time"

	"resintimer/internal/app/ports"
	"resintimer/internal/domain/resin"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/google/uuid"
)

const DefaultStoreKey = "rechargedDate"

var (
	ErrInvalidInput = errors.New("invalid resin input")
	ErrInvalidUnits = errors.New("invalid spend units")
	ErrStopped      = errors.New("timer stopped")
)

type Publisher interface {
	Publish(change Change)
}

type Config struct {
	Store      ports.KeyValueStore
	Key        string
	TickEvery  time.Duration
	SpendUnits int
	Location   *time.Location
	Metrics    ports.TimerMetrics
	Publisher  Publisher
	Now        func() time.Time
}

type request struct {
	event resin.Event
	reply chan Snapshot
}

// Service owns the resin state. Run is the only goroutine that touches it;
// everything else goes through Dispatch.
type Service struct {
	cfg      Config
	inbox    chan request
	done     chan struct{}
	state    resin.State
	firstRun bool
}

func NewService(cfg Config) *Service {
	if cfg.Key == "" {
		cfg.Key = DefaultStoreKey
	}
	if cfg.TickEvery <= 0 {
		cfg.TickEvery = resin.TickPeriod
	}
	if cfg.SpendUnits <= 0 || cfg.SpendUnits > resin.Max {
		cfg.SpendUnits = resin.DefaultSpendUnits
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		cfg:      cfg,
		inbox:    make(chan request),
		done:     make(chan struct{}),
		state:    resin.Full(),
		firstRun: true,
	}
}

// Load reads the persisted target. A failing store leaves the resource full
// and is reported, but the service stays usable.
func (s *Service) Load(ctx context.Context) error {
	raw, err := s.cfg.Store.Get(ctx, s.cfg.Key)
	if err != nil {
		s.state = resin.Full()
		if errors.Is(err, ports.ErrNotFound) {
			s.firstRun = true
			return nil
		}
		return err
	}
	s.firstRun = false
	if _, ok := resin.ParseTarget(raw); !ok {
		hlog.CtxWarnf(ctx, "resin: ignoring malformed %s=%q", s.cfg.Key, raw)
	}
	s.state = resin.Initialize(raw, s.cfg.Now())
	return nil
}

// Run processes dispatched events and ticks until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.TickEvery)
	defer ticker.Stop()
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-s.inbox:
			req.reply <- s.handle(ctx, req.event)
		case <-ticker.C:
			s.handle(ctx, resin.Tick{Period: s.cfg.TickEvery})
		}
	}
}

// Dispatch hands ev to the Run loop and waits for the resulting snapshot.
func (s *Service) Dispatch(ctx context.Context, ev resin.Event) (Snapshot, error) {
	ev, err := s.normalize(ev)
	if err != nil {
		return Snapshot{}, err
	}
	req := request{event: ev, reply: make(chan Snapshot, 1)}
	select {
	case s.inbox <- req:
	case <-s.done:
		return Snapshot{}, ErrStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case snap := <-req.reply:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (s *Service) SpendUnits() int {
	return s.cfg.SpendUnits
}

func (s *Service) normalize(ev resin.Event) (resin.Event, error) {
	switch e := ev.(type) {
	case resin.SetResource:
		if _, ok := resin.ParseInput(e.Raw); !ok {
			return nil, ErrInvalidInput
		}
	case resin.SubtractUnits:
		if e.Units == 0 {
			e.Units = s.cfg.SpendUnits
		}
		if e.Units < 0 || e.Units > resin.Max {
			return nil, ErrInvalidUnits
		}
		return e, nil
	case nil:
		return resin.Sync{}, nil
	}
	return ev, nil
}

func (s *Service) handle(ctx context.Context, ev resin.Event) Snapshot {
	now := s.cfg.Now()
	next, eff := resin.Reduce(s.state, ev, now)
	s.state = next

	if eff.Persist {
		s.persist(ctx, eff.TargetFullAt)
	}
	if _, isTick := ev.(resin.Tick); s.cfg.Metrics != nil && (eff.Applied || !isTick) {
		if eff.Applied {
			s.cfg.Metrics.RecordApplied(ev.Name())
		} else {
			s.cfg.Metrics.RecordIgnored(ev.Name())
		}
	}

	snap := s.snapshot()
	if eff.Applied && s.cfg.Publisher != nil {
		s.cfg.Publisher.Publish(Change{
			ID:       uuid.NewString(),
			Event:    ev.Name(),
			At:       now,
			Snapshot: snap,
		})
	}
	return snap
}

func (s *Service) persist(ctx context.Context, target time.Time) {
	if err := s.cfg.Store.Set(ctx, s.cfg.Key, resin.FormatTarget(target)); err != nil {
		hlog.CtxWarnf(ctx, "resin: persist %s failed, keeping in-memory state: %v", s.cfg.Key, err)
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.RecordPersistFailure()
		}
		return
	}
	s.firstRun = false
}

func (s *Service) snapshot() Snapshot {
	return NewSnapshot(s.state, s.cfg.SpendUnits, s.firstRun, s.cfg.Location)
}
