package refresh

import (
	"context"
	"fmt"
	"strings"
	"time"
	"tournament-tracker/internal/config"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// weekPoint is one recurring slot in the weekly refresh schedule.
type weekPoint struct {
	day    time.Weekday
	hour   int
	minute int
}

// next returns the first occurrence of the point strictly after now.
func (p weekPoint) next(now time.Time) time.Time {
	days := (int(p.day) - int(now.Weekday()) + 7) % 7
	candidate := time.Date(now.Year(), now.Month(), now.Day(), p.hour, p.minute, 0, 0, now.Location()).
		AddDate(0, 0, days)
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}

// parseSchedule reads "Sun 06:00,Wed 18:30" style schedules.
func parseSchedule(s string) ([]weekPoint, error) {
	var points []weekPoint
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Fields(part)
		if len(fields) != 2 {
			return nil, fmt.Errorf("bad schedule entry %q", part)
		}

		day, err := parseWeekday(fields[0])
		if err != nil {
			return nil, err
		}

		var hour, minute int
		if _, err := fmt.Sscanf(fields[1], "%d:%d", &hour, &minute); err != nil {
			return nil, fmt.Errorf("bad time in schedule entry %q: %w", part, err)
		}
		if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
			return nil, fmt.Errorf("time out of range in schedule entry %q", part)
		}

		points = append(points, weekPoint{day: day, hour: hour, minute: minute})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("empty refresh schedule")
	}
	return points, nil
}

func parseWeekday(s string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(s, d.String()) || strings.EqualFold(s, d.String()[:3]) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("bad weekday %q", s)
}

func nextRun(points []weekPoint, now time.Time) time.Time {
	next := points[0].next(now)
	for _, p := range points[1:] {
		if c := p.next(now); c.Before(next) {
			next = c
		}
	}
	return next
}

// Scheduler sleeps until the next configured weekly point and runs a full
// refresh cycle there. Started and stopped through the fx lifecycle.
type Scheduler struct {
	coordinator *Coordinator
	points      []weekPoint
	logger      zerolog.Logger
	cancel      context.CancelFunc
	done        chan struct{}
}

func NewScheduler(lc fx.Lifecycle, coordinator *Coordinator, cfg *config.Config, logger zerolog.Logger) (*Scheduler, error) {
	points, err := parseSchedule(cfg.RefreshSchedule)
	if err != nil {
		return nil, fmt.Errorf("refresh schedule: %w", err)
	}

	s := &Scheduler{
		coordinator: coordinator,
		points:      points,
		logger:      logger.With().Str("component", "scheduler").Logger(),
		done:        make(chan struct{}),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			runCtx, cancel := context.WithCancel(context.Background())
			s.cancel = cancel
			go s.run(runCtx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			s.cancel()
			select {
			case <-s.done:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		},
	})

	return s, nil
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	for {
		next := nextRun(s.points, time.Now())
		s.logger.Info().Time("next_run", next).Msg("scheduler sleeping until next refresh")

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info().Msg("scheduler stopped")
			return
		case <-timer.C:
			if err := s.coordinator.RunCycle(ctx); err != nil {
				s.logger.Error().Err(err).Msg("scheduled refresh cycle ended with errors")
			}
		}
	}
}
