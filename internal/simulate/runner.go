package simulate

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mockmate/rehearse/internal/domain/model"
	"github.com/mockmate/rehearse/pkg/logger"
)

// Run drives Config.Sessions scripted interviews against a running
// service and reports what happened.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting session simulation",
		logger.String("baseURL", config.BaseURL),
		logger.Int("sessions", config.Sessions),
		logger.Int("workers", config.Workers),
	)

	d := newDriver(config.BaseURL, config.Timeout)

	if err := d.health(); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}
	logger.Get().Info(ctx, "service is healthy")

	var (
		started   int64
		completed int64
		ended     int64
		failed    int64
		answered  int64
	)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				outcome, n, err := driveSession(ctx, d, config)
				atomic.AddInt64(&answered, int64(n))
				switch {
				case err != nil:
					atomic.AddInt64(&failed, 1)
					log.Printf("session failed: %v", err)
				case outcome == model.StatusCompleted:
					atomic.AddInt64(&started, 1)
					atomic.AddInt64(&completed, 1)
				default:
					atomic.AddInt64(&started, 1)
					atomic.AddInt64(&ended, 1)
				}
			}
		}()
	}

	for i := 0; i < config.Sessions; i++ {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	stats.SessionsStarted = int(started) + int(failed)
	stats.SessionsCompleted = int(completed)
	stats.SessionsTerminated = int(ended)
	stats.SessionsFailed = int(failed)
	stats.QuestionsAnswered = int(answered)
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	printStats(ctx, stats)

	if failed > 0 {
		return fmt.Errorf("%d of %d sessions failed", failed, config.Sessions)
	}
	return nil
}

// driveSession runs one interview end to end: type an answer, save a
// draft, submit, acknowledge feedback, repeat until the service ends
// the session. Returns the terminal status and questions answered.
func driveSession(ctx context.Context, d *driver, config *Config) (model.Status, int, error) {
	id, err := d.createSession()
	if err != nil {
		return "", 0, fmt.Errorf("create: %w", err)
	}

	snap, err := d.start(id)
	if err != nil {
		return "", 0, fmt.Errorf("start %s: %w", id, err)
	}

	answered := 0
	for snap.Status == model.StatusActive {
		if ctx.Err() != nil {
			return "", answered, ctx.Err()
		}
		if answered >= config.MaxQuestions {
			return "", answered, fmt.Errorf("session %s exceeded %d questions", id, config.MaxQuestions)
		}

		if err := d.editAnswer(id, config.Answer); err != nil {
			return "", answered, fmt.Errorf("edit %s: %w", id, err)
		}
		if err := d.saveDraft(id); err != nil {
			return "", answered, fmt.Errorf("draft %s: %w", id, err)
		}

		snap, err = d.submit(id)
		if err != nil {
			return "", answered, fmt.Errorf("submit %s: %w", id, err)
		}
		answered++
		if config.Verbose && snap.Result != nil {
			log.Printf("session %s q%d scored %.1f", id, answered, snap.Result.Score)
		}

		snap, err = d.ackFeedback(id)
		if err != nil {
			return "", answered, fmt.Errorf("ack %s: %w", id, err)
		}
	}

	if !snap.Status.Terminal() {
		return "", answered, fmt.Errorf("session %s stuck in %s", id, snap.Status)
	}

	recs, err := d.records(id)
	if err != nil {
		return "", answered, fmt.Errorf("records %s: %w", id, err)
	}
	if len(recs) != answered {
		return "", answered, fmt.Errorf("session %s recorded %d answers, submitted %d", id, len(recs), answered)
	}

	return snap.Status, answered, nil
}

func printStats(ctx context.Context, stats *Stats) {
	logger.Get().Info(ctx, "simulation finished",
		logger.Int("sessionsStarted", stats.SessionsStarted),
		logger.Int("sessionsCompleted", stats.SessionsCompleted),
		logger.Int("sessionsTerminated", stats.SessionsTerminated),
		logger.Int("sessionsFailed", stats.SessionsFailed),
		logger.Int("questionsAnswered", stats.QuestionsAnswered),
		logger.String("duration", stats.Duration.String()),
	)
}
