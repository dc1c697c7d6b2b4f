package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/robfig/cron/v3"

	"example.com/finance-tracker-bot/backend/internal/bot"
	"example.com/finance-tracker-bot/backend/internal/config"
)

const jobTimeout = 30 * time.Second

var reminderMessages = []string{
	"📅 This is your daily 10 PM reminder to log your expenses!",
	"💡 Time to track today's money moves!",
	"🔁 Don’t forget to record your expenses before bed!",
}

type Notifier interface {
	SendText(ctx context.Context, chatID int64, reply bot.Reply) error
}

type BudgetResetter interface {
	ResetExpiredDefaults(ctx context.Context) (int64, error)
}

type SessionSweeper interface {
	SweepSessions() int
}

type Deps struct {
	Notifier Notifier
	Budgets  BudgetResetter
	Sessions SessionSweeper
	Logger   *slog.Logger
}

// Scheduler запускает фоновые задачи: напоминание, сброс бюджетов по умолчанию и очистку диалогов.
type Scheduler struct {
	cron     *cron.Cron
	notifier Notifier
	budgets  BudgetResetter
	sessions SessionSweeper
	chatIDs  []int64
	logger   *slog.Logger
	pick     func(n int) int
}

// New регистрирует задачи в региональной временной зоне.
func New(cfg config.SchedulerConfig, loc *time.Location, deps Deps) (*Scheduler, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}

	s := &Scheduler{
		notifier: deps.Notifier,
		budgets:  deps.Budgets,
		sessions: deps.Sessions,
		chatIDs:  cfg.ReminderChatIDs,
		logger:   logger,
		pick:     rand.IntN,
	}

	cronLogger := slogAdapter{logger: logger}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	if len(s.chatIDs) > 0 && s.notifier != nil {
		if _, err := s.cron.AddFunc(cfg.ReminderSpec, s.sendReminders); err != nil {
			return nil, fmt.Errorf("schedule reminder %q: %w", cfg.ReminderSpec, err)
		}
	}

	if s.budgets != nil {
		if _, err := s.cron.AddFunc(cfg.BudgetResetSpec, s.resetBudgets); err != nil {
			return nil, fmt.Errorf("schedule budget reset %q: %w", cfg.BudgetResetSpec, err)
		}
	}

	if s.sessions != nil && cfg.SessionSweep > 0 {
		s.cron.Schedule(cron.Every(cfg.SessionSweep), cron.FuncJob(s.sweepSessions))
	}

	return s, nil
}

// Start запускает планировщик в фоне.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", slog.Int("jobs", len(s.cron.Entries())))
}

// Stop останавливает планировщик и ждет завершения запущенных задач.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) sendReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	text := reminderMessages[s.pick(len(reminderMessages))]

	for _, chatID := range s.chatIDs {
		if err := s.notifier.SendText(ctx, chatID, bot.Reply{Text: text}); err != nil {
			s.logger.Error("send reminder failed",
				slog.Int64("chat_id", chatID),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (s *Scheduler) resetBudgets() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	reset, err := s.budgets.ResetExpiredDefaults(ctx)
	if err != nil {
		s.logger.Error("reset expired default budgets failed", slog.String("error", err.Error()))
		return
	}

	s.logger.Info("expired default budgets reset", slog.Int64("count", reset))
}

func (s *Scheduler) sweepSessions() {
	if removed := s.sessions.SweepSessions(); removed > 0 {
		s.logger.Debug("idle sessions swept", slog.Int("count", removed))
	}
}

type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Info(msg string, keysAndValues ...any) {
	a.logger.Debug("cron: "+msg, keysAndValues...)
}

func (a slogAdapter) Error(err error, msg string, keysAndValues ...any) {
	a.logger.Error("cron: "+msg, append([]any{slog.String("error", err.Error())}, keysAndValues...)...)
}
