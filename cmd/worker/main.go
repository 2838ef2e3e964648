package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"songforge/internal/adapter/repo"
	"songforge/internal/domain"
	"songforge/internal/infra"
	"songforge/internal/lyrics"
	"songforge/internal/notify"
	"songforge/internal/orders"
	"songforge/internal/providers/openai"
	"songforge/internal/sqlinline"
)

const (
	statusSucceeded = "SUCCEEDED"
	statusFailed    = "FAILED"

	jobPollInterval   = 2 * time.Second
	staleJobSweepEach = 1 * time.Minute
	staleJobAfterSecs = 600
)

type job struct {
	ID      string
	OrderID string
}

type lyricsWorker struct {
	ctx      context.Context
	runner   *infra.SQLRunner
	logger   infra.Logger
	orders   domain.OrderRepository
	service  *orders.Service
	notifier notify.Notifier
}

var errNoJobAvailable = errors.New("no job available")

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)

	orderRepo := repo.NewOrderRepository(pool)
	lyricsRepo := repo.NewLyricsRepository(pool)
	assetRepo := repo.NewAudioAssetRepository(pool)
	paymentRepo := repo.NewPaymentRepository(pool)
	auditRepo := repo.NewAuditRepository(pool)

	openaiClient, err := openai.NewClient(openai.Options{
		APIKey:       cfg.OpenAIAPIKey,
		Model:        cfg.OpenAIModel,
		BaseURL:      cfg.OpenAIBaseURL,
		Organization: cfg.OpenAIOrg,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure lyrics provider")
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.TelegramBotToken != "" {
		tg, err := notify.NewTelegram(notify.TelegramOptions{
			Token:   cfg.TelegramBotToken,
			BaseURL: cfg.TelegramAPIBase,
			Logger:  logger,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("worker: failed to configure telegram notifier")
		}
		notifier = tg
	}

	manager := lyrics.NewManager(openaiClient, lyricsRepo, cfg.OpenAIModel, logger)
	machine := orders.NewMachine(orderRepo, auditRepo, logger)
	service := orders.NewService(orderRepo, assetRepo, paymentRepo, machine, manager, logger)

	worker := &lyricsWorker{
		ctx:      ctx,
		runner:   runner,
		logger:   logger,
		orders:   orderRepo,
		service:  service,
		notifier: notifier,
	}

	if err := worker.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func (w *lyricsWorker) Run() error {
	w.logger.Info().Msg("worker: started")
	lastSweep := time.Now()
	for {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		default:
		}

		if time.Since(lastSweep) >= staleJobSweepEach {
			if _, err := w.runner.Exec(w.ctx, sqlinline.QRequeueStaleLyricsJobs, staleJobAfterSecs); err != nil {
				w.logger.Error().Err(err).Msg("worker: requeue stale jobs failed")
			}
			lastSweep = time.Now()
		}

		j, err := w.claimJob()
		if err != nil {
			if errors.Is(err, errNoJobAvailable) {
				time.Sleep(jobPollInterval)
				continue
			}
			w.logger.Error().Err(err).Msg("worker: failed to claim job")
			time.Sleep(jobPollInterval)
			continue
		}

		w.handleJob(j)
	}
}

func (w *lyricsWorker) claimJob() (job, error) {
	row := w.runner.QueryRow(w.ctx, sqlinline.QWorkerClaimLyricsJob)
	var j job
	if err := row.Scan(&j.ID, &j.OrderID); err != nil {
		if infra.IsNoRows(err) {
			return job{}, errNoJobAvailable
		}
		return job{}, err
	}
	return j, nil
}

func (w *lyricsWorker) handleJob(j job) {
	w.logger.Info().Str("job_id", j.ID).Str("order_id", j.OrderID).Msg("worker: picked job")
	status := statusFailed
	errMsg := ""
	if err := w.generate(j); err != nil {
		w.logger.Error().Err(err).Str("job_id", j.ID).Msg("worker: job failed")
		errMsg = err.Error()
	} else {
		status = statusSucceeded
	}
	if _, err := w.runner.Exec(w.ctx, sqlinline.QUpdateLyricsJobStatus, j.ID, status, errMsg); err != nil {
		w.logger.Error().Err(err).Str("job_id", j.ID).Msg("worker: update status failed")
	}
}

func (w *lyricsWorker) generate(j job) error {
	order, err := w.orders.GetByID(w.ctx, j.OrderID)
	if err != nil {
		return err
	}
	if order.Status != domain.OrderStatusPendingLyrics {
		// Canceled or re-run after a crash; nothing to do.
		w.logger.Info().Str("order_id", order.ID).Str("status", string(order.Status)).Msg("worker: order no longer pending")
		return nil
	}
	if _, err := w.service.GenerateLyrics(w.ctx, order); err != nil {
		// Generation failure cancels the order; tell the owner.
		if nerr := w.notifier.OrderCanceled(w.ctx, order.UserID, order.ID); nerr != nil {
			w.logger.Error().Err(nerr).Str("order_id", order.ID).Msg("worker: cancel notification failed")
		}
		return err
	}
	if err := w.notifier.LyricsReady(w.ctx, order.UserID, order.ID); err != nil {
		w.logger.Error().Err(err).Str("order_id", order.ID).Msg("worker: lyrics notification failed")
	}
	return nil
}
