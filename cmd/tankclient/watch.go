package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/septivank/trackmyfish-client/internal/anomaly"
	"github.com/septivank/trackmyfish-client/internal/api"
	"github.com/septivank/trackmyfish-client/internal/config"
	"github.com/septivank/trackmyfish-client/internal/db"
	"github.com/septivank/trackmyfish-client/internal/health"
	"github.com/septivank/trackmyfish-client/internal/httpserver"
	"github.com/septivank/trackmyfish-client/internal/metrics"
	"github.com/septivank/trackmyfish-client/internal/mq"
	"github.com/septivank/trackmyfish-client/internal/repository"
	"github.com/septivank/trackmyfish-client/internal/service"
	"github.com/septivank/trackmyfish-client/internal/store"
)

const appTimeout = 30 * time.Second

func newWatchCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep both stores in sync and serve them on the status port",
		Long: `Lists fish and tank statistics, refreshes the Fishbase heartbeat and keeps
running: the status server exposes the store snapshots and metrics, and when
RABBITMQ_URL is set store changes are published and sync triggers consumed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd.Context(), rt)
		},
	}
}

func runWatch(ctx context.Context, rt *runtime) error {
	app := fx.New(
		fx.Supply(rt.cfg, rt.logger, rt.client),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
		fx.Provide(
			ProvideMetrics,
			ProvideDBPool,
			ProvideRepository,
			ProvideJournal,
			ProvideMQConnection,
			ProvidePublisher,
			ProvideEventQueue,
			ProvideEventRecorder,
			ProvideRecorder,
			ProvideFishStore,
			ProvideTankStore,
			ProvideMonitor,
			ProvideAnomalyDetector,
			ProvideWatcher,
			ProvideProcessorService,
			ProvideStatusServer,
		),
		fx.Invoke(startWatch),
	)

	rt.logger.Info("starting watch...", zap.Duration("timeout", appTimeout))

	startCtx, startCancel := context.WithTimeout(context.Background(), appTimeout)
	defer startCancel()

	if err := app.Start(startCtx); err != nil {
		if startCtx.Err() == context.DeadlineExceeded {
			rt.logger.Error("WATCH START TIMEOUT: a dependency (REST API, database or RabbitMQ) is not accessible. Check the errors above.")
		}
		return err
	}

	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), appTimeout)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		return fmt.Errorf("error stopping watch: %w", err)
	}
	return nil
}

// watchParams are the components started by the watch command. Optional
// ones are nil when their URL is not configured.
type watchParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *zap.Logger
	Fish      *store.FishStore
	Tank      *store.TankStatisticStore
	Monitor   *health.Monitor
	Metrics   *metrics.Metrics
	Events    *service.EventRecorder
	Queue     *service.EventQueue
	Watcher   *service.WaterQualityWatcher
	Processor *service.ProcessorService
	Server    *httpserver.Server
	MQ        *mq.Connection
}

func startWatch(p watchParams) {
	ctx, cancel := context.WithCancel(context.Background())
	var (
		wg       sync.WaitGroup
		consumer *mq.Consumer
	)

	// listeners go in before the first list so the baseline is observed
	p.Monitor.Subscribe(p.Metrics.ObserveHeartbeat)
	if p.Events != nil {
		p.Monitor.Subscribe(p.Events.ObserveHeartbeat)
	}
	p.Tank.Subscribe(p.Watcher.Observe)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			// failures are logged by the stores and the monitor and are not
			// fatal; the poll loop below waits one interval before its first
			// refresh
			_ = p.Monitor.Refresh(startCtx)
			_ = p.Fish.List(startCtx)
			_ = p.Tank.List(startCtx)

			if p.Queue != nil {
				wg.Add(1)
				go func() {
					defer wg.Done()
					p.Queue.Run(ctx)
				}()
			}

			if p.MQ != nil {
				var err error
				consumer, err = mq.NewConsumer(mq.ConsumerConfig{
					Connection:    p.MQ,
					Queue:         instanceQueue(p.Config.RabbitMQ.SyncQueue),
					Exclusive:     true,
					DLQQueue:      p.Config.RabbitMQ.DLQQueue,
					Exchange:      p.Config.RabbitMQ.SyncExchange,
					RoutingKey:    p.Config.RabbitMQ.SyncRoutingKey,
					PrefetchCount: p.Config.RabbitMQ.PrefetchCount,
					Logger:        p.Logger,
					Handler:       p.Processor.ProcessMessage,
				})
				if err != nil {
					return err
				}
				if err := consumer.Start(ctx); err != nil {
					return err
				}
			}

			if interval := p.Config.Heartbeat.PollInterval; interval > 0 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					p.Monitor.Run(ctx, interval)
				}()
			}

			addr := fmt.Sprintf(":%d", p.Config.ServicePort)
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := p.Server.ListenAndServe(ctx, addr); err != nil {
					p.Logger.Error("status server failed", zap.Error(err))
				}
			}()

			p.Logger.Info("watch started",
				zap.Int("fish", len(p.Fish.Snapshot().Items)),
				zap.Int("tank_statistics", len(p.Tank.Snapshot().Items)),
				zap.String("fishbase", p.Monitor.Status()),
			)
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			if consumer != nil {
				if err := consumer.Close(); err != nil {
					p.Logger.Error("failed to close consumer", zap.Error(err))
				}
			}
			wg.Wait()
			p.Logger.Info("watch stopped gracefully")
			return nil
		},
	})
}

// ProvideMetrics creates the metrics and hooks them into the REST client
func ProvideMetrics(client *api.Client) (*metrics.Metrics, error) {
	m, err := metrics.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetResponseHook(m.ObserveResponse)
	return m, nil
}

// ProvideDBPool creates the journal pool, or nil without DATABASE_URL
func ProvideDBPool(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*db.Pool, error) {
	if cfg.Database.URL == "" {
		logger.Info("DATABASE_URL not set, operation journal disabled")
		return nil, nil
	}
	return db.NewPool(lc, logger, cfg.Database.URL)
}

// ProvideRepository creates a new repository instance
func ProvideRepository(pool *db.Pool) *repository.Repository {
	if pool == nil {
		return nil
	}
	return repository.NewRepository(pool)
}

// ProvideJournal creates the operation journal recorder
func ProvideJournal(repo *repository.Repository, logger *zap.Logger) *repository.Journal {
	if repo == nil {
		return nil
	}
	return repository.NewJournal(repo, logger)
}

// ProvideMQConnection creates the RabbitMQ connection, or nil without RABBITMQ_URL
func ProvideMQConnection(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*mq.Connection, error) {
	if cfg.RabbitMQ.URL == "" {
		logger.Info("RABBITMQ_URL not set, change events and sync triggers disabled")
		return nil, nil
	}
	return mq.NewConnection(lc, logger, cfg.RabbitMQ.URL)
}

// ProvidePublisher creates the events publisher
func ProvidePublisher(lc fx.Lifecycle, conn *mq.Connection, cfg *config.Config, logger *zap.Logger) (*mq.Publisher, error) {
	if conn == nil {
		return nil, nil
	}
	publisher, err := mq.NewPublisher(conn, cfg.RabbitMQ.EventsExchange, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(publisher.Close))
	return publisher, nil
}

// ProvideEventQueue buffers events so store listeners never wait on the broker
func ProvideEventQueue(publisher *mq.Publisher, cfg *config.Config, logger *zap.Logger) *service.EventQueue {
	if publisher == nil {
		return nil
	}
	return service.NewEventQueue(publisher, service.DefaultQueueSize, cfg.RabbitMQ.PublishTimeout, logger)
}

// ProvideEventRecorder creates the change event recorder
func ProvideEventRecorder(queue *service.EventQueue, logger *zap.Logger) *service.EventRecorder {
	if queue == nil {
		return nil
	}
	return service.NewEventRecorder(queue, logger)
}

// ProvideRecorder fans store operations out to every configured sink
func ProvideRecorder(m *metrics.Metrics, journal *repository.Journal, events *service.EventRecorder) store.Recorder {
	recorders := store.Recorders{m}
	if journal != nil {
		recorders = append(recorders, journal)
	}
	if events != nil {
		recorders = append(recorders, events)
	}
	return recorders
}

// ProvideFishStore creates the fish store
func ProvideFishStore(client *api.Client, recorder store.Recorder, logger *zap.Logger) *store.FishStore {
	return store.NewFishStore(client, recorder, logger)
}

// ProvideTankStore creates the tank statistic store
func ProvideTankStore(client *api.Client, recorder store.Recorder, logger *zap.Logger) *store.TankStatisticStore {
	return store.NewTankStatisticStore(client, recorder, logger)
}

// ProvideMonitor creates the heartbeat monitor
func ProvideMonitor(client *api.Client, cfg *config.Config, logger *zap.Logger) *health.Monitor {
	return health.NewMonitor(client, cfg.Heartbeat.UpStatus, logger)
}

// ProvideAnomalyDetector creates a new anomaly detector instance
func ProvideAnomalyDetector(cfg *config.Config) *anomaly.Detector {
	return anomaly.NewDetector(cfg.Anomaly.SpikeThreshold, cfg.Anomaly.MinDataPointsForDetection)
}

// ProvideWatcher creates the water-quality watcher
func ProvideWatcher(detector *anomaly.Detector, queue *service.EventQueue, m *metrics.Metrics, logger *zap.Logger) *service.WaterQualityWatcher {
	var events service.EventPublisher
	if queue != nil {
		events = queue
	}
	return service.NewWaterQualityWatcher(detector, events, m, logger)
}

// instanceQueue names the sync queue of this watch instance. Each instance
// consumes its own exclusive queue so a trigger reaches all of them.
func instanceQueue(prefix string) string {
	return prefix + "." + uuid.NewString()
}

// ProvideProcessorService maps sync request resources to refreshes
func ProvideProcessorService(fish *store.FishStore, tank *store.TankStatisticStore, monitor *health.Monitor, logger *zap.Logger) *service.ProcessorService {
	return service.NewProcessorService(map[string]service.RefreshFunc{
		store.FishResource.Name:          fish.List,
		store.TankStatisticResource.Name: tank.List,
		"heartbeat":                      monitor.Refresh,
	}, logger)
}

// ProvideStatusServer creates the status server
func ProvideStatusServer(
	fish *store.FishStore,
	tank *store.TankStatisticStore,
	monitor *health.Monitor,
	watcher *service.WaterQualityWatcher,
	repo *repository.Repository,
	m *metrics.Metrics,
	logger *zap.Logger,
) *httpserver.Server {
	opts := []httpserver.Option{
		httpserver.WithAlerts(watcher),
		httpserver.WithMetrics(m.Handler()),
	}
	if repo != nil {
		opts = append(opts, httpserver.WithOperations(repo))
	}
	return httpserver.New(fish, tank, monitor, logger, opts...)
}
