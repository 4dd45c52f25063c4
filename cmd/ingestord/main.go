// cmd/ingestord/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/k13114/ifsmurd/internal/api"
	"github.com/k13114/ifsmurd/internal/config"
	"github.com/k13114/ifsmurd/internal/ingest"
	"github.com/k13114/ifsmurd/internal/observability"
	"github.com/k13114/ifsmurd/internal/serialport"
	"github.com/k13114/ifsmurd/internal/session"
	"github.com/k13114/ifsmurd/internal/simulator"
	"github.com/k13114/ifsmurd/internal/status"
	"github.com/k13114/ifsmurd/internal/writer"
	wredis "github.com/k13114/ifsmurd/internal/writer/redis"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal().Msg("usage: ingestord <config.yaml|config.toml>")
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("config validation failed")
	}
	config.Normalize(cfg)

	logger := observability.InitLogger("ingestord", cfg.Log.Level, cfg.Log.Format)
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Session
	// --------------------

	sess := session.New(session.Options{
		Opener: newOpener(cfg, logger),
		Ingest: ingest.Config{
			ChunkSize:    cfg.Ingest.ChunkSize,
			PublishDelay: time.Duration(cfg.Ingest.PublishDelayUs) * time.Microsecond,
			ErrorPause:   time.Duration(cfg.Ingest.ErrorPauseMs) * time.Millisecond,
		},
		ChannelCapacity: cfg.Ingest.ChannelCapacity,
	}, logger)
	defer sess.Close()

	// ---- consumers subscribe before any record can flow ----

	var wg sync.WaitGroup
	var closers []func() error
	defer func() {
		for _, fn := range closers {
			_ = fn()
		}
	}()

	plan := writer.BuildPlan(cfg.Mirror)
	var statusWriter writer.StatusWriter
	statusEnabled := false

	if len(plan.Targets) > 0 || plan.Status != nil {
		clients, closeWriters, err := writer.BuildEndpointClients(
			plan,
			time.Duration(cfg.Mirror.TimeoutMs)*time.Millisecond,
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("modbus mirror clients failed")
		}
		closers = append(closers, closeWriters)

		if len(plan.Targets) > 0 {
			startConsumer(ctx, &wg, sess, "modbus", writer.New(plan, clients), logger)
		}
		statusWriter, statusEnabled = writer.NewStatusWriter(plan, clients)
	}

	if cfg.Redis.Addr != "" {
		pub, err := wredis.New(wredis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Channel:  cfg.Redis.Channel,
			Source:   sess.ID,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("redis publisher failed")
		}
		closers = append(closers, pub.Close)

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := pub.Ping(pingCtx); err != nil {
			logger.Warn().Err(err).Msg("redis not reachable yet")
		}
		cancel()

		startConsumer(ctx, &wg, sess, "redis", pub, logger)
	}

	// ---- optional auto start ----

	if cfg.Serial.AutoOpen {
		autoStart(cfg, sess, logger)
	}

	// --------------------
	// Link status (runner-owned state + 1Hz ticker)
	// --------------------

	var linkMu sync.Mutex
	var link status.Snapshot

	staleAfter := time.Duration(config.DefaultStaleAfterMs) * time.Millisecond
	if cfg.Mirror.Status != nil {
		staleAfter = time.Duration(cfg.Mirror.Status.StaleAfterMs) * time.Millisecond
	}
	tracker := status.NewTracker(staleAfter)

	wg.Add(1)
	go func() {
		defer wg.Done()

		// Full block write on start (identity re-assert) if enabled.
		if statusEnabled {
			if err := statusWriter.WriteStatus(tracker.Snapshot()); err != nil {
				logger.Warn().Err(err).Msg("status write failed on start")
			}
		}

		secTicker := time.NewTicker(time.Second)
		defer secTicker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-secTicker.C:
				snap, changed := tracker.Observe(sampleOf(sess.State()), now)

				linkMu.Lock()
				link = snap
				linkMu.Unlock()

				if changed {
					logger.Debug().Str("health", status.HealthName(snap.Health)).Uint16("code", snap.LastErrorCode).Msg("link status")
				}
				if statusEnabled && changed {
					if err := statusWriter.WriteStatus(snap); err != nil {
						logger.Warn().Err(err).Msg("status write failed")
					}
				}
			}
		}
	}()

	// --------------------
	// HTTP API (blocks until shutdown)
	// --------------------

	srv := api.New(api.Options{
		Controller:  sess,
		DefaultBaud: cfg.Serial.BaudRate,
		Link: func() status.Snapshot {
			linkMu.Lock()
			defer linkMu.Unlock()
			return link
		},
		Logger: logger,
	})

	if err := srv.Run(ctx, cfg.HTTP.Listen); err != nil {
		logger.Error().Err(err).Msg("http server failed")
	}

	stop()
	_ = sess.Close()
	wg.Wait()
	logger.Info().Msg("shutdown complete")
}

// newOpener maps the configured driver onto a port. The simulator stands
// in for hardware when driver is "sim".
func newOpener(cfg *config.Config, logger zerolog.Logger) serialport.Opener {
	return func(pc serialport.Config) (serialport.Port, error) {
		if cfg.Serial.Driver == simulator.Driver {
			return simulator.New(simulator.Config{
				Variables:   cfg.Simulator.Variables,
				Period:      time.Duration(cfg.Simulator.PeriodMs) * time.Millisecond,
				NoiseRate:   cfg.Simulator.NoiseRate,
				CorruptRate: cfg.Simulator.CorruptRate,
				Seed:        cfg.Simulator.Seed,
			}), nil
		}

		pc.Driver = cfg.Serial.Driver
		pc.ReadTimeout = time.Duration(cfg.Serial.ReadTimeoutMs) * time.Millisecond
		pc.FlowControl = cfg.Serial.FlowControl

		if strings.EqualFold(pc.FlowControl, "software") && !serialport.SoftwareFlowControl(pc.Driver) {
			logger.Warn().Str("driver", pc.Driver).Msg("software flow control not supported by driver; continuing without")
		}
		return serialport.Open(pc)
	}
}

func startConsumer(ctx context.Context, wg *sync.WaitGroup, sess *session.Session, name string, w writer.RecordWriter, logger zerolog.Logger) {
	sub, err := sess.Subscribe()
	if err != nil {
		logger.Fatal().Err(err).Str("consumer", name).Msg("subscribe failed")
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := writer.Consume(ctx, name, sub, w, logger); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Str("consumer", name).Msg("consumer stopped")
		}
	}()
}

func autoStart(cfg *config.Config, sess *session.Session, logger zerolog.Logger) {
	if err := sess.OpenPort(cfg.Serial.Port, cfg.Serial.BaudRate); err != nil {
		logger.Error().Err(err).Msg("auto open failed")
		return
	}
	if !cfg.Ingest.AutoStart {
		return
	}
	if err := sess.StartGate(); err != nil {
		logger.Error().Err(err).Msg("auto gate failed")
		return
	}
	if err := sess.StartIngestion(); err != nil {
		logger.Error().Err(err).Msg("auto start failed")
		return
	}
	if cfg.Ingest.AutoRun {
		if err := sess.SetRunning(true); err != nil {
			logger.Error().Err(err).Msg("auto run failed")
		}
	}
}

func sampleOf(st session.State) status.Sample {
	return status.Sample{
		PortOpen:    st.PortOpen,
		Ingesting:   st.Ingesting,
		Running:     st.Running,
		Accepted:    st.Stats.Accepted,
		Rejected:    st.Stats.Rejected(),
		ReadErrors:  st.Stats.ReadErrors,
		Overruns:    st.Stats.SyncOverruns,
		LastFrameAt: st.Stats.LastFrameAt,
	}
}
