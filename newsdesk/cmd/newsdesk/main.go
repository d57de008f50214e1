// Copyright 2026 Anapaya Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/opentracing/opentracing-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/newsdesk/newsdesk/newsdesk"
	"github.com/newsdesk/newsdesk/newsdesk/api"
	"github.com/newsdesk/newsdesk/newsdesk/config"
	"github.com/newsdesk/newsdesk/pkg/log"
	"github.com/newsdesk/newsdesk/pkg/metrics"
	"github.com/newsdesk/newsdesk/pkg/private/prom"
	"github.com/newsdesk/newsdesk/pkg/private/serrors"
	"github.com/newsdesk/newsdesk/private/app"
	"github.com/newsdesk/newsdesk/private/app/launcher"
	"github.com/newsdesk/newsdesk/private/dedup"
	"github.com/newsdesk/newsdesk/private/homepage"
	"github.com/newsdesk/newsdesk/private/live"
	"github.com/newsdesk/newsdesk/private/live/relay"
	"github.com/newsdesk/newsdesk/private/notify"
	"github.com/newsdesk/newsdesk/private/periodic"
	"github.com/newsdesk/newsdesk/private/push"
	"github.com/newsdesk/newsdesk/private/storage"
	articlemetrics "github.com/newsdesk/newsdesk/private/storage/article/metrics"
	"github.com/newsdesk/newsdesk/private/storage/cleaner"
)

var globalCfg config.Config

func main() {
	application := launcher.Application{
		TOMLConfig: &globalCfg,
		ShortName:  "Newsdesk",
		Main:       realMain,
	}
	application.Run()
}

func realMain(ctx context.Context) error {
	tracer, closer, err := globalCfg.Tracing.NewTracer(globalCfg.General.ID)
	if err != nil {
		return serrors.Wrap("initializing tracer", err)
	}
	defer closer.Close()
	opentracing.SetGlobalTracer(tracer)

	articleDB, err := storage.NewArticleStorage(globalCfg.ArticleDB)
	if err != nil {
		return serrors.Wrap("initializing article storage", err)
	}
	defer articleDB.Close()
	var f metrics.Factory
	articleDB = articlemetrics.WrapDB(articleDB, articlemetrics.Config{
		Driver: string(storage.BackendSqlite),
		QueriesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "article_db_queries_total",
			Help: "Total queries to the article database.",
		}, "driver", "operation", prom.LabelResult),
	})
	liveDB, err := storage.NewLiveStorage(globalCfg.LiveDB)
	if err != nil {
		return serrors.Wrap("initializing live storage", err)
	}
	defer liveDB.Close()
	pushDB, err := storage.NewPushStorage(globalCfg.PushDB, storage.DefaultCleanupInterval)
	if err != nil {
		return serrors.Wrap("initializing push storage", err)
	}
	defer pushDB.Close()

	cache, err := globalCfg.Dedup.New(dedup.Metrics{
		Lookups: f.NewCounter(prometheus.CounterOpts{
			Name: "dedup_lookups_total",
			Help: "Total number of dedup lookups.",
		}, "backend", prom.LabelResult),
		FailOpen: f.NewCounter(prometheus.CounterOpts{
			Name: "dedup_fail_open_total",
			Help: "Total number of failed shared lookups treated as not seen.",
		}),
	})
	if err != nil {
		return serrors.Wrap("initializing dedup cache", err)
	}
	defer cache.Close()
	if mem, ok := cache.(interface {
		DeleteExpired(context.Context) (int, error)
	}); ok {
		interval := globalCfg.Dedup.CleanupInterval.Duration
		dedupCleaner := periodic.Start(
			cleaner.New(mem.DeleteExpired, "dedup", cleaner.NewMetrics("dedup")),
			interval, interval)
		defer dedupCleaner.Stop()
	}

	hub := live.NewHub(live.HubOptions{
		WriteTimeout:       globalCfg.Live.WriteTimeout.Duration,
		MaxConcurrentSends: globalCfg.Live.MaxConcurrentSends,
		Metrics: live.Metrics{
			Connections: f.NewGauge(prometheus.GaugeOpts{
				Name: "live_connections",
				Help: "Number of connected live readers.",
			}),
			Cues: f.NewCounter(prometheus.CounterOpts{
				Name: "live_cues_total",
				Help: "Total number of cue writes to live readers.",
			}, prom.LabelResult),
		},
	})
	defer hub.Close()

	g, errCtx := errgroup.WithContext(ctx)

	var cuePublisher live.CuePublisher
	if relayCfg := globalCfg.Live.Relay; relayCfg.Address != "" {
		r := relay.New(redis.NewClient(&redis.Options{
			Addr:     relayCfg.Address,
			Password: relayCfg.Password,
			DB:       relayCfg.DB,
		}), relay.Options{
			Channel: relayCfg.Channel,
			Origin:  globalCfg.General.ID,
		})
		defer r.Close()
		log.Info("Relaying live cues", "addr", relayCfg.Address, "channel", relayCfg.Channel)
		g.Go(func() error {
			defer log.HandlePanic()
			return r.Run(errCtx, hub, nil)
		})
		cuePublisher = r
	}
	liveSvc, err := live.NewService(live.ServiceOptions{
		DB:               liveDB,
		Hub:              hub,
		Relay:            cuePublisher,
		ChannelCacheSize: globalCfg.Live.ChannelCacheSize,
	})
	if err != nil {
		return serrors.Wrap("initializing live service", err)
	}
	defer liveSvc.Wait()

	if err := loadVAPIDKeys(); err != nil {
		return err
	}
	registry := push.DBRegistry{DB: pushDB}
	publisher := &newsdesk.Publisher{
		Articles: articleDB,
		Live:     liveSvc,
	}
	if globalCfg.Push.Enabled() {
		dispatcher := notify.New(notify.Options{
			Registry:                registry,
			Transport:               push.NewWebPush(globalCfg.Push.WebPushOptions()),
			Dedup:                   cache,
			DedupWindow:             globalCfg.Dedup.PushWindow.Duration,
			BaseURL:                 globalCfg.Push.BaseURL,
			DeliveryTimeout:         globalCfg.Push.DeliveryTimeout.Duration,
			MaxConcurrentDeliveries: globalCfg.Push.MaxConcurrentDeliveries,
			Metrics: notify.Metrics{
				Deliveries: f.NewCounter(prometheus.CounterOpts{
					Name: "push_deliveries_total",
					Help: "Total number of push delivery attempts.",
				}, prom.LabelResult),
				Removed: f.NewCounter(prometheus.CounterOpts{
					Name: "push_subscriptions_removed_total",
					Help: "Total number of subscriptions removed after a permanent failure.",
				}),
			},
		})
		defer dispatcher.Wait()
		publisher.Notifier = dispatcher
	} else {
		log.Info("Push notifications disabled, no VAPID key configured")
	}

	slots, err := globalCfg.Homepage.Layout()
	if err != nil {
		return serrors.Wrap("loading homepage layout", err)
	}

	var cleanup app.Cleanup
	if globalCfg.API.Addr != "" {
		r := chi.NewRouter()
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: globalCfg.API.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		}))
		server := &api.Server{
			Articles:  articleDB,
			Publisher: publisher,
			Homepage:  homepage.Allocator{Store: articleDB},
			Slots:     slots,
			Live:      liveSvc,
			LiveReaders: live.Handler{
				Hub:            hub,
				OriginPatterns: globalCfg.Live.AllowedOrigins,
			},
			Push:           registry,
			Views:          cache,
			ViewWindow:     globalCfg.Dedup.ViewWindow.Duration,
			VAPIDPublicKey: globalCfg.Push.VAPIDPublicKey,
		}
		log.Info("Exposing API", "addr", globalCfg.API.Addr)
		apiServer := &http.Server{
			Addr:              globalCfg.API.Addr,
			Handler:           api.Handler(server, r),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			defer log.HandlePanic()
			err := apiServer.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return serrors.Wrap("serving API", err)
			}
			return nil
		})
		cleanup.Add(apiServer.Close)
	}

	g.Go(func() error {
		defer log.HandlePanic()
		return globalCfg.Metrics.ServePrometheus(errCtx)
	})
	g.Go(func() error {
		defer log.HandlePanic()
		<-errCtx.Done()
		return cleanup.Do()
	})
	return g.Wait()
}

// loadVAPIDKeys reads the key pair from the config directory unless it is
// configured inline.
func loadVAPIDKeys() error {
	if globalCfg.Push.Enabled() || globalCfg.General.ConfigDir == "" {
		return nil
	}
	keys, ok, err := push.LoadVAPIDKeys(globalCfg.General.ConfigDir)
	if err != nil {
		return serrors.Wrap("loading VAPID keys", err)
	}
	if !ok {
		return nil
	}
	globalCfg.Push.VAPIDPublicKey = keys.Public
	globalCfg.Push.VAPIDPrivateKey = keys.Private
	if err := globalCfg.Push.Validate(); err != nil {
		return serrors.Wrap("validating push config", err)
	}
	log.Info("Loaded VAPID keys", "dir", globalCfg.General.ConfigDir)
	return nil
}
