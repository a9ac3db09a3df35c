package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/raven-go"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Amrl666/asclepius-be/api"
	"github.com/Amrl666/asclepius-be/config"
	"github.com/Amrl666/asclepius-be/predict"
	"github.com/Amrl666/asclepius-be/storage"
)

func main() {
	cfg := config.Load()

	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.SentryDsn != "" {
		if err := raven.SetDSN(cfg.SentryDsn); err != nil {
			log.Fatal("[Main] Couldn't set sentry DSN: ", err.Error())
		}
	}

	//the model has to be in place before the listener opens; a failed load
	//is fatal, not a per-request error
	log.Info("[Main] Loading model from ", cfg.ModelUrl)
	predictor := predict.NewTensorflowPredictor()
	if err := predictor.Load(cfg.ModelUrl, cfg.ModelInputOp, cfg.ModelOutputOp); err != nil {
		log.Fatal("[Main] Couldn't load model: ", err.Error())
	}
	defer predictor.Close()
	log.Info("[Main] Model loaded!")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewFirestoreStore(ctx, cfg.ProjectId, cfg.CredentialsFile)
	if err != nil {
		log.Fatal("[Main] Couldn't connect to firestore: ", err.Error())
	}
	defer store.Close()

	pool := predict.NewPool(predictor, cfg.PredictWorkers, cfg.PredictQueueSize)
	defer pool.Stop()

	recorder := storage.NewRecorder(store)
	a := api.NewAPI(pool, recorder, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: a.Router(),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("[Main] Server running on port ", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("[Main] Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("[Main] Server failed: ", err.Error())
	}
}
