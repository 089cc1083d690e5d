package main

import (
	"context"
	"flag"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/justinas/alice"
	"github.com/sirupsen/logrus"

	"howett.net/vellum/gitfs"
	vhttp "howett.net/vellum/http"
	"howett.net/vellum/jobs"
	"howett.net/vellum/postgres"
	"howett.net/vellum/service"
)

func subrouter(r *mux.Router, prefix string) *mux.Router {
	n := mux.NewRouter()
	r.PathPrefix(prefix).Handler(http.StripPrefix(prefix, n))
	return n
}

func sweepLoop(ctx context.Context, svc *service.Service, interval time.Duration, logger logrus.FieldLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.SweepExpired(ctx); err != nil {
				logger.Error("expiry sweep: ", err)
			}
		}
	}
}

func main() {
	configPath := flag.String("config", "vellum.yml", "configuration file")
	flag.Parse()

	// A missing .env is fine; the config file templates over whatever
	// environment is present.
	godotenv.Load()

	config, err := NewFileConfigurationService([]string{*configPath}).LoadConfiguration()
	if err != nil {
		logrus.Fatal("loading configuration: ", err)
	}

	logger := logrus.New()
	logger.SetLevel(config.Logging.Level.LogrusLevel())

	if d := config.Database.Dialect; d != "" && d != "postgres" {
		logger.Fatalf("unsupported database dialect %q", d)
	}
	provider, err := postgres.Open(config.Database.Connection,
		postgres.LoggerOption(logger.WithField("facility", "model")))
	if err != nil {
		logger.Fatal("opening database: ", err)
	}

	store := gitfs.New(config.Store.Root, logger.WithField("facility", "store"))

	var queue jobs.Queue = jobs.Discard{}
	if config.Jobs.AMQP != "" {
		amqpQueue, err := jobs.DialAMQP(config.Jobs.AMQP, config.Jobs.Queue)
		if err != nil {
			logger.Fatal("connecting to broker: ", err)
		}
		defer amqpQueue.Close()
		queue = amqpQueue
	}

	svc := service.New(provider, store, queue, logger.WithField("facility", "paste"), config.Limits)

	ctx := context.Background()
	if _, err := svc.SweepExpired(ctx); err != nil {
		logger.Error("startup expiry sweep: ", err)
	}

	sweepInterval := time.Duration(config.Expiry.SweepInterval)
	if sweepInterval <= 0 {
		sweepInterval = 15 * time.Minute
	}
	go sweepLoop(ctx, svc, sweepInterval, logger)

	renderer := vhttp.NewJSONRenderer(logger.WithField("facility", "web"))
	sessions := vhttp.NewSessionUserService([]byte(config.Session.AuthenticationKey))

	router := mux.NewRouter()
	pasteRouter := subrouter(router, "/paste")
	userRouter := subrouter(router, "/user")

	vhttp.NewHandler(svc, renderer).BindRoutes(pasteRouter)
	vhttp.NewUserHandler(svc, renderer).BindRoutes(userRouter)

	defaultStack := alice.New(sessions.Middleware)

	bind := config.Web.Bind
	if bind == "" {
		bind = ":8080"
	}
	logger.Info("listening on ", bind)
	logger.Fatal(http.ListenAndServe(bind, defaultStack.Then(router)))
}
