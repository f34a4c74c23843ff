package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	sentryhttp "github.com/getsentry/sentry-go/http"

	"webomat/internal/apiclient"
	"webomat/internal/config"
	"webomat/internal/credentials"
	"webomat/internal/feedback"
	"webomat/internal/handlers"
	"webomat/internal/invoice/lifecycle"
	"webomat/internal/notify"
	"webomat/internal/preview"
	"webomat/internal/repositories"
	"webomat/internal/services"
	"webomat/internal/session"
	"webomat/internal/storage"
	"webomat/internal/toast"
)

type application struct {
	errorLog *log.Logger
	infoLog  *log.Logger
	db       *sql.DB

	api      *apiclient.Client
	resolver *session.Resolver
	toasts   *toast.Hub
	sentry   *sentryhttp.Handler

	authHandler     *handlers.AuthHandler
	invoiceHandler  *handlers.InvoiceHandler
	businessHandler *handlers.BusinessHandler
	feedbackHandler *handlers.FeedbackHandler
	previewHandler  *handlers.PreviewHandler
	websiteHandler  *handlers.WebsiteHandler
}

// appLogger adapts the two standard loggers to the Infof/Errorf interface
// the internal packages expect.
type appLogger struct {
	info *log.Logger
	err  *log.Logger
}

func (l appLogger) Infof(format string, args ...interface{}) {
	l.info.Output(2, fmt.Sprintf(format, args...))
}

func (l appLogger) Errorf(format string, args ...interface{}) {
	l.err.Output(2, fmt.Sprintf(format, args...))
}

func initializeApp(cfg config.Config, db *sql.DB, errorLog *log.Logger, infoLog *log.Logger) (*application, error) {
	logger := appLogger{info: infoLog, err: errorLog}

	// One client serves every caller; the token travels in the request context.
	api, err := apiclient.New(apiclient.Options{
		BaseURL:   cfg.API.URL,
		Timeout:   time.Duration(cfg.API.TimeoutSeconds) * time.Second,
		UserAgent: "webomat-gateway",
	}, credentials.FromContext{})
	if err != nil {
		return nil, err
	}

	var (
		uploader feedback.Uploader
		signer   services.ScreenshotSigner
	)
	if cfg.StorageEnabled() {
		st, err := storage.New(storage.Config{
			Endpoint:        cfg.Storage.Endpoint,
			Region:          cfg.Storage.Region,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			PublicBaseURL:   cfg.Storage.PublicBaseURL,
		})
		if err != nil {
			return nil, err
		}
		uploader = st.Bucket(cfg.Storage.FeedbackBucket)
		signer = st.Bucket(cfg.Storage.ScreenshotsBucket)
	}

	var opts []lifecycle.Option
	if cfg.Firebase.CredentialsFile != "" {
		if db == nil {
			infoLog.Print("FIREBASE_CREDENTIALS_FILE is set without a database, push notifications are disabled")
		} else {
			sender, err := notify.NewMessagingClient(context.Background(), cfg.Firebase.CredentialsFile)
			if err != nil {
				return nil, err
			}
			pusher := notify.NewPusher(sender, &repositories.DeviceTokenRepository{DB: db}, logger)
			opts = append(opts, lifecycle.WithObserver(pusher.InvoiceChanged))
		}
	}
	invoices := lifecycle.New(api, logger, opts...)

	websites := &services.WebsiteProjectService{API: api, Screenshots: signer, URLTTL: time.Hour}
	if db != nil {
		websites.Repo = &repositories.WebsiteProjectRepository{DB: db}
	}

	app := &application{
		errorLog: errorLog,
		infoLog:  infoLog,
		db:       db,
		api:      api,
		resolver: session.NewResolver(api.Me),
		sentry:   sentryhttp.New(sentryhttp.Options{Repanic: true}),
	}
	app.toasts = toast.NewHub(app.toastUser, logger)

	base := handlers.Base{Logger: logger, Toasts: app.toasts}
	app.authHandler = &handlers.AuthHandler{Base: base, API: api}
	app.invoiceHandler = &handlers.InvoiceHandler{Base: base, API: api, Lifecycle: invoices}
	app.businessHandler = &handlers.BusinessHandler{Base: base, API: api}
	app.feedbackHandler = &handlers.FeedbackHandler{Base: base, Service: feedback.NewService(api, uploader), Admin: api}
	app.previewHandler = &handlers.PreviewHandler{Base: base, Service: preview.NewService(api, logger)}
	app.websiteHandler = &handlers.WebsiteHandler{Base: base, Service: websites}
	return app, nil
}

func openDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Printf("Failed to open DB: %v", err)
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		log.Printf("Failed to ping DB: %v", err)
		return nil, err
	}
	db.SetMaxIdleConns(5)
	db.SetMaxOpenConns(10)
	log.Println("Successfully connected to database")
	return db, nil
}
