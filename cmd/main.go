package main

import (
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"webomat/internal/config"
)

var defaultOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	infoLog := log.New(os.Stdout, "INFO\t", log.Ldate|log.Ltime)
	errorLog := log.New(os.Stderr, "ERROR\t", log.Ldate|log.Ltime|log.Lshortfile)

	cfg, err := config.LoadConfig()
	if err != nil {
		errorLog.Fatal(err)
	}

	addr := flag.String("addr", cfg.Server.Address, "HTTP network address")
	flag.Parse()

	if cfg.Sentry.DSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			AttachStacktrace: true,
		})
		if err != nil {
			errorLog.Printf("sentry init: %v", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	var db *sql.DB
	if cfg.Database.URL != "" {
		db, err = openDB(cfg.Database.URL)
		if err != nil {
			errorLog.Fatal(err)
		}
		defer db.Close()
	} else {
		infoLog.Print("SUPABASE_DB_URL is not set, website project listing is disabled")
	}

	app, err := initializeApp(cfg, db, errorLog, infoLog)
	if err != nil {
		errorLog.Fatal(err)
	}

	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = defaultOrigins
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: true,
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
	})

	srv := &http.Server{
		Addr:         *addr,
		ErrorLog:     errorLog,
		Handler:      c.Handler(app.routes()),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}

	infoLog.Printf("Starting server on %s (api %s)", *addr, cfg.API.URL)
	if err := srv.ListenAndServe(); err != nil {
		errorLog.Fatal(err)
	}
}
