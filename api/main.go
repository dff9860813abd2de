package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const version = "1.0.0"

type config struct {
	port int
	env  string
	db   struct {
		uri  string
		name string
	}
	smtp struct {
		host     string
		port     int
		username string
		password string
		sender   string
	}
	limiter struct {
		enabled             bool
		maxRequestPerSecond float64
		burst               int
	}
	cors struct {
		trustedOrigins []string
	}
	reminder struct {
		interval time.Duration
		window   time.Duration
	}
}

type application struct {
	config config
	store  store
	sync   *relationshipSync
	mailer *mailer
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := godotenv.Load(); err == nil {
		log.Println("loaded configuration from .env")
	}

	var cfg config
	flag.IntVar(&cfg.port, "port", 4000, "Server Port")
	flag.StringVar(&cfg.env, "env", "development", "Environment [development|production]")

	flag.StringVar(&cfg.db.uri, "db-uri", os.Getenv("DB_URI"), "MongoDB connection URI")
	flag.StringVar(&cfg.db.name, "db-name", "tasktracker", "MongoDB database name")

	smtpPort := 25
	if p, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil {
		smtpPort = p
	}
	flag.StringVar(&cfg.smtp.host, "smtp-host", os.Getenv("SMTP_HOST"), "SMTP host")
	flag.IntVar(&cfg.smtp.port, "smtp-port", smtpPort, "SMTP port")
	flag.StringVar(&cfg.smtp.username, "smtp-username", os.Getenv("SMTP_USERNAME"), "SMTP username")
	flag.StringVar(&cfg.smtp.password, "smtp-password", os.Getenv("SMTP_PASSWORD"), "SMTP password")
	flag.StringVar(&cfg.smtp.sender, "smtp-sender", os.Getenv("SMTP_SENDER"), "SMTP sender")

	flag.BoolVar(&cfg.limiter.enabled, "limiter-enabled", true, "Enable rate limiter")
	flag.Float64Var(&cfg.limiter.maxRequestPerSecond, "limiter-rps", 2, "Rate limiter max requests per second")
	flag.IntVar(&cfg.limiter.burst, "limiter-burst", 4, "Rate limiter max burst")

	var origins string
	flag.StringVar(&origins, "cors-trusted-origins", "*", "Trusted CORS origins (space separated)")

	flag.DurationVar(&cfg.reminder.interval, "reminder-interval", 15*time.Minute, "How often to scan for due tasks")
	flag.DurationVar(&cfg.reminder.window, "reminder-window", 24*time.Hour, "How far ahead a deadline counts as due soon")
	flag.Parse()

	cfg.cors.trustedOrigins = strings.Fields(origins)

	if cfg.db.uri == "" {
		log.Fatal("missing MongoDB connection URI")
	}

	st, err := openStore(cfg)
	if err != nil {
		log.Fatal(err)
	}
	log.Println("established a connection with database")

	app := &application{
		config: cfg,
		store:  st,
		sync:   newRelationshipSync(st),
	}
	if cfg.smtp.host != "" {
		app.mailer = newMailer(cfg.smtp.host, cfg.smtp.port, cfg.smtp.username, cfg.smtp.password, cfg.smtp.sender)
		go app.runDeadlineReminders(cfg.reminder.interval, cfg.reminder.window)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.port),
		Handler:      composeRoutes(app),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	log.Printf("Starting %s server on port %d\n", cfg.env, cfg.port)
	err = srv.ListenAndServe()
	log.Fatal(err)
}
