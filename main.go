/*
Emojistats runs a Discord bot that tracks emoji, reaction, and sticker
usage per server and answers leaderboard-style queries about it.

It takes in no flags but multiple environment variables (a .env file in
the working directory is honored). It runs a small HTTP sidecar for
health checks, Prometheus metrics, and read-only leaderboard JSON, which
will not serve TLS by default but can if a cert and key file are
provided.

It's backed by a SQLite DB, but does not require CGO to compile. There
are migrations in the repo that are run on startup before the bot
connects; per-guild counter tables are created lazily as guilds appear.
*/
package main

import (
	"context"
	"embed"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"go.uber.org/zap/zapcore"
	_ "modernc.org/sqlite"

	"github.com/emojistatsbot/emojistats/internal/core"
	"github.com/emojistatsbot/emojistats/internal/core/db"
	"github.com/emojistatsbot/emojistats/internal/discord"
	"github.com/emojistatsbot/emojistats/internal/logging"
	"github.com/emojistatsbot/emojistats/internal/statserv"
)

//go:embed migrate/*
var f embed.FS

// Transient connection failures on startup are retried a fixed number
// of times with a fixed delay, then treated as fatal.
const (
	connectAttempts = 3
	connectDelay    = time.Second
)

func main() {
	l := logging.NewLogger()
	defer func() {
		if err := l.Sync(); err != nil {
			log.Printf("error syncing logger: %s", err)
		}
	}()

	if err := godotenv.Load(); err != nil {
		l.Debugw("no .env file loaded", "err", err)
	}

	l.Debug("parsing config...")
	var cfg config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		l.Fatalf("error parsing config: %s", err)
	}
	l.Infow("parsed config", "config", cfg)

	// Connect to the database
	sqlDB, err := setupDB(cfg)
	if err != nil {
		l.Fatalf("error opening db: %s", err)
	}
	defer sqlDB.Close()
	d := db.New(sqlDB)

	cr := core.New(d)

	b, err := discord.New(
		discord.Config{
			Token:        cfg.DiscordToken,
			GuildIDs:     cfg.DiscordGuildIDs,
			SkipRegister: cfg.SkipRegister,
		},
		cr,
		l.Named("discord"),
	)
	if err != nil {
		l.Fatalf("error creating discord bot: %s", err)
	}

	if err := b.Open(); err != nil {
		l.Fatalf("error connecting to discord: %s", err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			l.Errorw("error closing discord session", "err", err)
		}
	}()

	s := statserv.New(
		l.Named("statserv"),
		statserv.Config{
			Port:        cfg.Port,
			TLSCertFile: cfg.TLSCertFile,
			TLSKeyFile:  cfg.TLSKeyFile,
		},
		cr,
	)
	go func() {
		l.Infof("serving on port %d", cfg.Port)
		var err error
		if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
			err = s.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = s.ListenAndServe()
		}
		if err != nil {
			l.Errorw("error while serving", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	l.Info("shutting down...")
	if err := s.Shutdown(context.Background()); err != nil {
		l.Errorw("error shutting down stats server", "err", err)
	}
}

type config struct {
	// Server
	Port        int    `env:"PORT,default=8080"`
	TLSCertFile string `env:"TLS_CERT_FILE"`
	TLSKeyFile  string `env:"TLS_KEY_FILE"`

	// Database
	DBPath string `env:"DB_PATH,default=emoji_stats.db"`

	// Discord stuffs
	DiscordToken    string   `env:"DISCORD_TOKEN,required"`
	DiscordGuildIDs []string `env:"DISCORD_GUILD_IDS"`
	// If we should not try to register commands with discord
	SkipRegister bool `env:"SKIP_REGISTER"`
}

func (c config) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("port", c.Port)
	enc.AddString("db_path", c.DBPath)
	enc.AddString("tls_cert_file", c.TLSCertFile)
	enc.AddString("tls_key_file", c.TLSKeyFile)
	enc.AddBool("skip_register", c.SkipRegister)

	return nil
}

// Connects to the db, retrying briefly, and migrates it
func setupDB(c config) (*sqlx.DB, error) {
	u, err := url.Parse(c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error parsing db path: %s", err)
	}
	q := u.Query()
	q.Add("_journal", "WAL")
	u.RawQuery = q.Encode()

	var db *sqlx.DB
	for attempt := 1; ; attempt++ {
		db, err = sqlx.Connect("sqlite", u.String())
		if err == nil {
			break
		}
		if attempt == connectAttempts {
			return nil, fmt.Errorf("error opening db after %d attempts: %s", attempt, err)
		}
		time.Sleep(connectDelay)
	}

	// Perform migrations
	ups, err := f.ReadDir("migrate")
	if err != nil {
		return nil, fmt.Errorf("error reading migration dir: %s", err)
	}

	for _, up := range ups {
		if up.IsDir() {
			continue
		}

		if !strings.HasSuffix(up.Name(), "sql") {
			continue
		}

		upBytes, err := f.ReadFile(filepath.Join("migrate", up.Name()))
		if err != nil {
			return nil, fmt.Errorf("error reading up file: %s", err)
		}

		_, err = db.Exec(string(upBytes))
		if err != nil {
			return nil, fmt.Errorf("error executing up query for file %s: %s", up.Name(), err)
		}
	}

	return db, nil
}
