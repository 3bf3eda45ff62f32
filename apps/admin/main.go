package main

import (
	"context"
	"log"
	"os"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/records"
	logsvc "github.com/trezcool/alama/services/logger"
	sessionsvc "github.com/trezcool/alama/services/session"
	"github.com/trezcool/alama/storage"
	"github.com/trezcool/alama/storage/database/sqlxstore"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB; the CLI only makes sense against a database the API also uses
	db, err := storage.OpenDB(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}

	// the cache the API reads, so that CLI writes invalidate it
	cache, closeCache, err := storage.OpenCache(context.Background(), conf)
	if err != nil {
		_ = db.Close()
		logger.Fatal("opening cache", err)
	}

	// start CLI
	cli := commandLine{
		conf:        conf,
		db:          db,
		gw:          records.NewGateway(sqlxstore.NewStore(db), cache, logger),
		issuer:      sessionsvc.NewIssuer(conf),
		sharedCache: storage.SharedCache(conf),
		out:         os.Stdout,
	}
	err = cli.run(os.Args)
	_ = closeCache.Close()
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		os.Exit(1)
	}
}
