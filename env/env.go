// Package env loads daemon configuration from the environment, with .env
// support for development.
package env

import (
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Environment struct {
	// HTTPAddr is the listen address of the editor API.
	HTTPAddr string
	// AMQPURI enables the AMQP transport when set.
	AMQPURI string
	// Exchange is the AMQP topic exchange name.
	Exchange string
	// CouchURI enables page persistence when set.
	CouchURI string
	// CouchDB is the database name used for pages.
	CouchDB string
	// HistoryPath enables the SQLite step log when set.
	HistoryPath string
	// StrictCapacity flips the capacity policy from soft to strict.
	StrictCapacity bool
}

// LoadEnv reads configuration, tolerating a missing .env file. Only the
// HTTP listener is always on; the other services stay disabled until their
// keys are set.
func LoadEnv(logger *zap.Logger) *Environment {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("could not load .env file", zap.Error(err))
	}
	e := &Environment{
		HTTPAddr:       lookup("PATS_HTTP_ADDR", ":8484"),
		AMQPURI:        lookup("PATS_AMQP_URI", ""),
		Exchange:       lookup("PATS_AMQP_EXCHANGE", "petrinet"),
		CouchURI:       lookup("PATS_COUCHDB_URI", ""),
		CouchDB:        lookup("PATS_COUCHDB_NAME", "pages"),
		HistoryPath:    lookup("PATS_HISTORY_PATH", ""),
		StrictCapacity: lookup("PATS_STRICT_CAPACITY", "") != "",
	}
	logger.Info("loaded environment",
		zap.String("http_addr", e.HTTPAddr),
		zap.Bool("amqp", e.AMQPURI != ""),
		zap.Bool("couch", e.CouchURI != ""),
		zap.Bool("history", e.HistoryPath != ""),
	)
	return e
}

func lookup(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
