// Package txn runs multi-document writes atomically.
//
// Creating an app together with its default version and language, moving a
// default, cascading a delete and reordering pages all go through Run so a
// failure part way leaves nothing behind.
//
//	err := txn.Run(ctx, db, log, func(ctx context.Context) error {
//	    if _, err := apps.InsertOne(ctx, app); err != nil {
//	        return err
//	    }
//	    _, err := versions.InsertOne(ctx, v1)
//	    return err
//	})
//
// Standalone MongoDB servers have no transactions. There Run logs a warning
// and executes fn directly, which keeps development setups working.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Func is the body of a transaction. ctx is a mongo.SessionContext when a
// transaction is active and must be passed to every database call.
type Func func(ctx context.Context) error

// Run executes fn inside a transaction when the deployment supports one and
// falls back to a plain call otherwise. log may be nil.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn Func) error {
	session, err := db.Client().StartSession()
	if err != nil {
		if log != nil {
			log.Warn("failed to start session, running without transaction", zap.Error(err))
		}
		return fn(ctx)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		if log != nil {
			log.Warn("transactions not supported, running without transaction", zap.Error(err))
		}
		return fn(ctx)
	}
	return err
}

// IsNotSupported reports whether err means the server cannot run
// multi-document transactions (standalone server, DocumentDB without a
// replica set).
//
// Known codes: 20 (transaction numbers need a replica set), 51
// (IllegalOperation), 263 (operation not allowed in a transaction).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		switch cmdErr.Code {
		case 20, 51, 263:
			return true
		}
	}

	// Message matching needs two hits to avoid swallowing unrelated errors.
	msg := strings.ToLower(err.Error())
	hits := 0
	for _, kw := range []string{"transaction", "replica set", "session", "not supported", "illegal operation"} {
		if strings.Contains(msg, kw) {
			hits++
		}
	}
	return hits >= 2
}
