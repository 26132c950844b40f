// Package txn runs a function inside a Mongo multi-document transaction,
// falling back to plain sequential execution when the server does not
// support transactions (standalone mongod in local dev).
//
// The fallback loses atomicity, so production deployments must run
// against a replica set; the fallback exists only so the app remains
// usable on a developer laptop.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Run executes fn inside a transaction on db's client. The ctx passed
// to fn carries the session, so every collection operation made with it
// participates in the same transaction and commits or aborts as a unit.
//
// If the server rejects transactions entirely, fn is retried once
// outside a transaction and a warning is logged.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			if log != nil {
				log.Warn("mongo sessions unavailable; running without transaction", zap.Error(err))
			}
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		if log != nil {
			log.Warn("mongo transactions unavailable; running without transaction", zap.Error(err))
		}
		return fn(ctx)
	}
	return err
}

// IsNotSupported reports whether err indicates the server cannot run
// multi-document transactions (standalone deployment, old server).
// It checks known command error codes first, then falls back to
// keyword matching because drivers and vendors word these differently.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263: // IllegalOperation / not a replica set member
			return true
		}
	}

	s := strings.ToLower(err.Error())
	hasTxn := strings.Contains(s, "transaction")
	switch {
	case hasTxn && strings.Contains(s, "replica set"):
		return true
	case hasTxn && strings.Contains(s, "session"):
		return true
	case hasTxn && strings.Contains(s, "illegal operation"):
		return true
	case strings.Contains(s, "session") && strings.Contains(s, "not supported"):
		return true
	}
	return false
}
