package database

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// InTransaction runs fn inside a multi-document transaction. The context passed
// to fn carries the session, so repository calls made with it join the
// transaction. Any error from fn aborts; the session is always ended. Nothing
// is retried, including transient commit errors.
func (s *Store) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := s.Client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(context.WithoutCancel(ctx))

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if err := sess.StartTransaction(txnOpts); err != nil {
		return err
	}

	sessCtx := mongo.NewSessionContext(ctx, sess)
	if err := fn(sessCtx); err != nil {
		// abort must run even if the request context is already cancelled
		if abortErr := sess.AbortTransaction(context.WithoutCancel(ctx)); abortErr != nil {
			s.log.Warn().Err(abortErr).Msg("abort transaction failed")
		}
		return err
	}

	return sess.CommitTransaction(sessCtx)
}
