package repository

import (
	"go.mongodb.org/mongo-driver/v2/mongo"

	"jobboard/errors"
)

// classify maps driver errors onto the error taxonomy the services understand
func classify(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return errors.Mark(errors.Wrap(err, op), errors.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return errors.Mark(errors.Wrap(err, op), errors.ErrConflict)
	case mongo.IsNetworkError(err), mongo.IsTimeout(err):
		return errors.WrapStoreUnavailable(err, op)
	default:
		return errors.Wrap(err, op)
	}
}
