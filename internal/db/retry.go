package db

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Operation is a function that performs an action and returns an error if it fails.
type Operation func() error

// Retryable decides whether a failed attempt is worth repeating.
type Retryable func(err error) bool

const DefaultMaxRetries = 3

// Try executes an operation with default retry settings for transient errors.
// Duplicate key errors are never retried: on the bookings collection they mean
// a genuine duplicate, which the caller must surface rather than paper over.
func Try(op Operation) error {
	return WithRetries(op, DefaultMaxRetries, IsTransientError)
}

// WithRetries executes an operation up to 1+maxRetries times, retrying only
// when retryable reports the error as transient. A simple incremental backoff
// is applied between attempts.
func WithRetries(op Operation, maxRetries int, retryable Retryable) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if attempt == maxRetries {
			break
		}
		if retryable(err) {
			time.Sleep(time.Duration(50*(attempt+1)) * time.Millisecond)
		} else {
			return err
		}
	}
	return err
}

// IsTransientError reports whether err looks like a temporary storage failure
// (timeout, network) rather than a logical one.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	if IsMongoDuplicateKeyError(err) {
		return false
	}
	return mongo.IsTimeout(err) || mongo.IsNetworkError(err)
}

// IsMongoDuplicateKeyError checks if an error from MongoDB is a duplicate key
// error (code 11000), including the bulk write variant.
func IsMongoDuplicateKeyError(err error) bool {
	var e mongo.WriteException
	if errors.As(err, &e) {
		for _, we := range e.WriteErrors {
			if we.Code == 11000 {
				return true
			}
		}
	}
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, writeError := range bwe.WriteErrors {
			if writeError.Code == 11000 {
				return true
			}
		}
	}
	return false
}
