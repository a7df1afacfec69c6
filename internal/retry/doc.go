// Package retry provides retry logic with exponential backoff for transient
// failures of the remote storage backends.
//
// Classification is pluggable. PostgreSQLErrorClassifier recognizes pgconn
// error classes and network failures; AWSErrorClassifier recognizes S3
// throttling codes, server faults and 5xx responses.
//
// # Example Usage
//
//	executor := retry.NewExecutor(retry.NewAWSErrorClassifier(), retry.DefaultBackoff()).
//	    WithLogger(logger, "get object")
//
//	body, err := retry.Do(ctx, executor, func(ctx context.Context) (string, error) {
//	    return fetch(ctx, key)
//	})
//
// # Thread Safety
//
// Executor instances are safe for concurrent use. WithOnRetry and WithLogger
// return independent copies.
package retry
