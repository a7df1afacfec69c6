package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"testing"
	"time"

	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/fsedit/internal/logging"
)

// flakyOperation fails with err for the first failures invocations.
type flakyOperation struct {
	invocations int
	failures    int
	err         error
}

func (f *flakyOperation) run(ctx context.Context) error {
	f.invocations++
	if f.invocations <= f.failures {
		return f.err
	}
	return nil
}

func fastBackoff(maxAttempts int) *ExponentialBackoff {
	return NewExponentialBackoff(maxAttempts, WithInitialDelay(time.Millisecond), WithJitter(0))
}

func TestExecutor_SuccessOnFirstAttempt(t *testing.T) {
	op := &flakyOperation{}
	err := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(3)).Execute(context.Background(), op.run)

	require.NoError(t, err)
	assert.Equal(t, 1, op.invocations)
}

func TestExecutor_SuccessAfterRetries(t *testing.T) {
	op := &flakyOperation{failures: 2, err: &pgconn.PgError{Code: "08006"}}

	var retries []int
	executor := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(5)).
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			retries = append(retries, attempt)
		})

	require.NoError(t, executor.Execute(context.Background(), op.run))
	assert.Equal(t, 3, op.invocations)
	assert.Equal(t, []int{0, 1}, retries)
}

func TestExecutor_FatalErrorNotRetried(t *testing.T) {
	fatal := &pgconn.PgError{Code: "28P01", Message: "password authentication failed"}
	op := &flakyOperation{failures: 10, err: fatal}

	err := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(5)).Execute(context.Background(), op.run)
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, op.invocations)
}

func TestExecutor_ExhaustsRetries(t *testing.T) {
	op := &flakyOperation{failures: 10, err: errors.New("connection refused")}

	err := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(2)).Execute(context.Background(), op.run)
	assert.EqualError(t, err, "connection refused")
	assert.Equal(t, 3, op.invocations, "first attempt plus two retries")
}

func TestExecutor_ZeroAttemptsMeansNoRetry(t *testing.T) {
	op := &flakyOperation{failures: 10, err: errors.New("connection refused")}

	err := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(0)).Execute(context.Background(), op.run)
	assert.Error(t, err)
	assert.Equal(t, 1, op.invocations)
}

func TestExecutor_ContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	executor := NewExecutor(NewPostgreSQLErrorClassifier(), NewExponentialBackoff(5, WithInitialDelay(time.Hour), WithJitter(0))).
		WithOnRetry(func(int, error, time.Duration) { cancel() })

	op := &flakyOperation{failures: 10, err: errors.New("connection reset")}
	err := executor.Execute(ctx, op.run)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, op.invocations)
}

func TestExecutor_WithOnRetryDoesNotModifyReceiver(t *testing.T) {
	base := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(1))
	_ = base.WithOnRetry(func(int, error, time.Duration) {})
	assert.Nil(t, base.onRetry)
}

func TestExecutor_WithLogger(t *testing.T) {
	rec := logging.NewRecordingLogger(10)
	op := &flakyOperation{failures: 1, err: errors.New("i/o timeout")}

	executor := NewExecutor(NewAWSErrorClassifier(), fastBackoff(3)).WithLogger(rec, "list objects")
	require.NoError(t, executor.Execute(context.Background(), op.run))

	msgs := rec.Messages(logging.LevelVerbose)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "list objects failed (retry 1")
}

func TestDo(t *testing.T) {
	calls := 0
	executor := NewExecutor(NewAWSErrorClassifier(), fastBackoff(3))

	got, err := Do(context.Background(), executor, func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", &smithy.GenericAPIError{Code: "SlowDown"}
		}
		return "body", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "body", got)
	assert.Equal(t, 2, calls)
}

func TestNewExecutor_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { NewExecutor(nil, fastBackoff(1)) })
	assert.Panics(t, func() { NewExecutor(NewAWSErrorClassifier(), nil) })
}

func TestExponentialBackoff_NextDelay(t *testing.T) {
	b := NewExponentialBackoff(5,
		WithInitialDelay(100*time.Millisecond),
		WithMaxDelay(time.Second),
		WithMultiplier(2),
		WithJitter(0),
	)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, time.Second},
		{10, time.Second},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt %d", tt.attempt), func(t *testing.T) {
			assert.Equal(t, tt.want, b.NextDelay(tt.attempt))
		})
	}
}

func TestExponentialBackoff_Jitter(t *testing.T) {
	low := NewExponentialBackoff(1, WithInitialDelay(time.Second), WithJitter(0.1), WithJitterFunc(func() float64 { return 0 }))
	high := NewExponentialBackoff(1, WithInitialDelay(time.Second), WithJitter(0.1), WithJitterFunc(func() float64 { return 1 }))
	mid := NewExponentialBackoff(1, WithInitialDelay(time.Second), WithJitter(0.1), WithJitterFunc(func() float64 { return 0.5 }))

	ms := float64(time.Millisecond)
	assert.InDelta(t, float64(900*time.Millisecond), float64(low.NextDelay(0)), ms)
	assert.InDelta(t, float64(1100*time.Millisecond), float64(high.NextDelay(0)), ms)
	assert.Equal(t, time.Second, mid.NextDelay(0))
}

func TestExponentialBackoff_RandomJitterStaysInRange(t *testing.T) {
	b := NewExponentialBackoff(1, WithInitialDelay(time.Second), WithJitter(0.2))
	for i := 0; i < 100; i++ {
		d := b.NextDelay(0)
		assert.GreaterOrEqual(t, d, 800*time.Millisecond)
		assert.LessOrEqual(t, d, 1200*time.Millisecond)
	}
}

func TestDefaultBackoff(t *testing.T) {
	b := DefaultBackoff()
	assert.Equal(t, 3, b.MaxAttempts())
	assert.InDelta(t, float64(100*time.Millisecond), float64(b.NextDelay(0)), float64(10*time.Millisecond))
}

func TestPostgreSQLErrorClassifier(t *testing.T) {
	c := NewPostgreSQLErrorClassifier()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection failure", &pgconn.PgError{Code: "08006"}, true},
		{"too many connections", &pgconn.PgError{Code: "53300"}, true},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, true},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"lock not available", &pgconn.PgError{Code: "55P03"}, true},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, false},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"wrapped pg error", fmt.Errorf("query: %w", &pgconn.PgError{Code: "08003"}), true},
		{"refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, true},
		{"reset", &net.OpError{Op: "read", Err: syscall.ECONNRESET}, true},
		{"dns temporary", &net.DNSError{Err: "lookup", IsTemporary: true}, true},
		{"dns permanent", &net.DNSError{Err: "server misbehaving", Name: "db.internal"}, false},
		{"message pattern", errors.New("server closed the connection unexpectedly"), true},
		{"unrelated", errors.New("syntax error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsTransient(tt.err))
		})
	}
}

func responseError(status int) error {
	return &smithyhttp.ResponseError{
		Response: &smithyhttp.Response{Response: &http.Response{StatusCode: status}},
		Err:      errors.New("http error"),
	}
}

func TestAWSErrorClassifier(t *testing.T) {
	c := NewAWSErrorClassifier()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"slow down", &smithy.GenericAPIError{Code: "SlowDown"}, true},
		{"throttling", fmt.Errorf("put: %w", &smithy.GenericAPIError{Code: "ThrottlingException"}), true},
		{"server fault", &smithy.GenericAPIError{Code: "Whatever", Fault: smithy.FaultServer}, true},
		{"no such key", &smithy.GenericAPIError{Code: "NoSuchKey", Fault: smithy.FaultClient}, false},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"503", responseError(503), true},
		{"429", responseError(429), true},
		{"403", responseError(403), false},
		{"timeout", &net.OpError{Op: "read", Err: syscall.ECONNRESET}, true},
		{"message pattern", errors.New("dial tcp: i/o timeout"), true},
		{"unrelated", errors.New("invalid bucket name"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsTransient(tt.err))
		})
	}
}
