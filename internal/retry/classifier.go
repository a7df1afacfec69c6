package retry

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/fsedit/pkg/fsedit"
)

// PostgreSQL error classes and codes for transient conditions.
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
var (
	pgTransientClasses = []string{
		"08", // connection exception
		"53", // insufficient resources
		"57", // operator intervention
	}

	pgTransientCodes = map[string]bool{
		"40001": true, // serialization_failure
		"40P01": true, // deadlock_detected
		"55P03": true, // lock_not_available
	}
)

// Error codes S3 and other AWS services return for retryable conditions.
var awsTransientCodes = map[string]bool{
	"RequestTimeout":           true,
	"RequestTimeoutException":  true,
	"SlowDown":                 true,
	"Throttling":               true,
	"ThrottlingException":      true,
	"ThrottledException":       true,
	"RequestThrottled":         true,
	"TooManyRequestsException": true,
	"InternalError":            true,
	"ServiceUnavailable":       true,
	"PriorRequestNotComplete":  true,
}

// Message fragments of transient failures that carry no typed error.
var transientPatterns = []string{
	"connection refused",
	"connection reset",
	"connection timeout",
	"connection failure",
	"no such host",
	"network is unreachable",
	"i/o timeout",
	"broken pipe",
	"too many connections",
	"server closed the connection",
	"unexpected eof",
	"connection pool exhausted",
}

// PostgreSQLErrorClassifier classifies errors from the PostgreSQL backend.
type PostgreSQLErrorClassifier struct{}

var _ fsedit.ErrorClassifier = (*PostgreSQLErrorClassifier)(nil)

// NewPostgreSQLErrorClassifier creates a new PostgreSQL error classifier.
func NewPostgreSQLErrorClassifier() *PostgreSQLErrorClassifier {
	return &PostgreSQLErrorClassifier{}
}

// IsTransient determines if an error is temporary and retryable.
func (c *PostgreSQLErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgTransientCodes[pgErr.Code] {
			return true
		}
		for _, class := range pgTransientClasses {
			if strings.HasPrefix(pgErr.Code, class) {
				return true
			}
		}
		return false
	}

	return isNetworkError(err) || matchesTransientPattern(err)
}

// AWSErrorClassifier classifies errors from the S3 backend.
type AWSErrorClassifier struct{}

var _ fsedit.ErrorClassifier = (*AWSErrorClassifier)(nil)

// NewAWSErrorClassifier creates a new AWS error classifier.
func NewAWSErrorClassifier() *AWSErrorClassifier {
	return &AWSErrorClassifier{}
}

// IsTransient reports throttling, timeouts, 5xx responses and network failures as retryable.
func (c *AWSErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if awsTransientCodes[apiErr.ErrorCode()] {
			return true
		}
		if apiErr.ErrorFault() == smithy.FaultServer {
			return true
		}
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		status := respErr.HTTPStatusCode()
		if status == 429 || status >= 500 {
			return true
		}
		if status >= 400 {
			return false
		}
	}

	if apiErr != nil {
		return false
	}
	return isNetworkError(err) || matchesTransientPattern(err)
}

// isNetworkError checks for temporary network-level failures.
func isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() || dnsErr.Timeout()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return true
		}
		for _, errno := range []syscall.Errno{syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ENETUNREACH, syscall.EHOSTUNREACH} {
			if errors.Is(opErr.Err, errno) {
				return true
			}
		}
	}
	return false
}

func matchesTransientPattern(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
