package fsedit

import "fmt"

// SessionState is the state of the editor session.
//
// Transitions:
//   - any state → Loading when a supported file is selected
//   - Loading → Clean when the read succeeds, → Idle when it fails
//   - Clean → Dirty on any edit
//   - Dirty → Saving on apply
//   - Saving → Clean when the write commits, → Dirty when it fails or the buffer was edited meanwhile
type SessionState int

const (
	StateIdle SessionState = iota
	StateLoading
	StateClean
	StateDirty
	StateSaving
)

// String returns a human-readable representation of the SessionState.
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateLoading:
		return "Loading"
	case StateClean:
		return "Clean"
	case StateDirty:
		return "Dirty"
	case StateSaving:
		return "Saving"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// HasBuffer reports whether the session holds a loaded buffer in this state.
func (s SessionState) HasBuffer() bool {
	return s == StateClean || s == StateDirty || s == StateSaving
}

// Backend names a storage backend.
type Backend string

const (
	BackendOS       Backend = "os"
	BackendMemory   Backend = "memory"
	BackendS3       Backend = "s3"
	BackendPostgres Backend = "postgres"
)

// IsValid returns true if the Backend is a known value.
func (b Backend) IsValid() bool {
	switch b {
	case BackendOS, BackendMemory, BackendS3, BackendPostgres:
		return true
	}
	return false
}

// AuthMethod represents the PostgreSQL backend authentication mechanism.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS RDS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// ParseAuthMethod maps a configuration value to an AuthMethod.
// The empty string selects AuthMethodStandard.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch s {
	case "", "standard", "password":
		return AuthMethodStandard, nil
	case "aws", "aws-iam":
		return AuthMethodAWSIAM, nil
	case "google", "google-iam", "gcp":
		return AuthMethodGoogleIAM, nil
	case "azure", "azure-entra", "entra":
		return AuthMethodAzureEntraID, nil
	}
	return AuthMethodStandard, fmt.Errorf("auth method %q: %w", s, ErrUnsupportedAuthMethod)
}

// ConnectionConfig holds PostgreSQL backend connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	AppName          string
	AdditionalParams map[string]string

	// AWS RDS IAM
	AWSRegion string

	// Azure Entra ID. If all three are set, Service Principal authentication
	// is used; otherwise the DefaultAzureCredential chain.
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// Google Cloud SQL instance connection name (project:region:instance)
	GoogleInstance string
}
