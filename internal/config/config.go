package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vvka-141/fsedit/internal/tree"
	"github.com/vvka-141/fsedit/pkg/fsedit"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

const (
	ConfigFileName = "fsedit.yaml"
	EnvFileName    = ".env"
	EnvPrefix      = "FSEDIT_"
)

type S3Config struct {
	Bucket          string `yaml:"bucket,omitempty"`
	Prefix          string `yaml:"prefix,omitempty"`
	Region          string `yaml:"region,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
	PathStyle       bool   `yaml:"path_style,omitempty"`
}

type PostgresConfig struct {
	Connection        string `yaml:"connection,omitempty"`
	Host              string `yaml:"host,omitempty"`
	Port              int    `yaml:"port,omitempty"`
	Username          string `yaml:"username,omitempty"`
	Password          string `yaml:"password,omitempty"`
	Database          string `yaml:"database,omitempty"`
	SSLMode           string `yaml:"sslmode,omitempty"`
	Table             string `yaml:"table,omitempty"`
	AuthMethod        string `yaml:"auth_method,omitempty"`
	AWSRegion         string `yaml:"aws_region,omitempty"`
	AzureTenantID     string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID     string `yaml:"azure_client_id,omitempty"`
	AzureClientSecret string `yaml:"azure_client_secret,omitempty"`
	GoogleInstance    string `yaml:"google_instance,omitempty"`
}

type Config struct {
	Extensions  []string       `yaml:"extensions"`
	MaxDepth    int            `yaml:"max_depth"`
	Concurrency int            `yaml:"concurrency"`
	Backend     string         `yaml:"backend"`
	Root        string         `yaml:"root,omitempty"`
	LogFile     string         `yaml:"log_file,omitempty"`
	S3          S3Config       `yaml:"s3,omitempty"`
	Postgres    PostgresConfig `yaml:"postgres,omitempty"`
}

// Default returns the configuration used when no file or override is present.
func Default() *Config {
	return &Config{
		Extensions:  append([]string(nil), fsedit.DefaultExtensions...),
		MaxDepth:    fsedit.DefaultMaxDepth,
		Concurrency: fsedit.DefaultConcurrency,
		Backend:     string(fsedit.BackendOS),
		Postgres: PostgresConfig{
			Port:  5432,
			Table: fsedit.DefaultTableName,
		},
	}
}

// Load reads fsedit.yaml from dir on top of the defaults.
// When the file is absent the defaults are returned together with ErrConfigNotFound.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads the config file at path on top of the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, ErrConfigNotFound
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w: %w", path, fsedit.ErrInvalidConfig, err)
	}
	return cfg, nil
}

// LoadEnvFiles loads .env style files into the process environment.
// Variables already set are never overridden and missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{EnvFileName}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w: %w", p, fsedit.ErrInvalidConfig, err)
		}
	}
	return nil
}

// envBinding maps one FSEDIT_* variable onto a config field.
type envBinding struct {
	name string
	set  func(c *Config, v string) error
}

func stringField(get func(c *Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*get(c) = v
		return nil
	}
}

func intField(get func(c *Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*get(c) = n
		return nil
	}
}

func boolField(get func(c *Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*get(c) = b
		return nil
	}
}

var envBindings = []envBinding{
	{"EXTENSIONS", func(c *Config, v string) error {
		c.Extensions = splitList(v)
		return nil
	}},
	{"MAX_DEPTH", intField(func(c *Config) *int { return &c.MaxDepth })},
	{"CONCURRENCY", intField(func(c *Config) *int { return &c.Concurrency })},
	{"BACKEND", stringField(func(c *Config) *string { return &c.Backend })},
	{"ROOT", stringField(func(c *Config) *string { return &c.Root })},
	{"LOG_FILE", stringField(func(c *Config) *string { return &c.LogFile })},

	{"S3_BUCKET", stringField(func(c *Config) *string { return &c.S3.Bucket })},
	{"S3_PREFIX", stringField(func(c *Config) *string { return &c.S3.Prefix })},
	{"S3_REGION", stringField(func(c *Config) *string { return &c.S3.Region })},
	{"S3_ENDPOINT", stringField(func(c *Config) *string { return &c.S3.Endpoint })},
	{"S3_ACCESS_KEY_ID", stringField(func(c *Config) *string { return &c.S3.AccessKeyID })},
	{"S3_SECRET_ACCESS_KEY", stringField(func(c *Config) *string { return &c.S3.SecretAccessKey })},
	{"S3_PATH_STYLE", boolField(func(c *Config) *bool { return &c.S3.PathStyle })},

	{"PG_CONNECTION", stringField(func(c *Config) *string { return &c.Postgres.Connection })},
	{"PG_HOST", stringField(func(c *Config) *string { return &c.Postgres.Host })},
	{"PG_PORT", intField(func(c *Config) *int { return &c.Postgres.Port })},
	{"PG_USER", stringField(func(c *Config) *string { return &c.Postgres.Username })},
	{"PG_PASSWORD", stringField(func(c *Config) *string { return &c.Postgres.Password })},
	{"PG_DATABASE", stringField(func(c *Config) *string { return &c.Postgres.Database })},
	{"PG_SSLMODE", stringField(func(c *Config) *string { return &c.Postgres.SSLMode })},
	{"PG_TABLE", stringField(func(c *Config) *string { return &c.Postgres.Table })},
	{"PG_AUTH_METHOD", stringField(func(c *Config) *string { return &c.Postgres.AuthMethod })},
	{"PG_AWS_REGION", stringField(func(c *Config) *string { return &c.Postgres.AWSRegion })},
	{"PG_AZURE_TENANT_ID", stringField(func(c *Config) *string { return &c.Postgres.AzureTenantID })},
	{"PG_AZURE_CLIENT_ID", stringField(func(c *Config) *string { return &c.Postgres.AzureClientID })},
	{"PG_AZURE_CLIENT_SECRET", stringField(func(c *Config) *string { return &c.Postgres.AzureClientSecret })},
	{"PG_GOOGLE_INSTANCE", stringField(func(c *Config) *string { return &c.Postgres.GoogleInstance })},
}

// ApplyEnv overrides fields from FSEDIT_* variables found through lookup
// (normally os.LookupEnv). Unparsable values are reported together.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	for _, b := range envBindings {
		v, ok := lookup(EnvPrefix + b.name)
		if !ok {
			continue
		}
		if err := b.set(c, v); err != nil {
			errs = append(errs, fmt.Errorf("%s%s=%q: %w: %w", EnvPrefix, b.name, v, fsedit.ErrInvalidConfig, err))
		}
	}
	return errors.Join(errs...)
}

// Validate reports every problem found, joined into one error.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", fsedit.ErrInvalidConfig, fmt.Sprintf(format, args...)))
	}

	if len(c.ExtensionSet().List()) == 0 {
		invalid("at least one extension is required")
	}
	if c.MaxDepth < 0 {
		invalid("max_depth must not be negative, got %d", c.MaxDepth)
	}
	if c.Concurrency < 1 {
		invalid("concurrency must be at least 1, got %d", c.Concurrency)
	}

	switch backend := fsedit.Backend(c.Backend); backend {
	case fsedit.BackendS3:
		if c.S3.Bucket == "" {
			invalid("s3.bucket is required for the s3 backend")
		}
		if (c.S3.AccessKeyID == "") != (c.S3.SecretAccessKey == "") {
			invalid("s3.access_key_id and s3.secret_access_key must be set together")
		}
	case fsedit.BackendPostgres:
		if c.Postgres.Connection == "" && c.Postgres.Database == "" {
			invalid("postgres.connection or postgres.database is required for the postgres backend")
		}
		if c.Postgres.Port < 0 || c.Postgres.Port > 65535 {
			invalid("postgres.port out of range: %d", c.Postgres.Port)
		}
		if c.Postgres.Table == "" {
			invalid("postgres.table must not be empty")
		}
		if _, err := fsedit.ParseAuthMethod(c.Postgres.AuthMethod); err != nil {
			errs = append(errs, err)
		}
	default:
		if !backend.IsValid() {
			errs = append(errs, fmt.Errorf("backend %q: %w", c.Backend, fsedit.ErrUnsupportedBackend))
		}
	}

	return errors.Join(errs...)
}

// ExtensionSet returns the configured editable suffixes.
func (c *Config) ExtensionSet() tree.ExtensionSet {
	return tree.NewExtensionSet(c.Extensions...)
}

// ConnectionConfig converts the granular postgres settings.
// A connection string, when present, is resolved by the db package.
func (p PostgresConfig) ConnectionConfig() (*fsedit.ConnectionConfig, error) {
	method, err := fsedit.ParseAuthMethod(p.AuthMethod)
	if err != nil {
		return nil, err
	}
	return &fsedit.ConnectionConfig{
		Host:              p.Host,
		Port:              p.Port,
		Database:          p.Database,
		Username:          p.Username,
		Password:          p.Password,
		SSLMode:           p.SSLMode,
		AuthMethod:        method,
		AppName:           "fsedit",
		AWSRegion:         p.AWSRegion,
		AzureTenantID:     p.AzureTenantID,
		AzureClientID:     p.AzureClientID,
		AzureClientSecret: p.AzureClientSecret,
		GoogleInstance:    p.GoogleInstance,
	}, nil
}

const redacted = "********"

// Redacted returns a copy with secrets masked, for display.
func (c *Config) Redacted() *Config {
	out := *c
	out.Extensions = append([]string(nil), c.Extensions...)
	mask := func(s *string) {
		if *s != "" {
			*s = redacted
		}
	}
	mask(&out.S3.SecretAccessKey)
	mask(&out.Postgres.Password)
	mask(&out.Postgres.AzureClientSecret)
	if out.Postgres.Connection != "" {
		out.Postgres.Connection = redactConnection(out.Postgres.Connection)
	}
	return &out
}

// redactConnection masks the password of a postgres URI.
func redactConnection(conn string) string {
	scheme := strings.Index(conn, "://")
	at := strings.LastIndex(conn, "@")
	if scheme < 0 || at < scheme {
		return conn
	}
	userinfo := conn[scheme+3 : at]
	colon := strings.Index(userinfo, ":")
	if colon < 0 {
		return conn
	}
	return conn[:scheme+3] + userinfo[:colon+1] + redacted + conn[at:]
}

// Marshal renders c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
