package db

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/vvka-141/fsedit/internal/config"
	"github.com/vvka-141/fsedit/pkg/fsedit"
)

// FromConfig resolves the connection parameters of the postgres section of
// fsedit.yaml.
//
// The `connection` value, in URI or key=value;key=value form, provides the
// base. Fields set next to it override it, so `connection` plus `database`
// targets another database on the same server. Without a connection string
// the fields are used as they are, with localhost:5432/postgres and
// sslmode=prefer filling the gaps. The application name is always fsedit
// unless the connection string names one.
func FromConfig(pc config.PostgresConfig) (*fsedit.ConnectionConfig, error) {
	explicit, err := pc.ConnectionConfig()
	if err != nil {
		return nil, err
	}

	c := baseConnection()
	if pc.Connection != "" {
		if err := parseInto(c, pc.Connection); err != nil {
			return nil, err
		}
	}

	for _, f := range []struct {
		dst *string
		v   string
	}{
		{&c.Host, explicit.Host},
		{&c.Database, explicit.Database},
		{&c.Username, explicit.Username},
		{&c.Password, explicit.Password},
		{&c.SSLMode, explicit.SSLMode},
		{&c.AWSRegion, explicit.AWSRegion},
		{&c.AzureTenantID, explicit.AzureTenantID},
		{&c.AzureClientID, explicit.AzureClientID},
		{&c.AzureClientSecret, explicit.AzureClientSecret},
		{&c.GoogleInstance, explicit.GoogleInstance},
	} {
		if f.v != "" {
			*f.dst = f.v
		}
	}
	if c.AppName == "" {
		c.AppName = explicit.AppName
	}

	// 5432 is also the config default, so it only wins without a connection string.
	if explicit.Port != 0 && (pc.Connection == "" || explicit.Port != 5432) {
		c.Port = explicit.Port
	}
	if pc.AuthMethod != "" {
		c.AuthMethod = explicit.AuthMethod
	}
	return c, nil
}

func baseConnection() *fsedit.ConnectionConfig {
	return &fsedit.ConnectionConfig{
		Host:             "localhost",
		Port:             5432,
		Database:         "postgres",
		SSLMode:          "prefer",
		AuthMethod:       fsedit.AuthMethodStandard,
		AdditionalParams: make(map[string]string),
	}
}

// parseInto applies a connection string on top of c.
func parseInto(c *fsedit.ConnectionConfig, s string) error {
	switch {
	case strings.HasPrefix(s, "postgresql://"), strings.HasPrefix(s, "postgres://"):
		return parseURI(c, s)
	case strings.Contains(s, "=") && strings.Contains(s, ";"):
		return parseKeyValues(c, s)
	default:
		return fmt.Errorf("connection must be a postgres:// URI or Key=Value; pairs: %w", fsedit.ErrInvalidConfig)
	}
}

// connKeys maps the lowercased keys accepted in either format to the field
// they set. Anything else is passed to the driver unchanged.
var connKeys = map[string]func(c *fsedit.ConnectionConfig, v string) error{
	"host":             text(func(c *fsedit.ConnectionConfig) *string { return &c.Host }),
	"server":           text(func(c *fsedit.ConnectionConfig) *string { return &c.Host }),
	"port":             setPort,
	"database":         text(func(c *fsedit.ConnectionConfig) *string { return &c.Database }),
	"dbname":           text(func(c *fsedit.ConnectionConfig) *string { return &c.Database }),
	"initial catalog":  text(func(c *fsedit.ConnectionConfig) *string { return &c.Database }),
	"username":         text(func(c *fsedit.ConnectionConfig) *string { return &c.Username }),
	"user":             text(func(c *fsedit.ConnectionConfig) *string { return &c.Username }),
	"user id":          text(func(c *fsedit.ConnectionConfig) *string { return &c.Username }),
	"password":         text(func(c *fsedit.ConnectionConfig) *string { return &c.Password }),
	"pwd":              text(func(c *fsedit.ConnectionConfig) *string { return &c.Password }),
	"sslmode":          text(func(c *fsedit.ConnectionConfig) *string { return &c.SSLMode }),
	"ssl mode":         text(func(c *fsedit.ConnectionConfig) *string { return &c.SSLMode }),
	"application_name": text(func(c *fsedit.ConnectionConfig) *string { return &c.AppName }),
	"application name": text(func(c *fsedit.ConnectionConfig) *string { return &c.AppName }),
	"timeout":          setConnectTimeout,
	"connect timeout":  setConnectTimeout,
	"connect_timeout":  setConnectTimeout,
}

func text(field func(c *fsedit.ConnectionConfig) *string) func(*fsedit.ConnectionConfig, string) error {
	return func(c *fsedit.ConnectionConfig, v string) error {
		*field(c) = v
		return nil
	}
}

func setPort(c *fsedit.ConnectionConfig, v string) error {
	port, err := strconv.Atoi(v)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port %q: %w", v, fsedit.ErrInvalidConfig)
	}
	c.Port = port
	return nil
}

func setConnectTimeout(c *fsedit.ConnectionConfig, v string) error {
	if _, err := strconv.Atoi(v); err != nil {
		return fmt.Errorf("invalid connect timeout %q: %w", v, fsedit.ErrInvalidConfig)
	}
	c.AdditionalParams["connect_timeout"] = v
	return nil
}

func setParam(c *fsedit.ConnectionConfig, key, value string) error {
	if set, ok := connKeys[strings.ToLower(key)]; ok {
		return set(c, value)
	}
	c.AdditionalParams[key] = value
	return nil
}

// parseURI reads postgresql://[user[:password]@][host][:port][/dbname][?k=v&...].
func parseURI(c *fsedit.ConnectionConfig, s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid postgres URI: %w: %w", fsedit.ErrInvalidConfig, err)
	}

	if h := u.Hostname(); h != "" {
		c.Host = h
	}
	if p := u.Port(); p != "" {
		if err := setPort(c, p); err != nil {
			return err
		}
	}
	if u.User != nil {
		c.Username = u.User.Username()
		if pass, ok := u.User.Password(); ok {
			c.Password = pass
		}
	}
	if db := strings.TrimPrefix(u.Path, "/"); db != "" {
		c.Database = db
	}

	for key, values := range u.Query() {
		if len(values) == 0 {
			continue
		}
		if err := setParam(c, key, values[0]); err != nil {
			return err
		}
	}
	return nil
}

// parseKeyValues reads Host=h;Port=5432;Database=d;... Parts without '=' are ignored.
func parseKeyValues(c *fsedit.ConnectionConfig, s string) error {
	for part := range strings.SplitSeq(s, ";") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if key == "" {
			continue
		}
		if err := setParam(c, key, value); err != nil {
			return err
		}
	}
	return nil
}

// connURI renders c as the URI handed to pgxpool.ParseConfig.
func connURI(c *fsedit.ConnectionConfig) string {
	u := &url.URL{
		Scheme: "postgresql",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Database,
	}
	switch {
	case c.Username != "" && c.Password != "":
		u.User = url.UserPassword(c.Username, c.Password)
	case c.Username != "":
		u.User = url.User(c.Username)
	}

	q := url.Values{}
	for k, v := range c.AdditionalParams {
		q.Set(k, v)
	}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	if c.AppName != "" {
		q.Set("application_name", c.AppName)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
