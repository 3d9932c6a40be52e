package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/SscSPs/fx_expense_reconciler/internal/apperrors"
	"github.com/SscSPs/fx_expense_reconciler/internal/core/domain"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultPath is the configuration file read by the binary.
const DefaultPath = "etl.ini"

// section is the ini section holding every option.
const section = "config"

// Config holds application configuration.
type Config struct {
	StartDate domain.Date `validate:"-"`
	URL       string      `validate:"required,url"`
	Series    string      `validate:"required"`

	LedgerPath   string `validate:"required"`
	Sheet        string `validate:"required"`
	AmountColumn string `validate:"required"`
	HomeCurrency string `validate:"required,len=3,uppercase"`

	Server         string `validate:"required"`
	Port           int    `validate:"min=1,max=65535"`
	Database       string `validate:"required"`
	User           string
	Password       string
	SSLMode        string `validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MigrationsPath string `validate:"required"`

	HTTPTimeout time.Duration `validate:"gt=0"`
}

// LoadConfig loads configuration from the ini file at path.
// Environment variables override file values, e.g. ETL_CONFIG_STARTDATE. A .env file is
// loaded first if present.
func LoadConfig(path string) (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ETL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(key("series"), "FXUSDCAD")
	v.SetDefault(key("ledgerPath"), "resources/Expenses.xlsx")
	v.SetDefault(key("sheet"), "Github")
	v.SetDefault(key("amountColumn"), "USD")
	v.SetDefault(key("homeCurrency"), "CAD")
	v.SetDefault(key("port"), 5432)
	v.SetDefault(key("sslmode"), "disable")
	v.SetDefault(key("migrationsPath"), "file://migrations")
	v.SetDefault(key("httpTimeout"), "30s")

	values, err := readIni(path)
	if err != nil {
		return nil, fmt.Errorf("%w: could not read configuration file %s: %w", apperrors.ErrConfig, path, err)
	}
	if err := v.MergeConfigMap(values); err != nil {
		return nil, fmt.Errorf("%w: could not merge configuration file %s: %w", apperrors.ErrConfig, path, err)
	}

	cfg := &Config{
		URL:            v.GetString(key("url")),
		Series:         v.GetString(key("series")),
		LedgerPath:     v.GetString(key("ledgerPath")),
		Sheet:          v.GetString(key("sheet")),
		AmountColumn:   v.GetString(key("amountColumn")),
		HomeCurrency:   strings.ToUpper(v.GetString(key("homeCurrency"))),
		Server:         v.GetString(key("server")),
		Port:           v.GetInt(key("port")),
		Database:       v.GetString(key("database")),
		User:           v.GetString(key("user")),
		Password:       v.GetString(key("password")),
		SSLMode:        v.GetString(key("sslmode")),
		MigrationsPath: v.GetString(key("migrationsPath")),
	}

	startDate := v.GetString(key("startDate"))
	if startDate == "" {
		return nil, fmt.Errorf("%w: option startDate is missing", apperrors.ErrConfig)
	}
	date, err := domain.ParseDate(startDate)
	if err != nil {
		return nil, fmt.Errorf("%w: option startDate: %w", apperrors.ErrConfig, err)
	}
	cfg.StartDate = date

	timeoutStr := v.GetString(key("httpTimeout"))
	cfg.HTTPTimeout, err = time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("%w: option httpTimeout %q: %w", apperrors.ErrConfig, timeoutStr, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.User == "" {
		slog.Warn("No database user configured, relying on PGUSER or the connection default.")
	}
	return cfg, nil
}

// Validate checks every option and reports the offending ones.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", apperrors.ErrConfig, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("option %s failed %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", apperrors.ErrConfig, strings.Join(msgs, "; "))
}

// DatabaseURL builds the postgres connection URL for the destination database.
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(c.Server, fmt.Sprint(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	switch {
	case c.User != "" && c.Password != "":
		u.User = url.UserPassword(c.User, c.Password)
	case c.User != "":
		u.User = url.User(c.User)
	}
	return u.String()
}

func key(name string) string {
	return section + "." + strings.ToLower(name)
}
