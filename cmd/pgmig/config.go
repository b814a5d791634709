package main

import (
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.kirha.ai/pgmig"
)

const envPrefix = "PGMIG"

func addConfigFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "path to a YAML config file")
	flags.String("env-file", ".env", "dotenv file loaded into the environment when present")
	flags.String("host", "", "database host")
	flags.Int("port", 5432, "database port")
	flags.String("user", "", "database user")
	flags.String("password", "", "database password")
	flags.String("database", "", "database name")
	flags.String("sslmode", "", "libpq sslmode (disable, require, verify-full, ...)")
	flags.String("migrations-dir", "migrations", "directory holding the migration files")
	flags.String("migrations-table", pgmig.DefaultMigrationsTable, "bookkeeping table, optionally schema-qualified")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

// loadConfig resolves settings from flags, PGMIG_* environment variables and
// the optional config file, in that order of precedence.
func loadConfig(flags *pflag.FlagSet) (pgmig.Config, error) {
	envFile, err := flags.GetString("env-file")
	if err != nil {
		return pgmig.Config{}, err
	}
	if err := loadEnvFile(envFile); err != nil {
		return pgmig.Config{}, err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flags); err != nil {
		return pgmig.Config{}, errors.Wrap(err, "failed to bind flags")
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return pgmig.Config{}, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	logger, err := newLogger(v.GetString("log-level"))
	if err != nil {
		return pgmig.Config{}, err
	}

	return pgmig.Config{
		User:            v.GetString("user"),
		Host:            v.GetString("host"),
		Database:        v.GetString("database"),
		Password:        v.GetString("password"),
		Port:            v.GetInt("port"),
		SSLMode:         v.GetString("sslmode"),
		MigrationsDir:   v.GetString("migrations-dir"),
		MigrationsTable: v.GetString("migrations-table"),
		Logger:          pgmig.NewLogrusLogger(logger),
	}, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}

	// Variables already set in the environment win over the file.
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrapf(err, "failed to load env file %s", path)
	}
	return nil
}

func newLogger(level string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "invalid log level")
	}
	logger.SetLevel(parsed)

	return logger, nil
}
