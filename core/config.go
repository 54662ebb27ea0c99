package core

import (
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type (
	Config struct {
		Debug    bool
		TestMode bool
		Env      string // DEV (local; default), TEST, QA, PROD
		Build    string
		AppName  string

		SecretKey     string // signs session tokens
		AdminSecret   string // gates edit, remove & reactivate
		OwnerMobile   string // fallback when the settings store has no "owner_mobile"
		OwnerPassword string // fallback when the settings store has no "owner_password"
		RollbarToken  string

		Server   ServerConfig
		Database DatabaseConfig
	}

	ServerConfig struct {
		Address            string
		Host               string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Store         string // postgres | memory
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Library Work")
	v.SetDefault("secretKey", "k3@9v!zq-lib-work-dev-only-0x1f7e")
	v.SetDefault("adminSecret", "Avinash")
	v.SetDefault("ownerMobile", "6201530654")
	v.SetDefault("ownerPassword", "Avinash")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 12*time.Hour)

	v.SetDefault("database.store", StorePostgres)
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "libwork")
	v.SetDefault("database.user", "libwork")
	v.SetDefault("database.password", "libwork")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", true)
}

// NewConfig reads the configuration from defaults, `config/.env.<env>` (if it exists)
// and environment variables prefixed with the env name, e.g. DEV_DATABASE_HOST.
func NewConfig() *Config {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	if wd, err := os.Getwd(); err == nil {
		dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
		}
	}
	v.AutomaticEnv()

	return &Config{
		Debug:         v.GetBool("debug"),
		TestMode:      v.GetBool("testMode"),
		Env:           env,
		Build:         v.GetString("build"),
		AppName:       v.GetString("appName"),
		SecretKey:     v.GetString("secretKey"),
		AdminSecret:   v.GetString("adminSecret"),
		OwnerMobile:   v.GetString("ownerMobile"),
		OwnerPassword: v.GetString("ownerPassword"),
		RollbarToken:  v.GetString("rollbarToken"),
		Server: ServerConfig{
			Address:            v.GetString("server.address"),
			Host:               v.GetString("server.host"),
			DebugHost:          v.GetString("server.debugHost"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
		},
		Database: DatabaseConfig{
			Store:         strings.ToLower(v.GetString("database.store")),
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
	}
}

// NewTestConfig returns a Config suitable for tests: in-memory store, quiet logger.
func NewTestConfig() *Config {
	v := viper.New()
	setDefaults(v)
	conf := &Config{
		Debug:         false,
		TestMode:      true,
		Env:           "TEST",
		Build:         "test",
		AppName:       v.GetString("appName"),
		SecretKey:     "secret",
		AdminSecret:   v.GetString("adminSecret"),
		OwnerMobile:   v.GetString("ownerMobile"),
		OwnerPassword: v.GetString("ownerPassword"),
		Server: ServerConfig{
			Address:            "",
			Host:               "localhost",
			ShutdownTimeout:    time.Second,
			JWTExpirationDelta: 10 * time.Minute,
		},
	}
	conf.Database.Store = StoreMemory
	return conf
}

func (c *Config) String() string {
	return fmt.Sprintf("%s[%s] build=%s store=%s", c.AppName, c.Env, c.Build, c.Database.Store)
}
