package config

import (
	"errors"
	"flag"
	"io/fs"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "QSURVEY_"

type Config struct {
	Addr        string
	DBUrl       string
	TokenSecret string
	TokenTTL    time.Duration
	// RedisUrl selects the Redis session store; empty keeps sessions in memory.
	RedisUrl string
	DraftTTL time.Duration
	// AdminUser and AdminPassword, when both set, are ensured at startup.
	AdminUser     string
	AdminPassword string
	Debug         bool
}

// ParseFlags reads the command line. Defaults come from the environment,
// after loading .env when present.
func ParseFlags() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}
	return Parse(os.Args[1:], os.Getenv)
}

func Parse(args []string, getenv func(string) string) (cfg Config, err error) {
	env := func(name, def string) string {
		if v := getenv(envPrefix + name); v != "" {
			return v
		}
		return def
	}
	envUint := func(name string, def uint) uint {
		if v, err := strconv.ParseUint(getenv(envPrefix+name), 10, 32); err == nil {
			return uint(v)
		}
		return def
	}
	envBool := func(name string) bool {
		v, _ := strconv.ParseBool(getenv(envPrefix + name))
		return v
	}

	flags := flag.NewFlagSet("alumni-survey", flag.ContinueOnError)
	var host string
	flags.StringVar(&host, "host", env("HOST", "0.0.0.0"), "listen host name")
	var port uint
	flags.UintVar(&port, "port", envUint("PORT", 80), "listen port number")
	flags.StringVar(&cfg.DBUrl, "db-url", env("DB_URL", "qsurvey.sqlite"), "path to SQLite3 DB file")
	flags.StringVar(&cfg.TokenSecret, "token-secret", env("TOKEN_SECRET", ""), "secret key for token encryption and decryption")
	var ttl uint
	flags.UintVar(&ttl, "token-ttl", envUint("TOKEN_TTL", 120), "token TTL in seconds")
	flags.StringVar(&cfg.RedisUrl, "redis-url", env("REDIS_URL", ""), "redis://host:port/db for shared draft sessions (default in memory)")
	var draftTTL uint
	flags.UintVar(&draftTTL, "draft-ttl", envUint("DRAFT_TTL", 3600), "seconds of inactivity before a draft is dropped")
	flags.StringVar(&cfg.AdminUser, "admin-user", env("ADMIN_USER", ""), "admin user to create or reset at startup")
	flags.StringVar(&cfg.AdminPassword, "admin-password", env("ADMIN_PASSWORD", ""), "password of -admin-user")
	flags.BoolVar(&cfg.Debug, "debug", envBool("DEBUG"), "log at DEBUG level")
	if err = flags.Parse(args); err != nil {
		return
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second
	cfg.DraftTTL = time.Duration(draftTTL) * time.Second

	switch {
	case cfg.TokenSecret == "":
		err = errors.New("missing parameter -token-secret")
	case cfg.DraftTTL <= 0:
		err = errors.New("invalid parameter -draft-ttl: must be at least 1 second")
	}

	return
}

var reAnyHost = regexp.MustCompile(`^0\.0\.0\.0`)

func (cfg Config) Url() string {
	return "http://" + reAnyHost.ReplaceAllString(cfg.Addr, "localhost")
}
