package config

import (
	"fmt"
	"net/url"
)

// DBConfig locates the postgres database. DB_URL wins over the individual fields,
// no host and no url means the daemon keeps its state in memory.
type DBConfig struct {
	DBURL        string `env:"DB_URL"`
	DBUser       string `env:"DB_USER"`
	DBPassword   string `env:"DB_PASSWORD"`
	DBName       string `env:"DB_NAME,default=moverd"`
	DBHost       string `env:"DB_HOST"`
	DBReaderHost string `env:"DB_READER_HOST"`
	DBSSLMode    string `env:"DB_SSLMODE,default=disable"`
}

func (c DBConfig) Enabled() bool {
	return c.DBURL != "" || c.DBHost != ""
}

func (c DBConfig) connString(host string) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     host,
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", url.QueryEscape(c.DBSSLMode)),
	}
	return u.String()
}

func (c DBConfig) URL() string {
	if c.DBURL != "" {
		return c.DBURL
	}
	return c.connString(c.DBHost)
}

// ReaderURL points to the read replica, the primary when there is none
func (c DBConfig) ReaderURL() string {
	if c.DBURL != "" || c.DBReaderHost == "" {
		return c.URL()
	}
	return c.connString(c.DBReaderHost)
}
