package logging

import (
	"log/slog"
	"regexp"

	"github.com/m-mizutani/masq"
)

var bearerPattern = regexp.MustCompile(`(?i)^bearer\s+.+$`)

// DefaultRedactOptions returns the masq options applied to every handler.
func DefaultRedactOptions() []masq.Option {
	return []masq.Option{
		masq.WithFieldName("password"),
		masq.WithFieldName("token"),
		masq.WithFieldName("authorization"),
		masq.WithFieldName("cookie"),
		masq.WithFieldName("api_secret"),
		masq.WithFieldName("apiSecret"),
		masq.WithFieldName("APISecret"),
		masq.WithFieldName("redis_password"),

		masq.WithFieldPrefix("secret"),
		masq.WithFieldPrefix("private"),

		masq.WithRegex(bearerPattern),
	}
}

// NewReplaceAttr creates a slog ReplaceAttr func that redacts secrets.
// Extra options are appended to DefaultRedactOptions.
func NewReplaceAttr(opts ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	allOpts := append(DefaultRedactOptions(), opts...)
	return masq.New(allOpts...)
}
