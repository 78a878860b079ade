package cmd

import (
	"fmt"
	"io"
	"net/url"

	"github.com/surmigrate/surmigrate/internal/config"
)

// printConfigNotFound prints a helpful message when surmigrate.toml is not found
func printConfigNotFound(w io.Writer) {
	_, _ = fmt.Fprintf(w, `%s not found. Run "surmigrate init", or create one that looks like:

[environments.local]
backend = "surrealdb"
url = "http://localhost:8000"
namespace = "app"
database = "app"
`, config.FileName)
}

// displayURL hides the password in a connection url.
func displayURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	if u.Query().Has("authToken") {
		q := u.Query()
		q.Set("authToken", "xxxxx")
		u.RawQuery = q.Encode()
	}
	return u.Redacted()
}
