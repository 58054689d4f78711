//go:build integration

package testdb

import (
	"fmt"
	"net/url"
)

// connectionError describes a failed connection without leaking the password.
func connectionError(err error, dbURL string) error {
	return fmt.Errorf("database connection failed: %w\nurl: %s (masked)\nci: %v\n"+
		"check that PostgreSQL is running and the credentials are correct",
		err, maskURL(dbURL), IsCI())
}

func maskURL(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "<unparseable>"
	}
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		}
	}
	return u.String()
}
