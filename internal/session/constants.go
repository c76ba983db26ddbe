// Package session persists the admin AuthSession between requests.
//
// It is shared by the handler and middleware packages.
package session

import "time"

const (
	// CookieName is the name of the cookie that stores the signed session.
	// It matches the storage key the admin panel has always used.
	CookieName = "blog-admin-auth"

	// CookiePath ensures the cookie is sent with all requests.
	CookiePath = "/"

	// DefaultTTL is how long a login lasts (7 days).
	DefaultTTL = 7 * 24 * time.Hour
)
