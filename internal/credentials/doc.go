// Package credentials resolves http(s) git credentials from environment variables.
package credentials
