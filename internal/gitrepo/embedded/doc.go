// Package embedded implements the repository operations of the patch workflow
// in process with go-git, so no git binary is required. Credentials are passed
// as HTTP basic auth and never written into the clone's remote configuration.
package embedded
