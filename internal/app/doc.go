// Package app bootstraps the CAS service: configuration, logging, the
// engine registry and the HTTP server, in two phases (New then Run).
package app
