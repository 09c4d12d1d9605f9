// Package server is the HTTP wire adapter: JSON in, JSON out, two error
// planes. Transport-shape errors (malformed request, unknown engine, no
// engines) map to 4xx/5xx with a code field; engine-plane failures are
// carried inside 200 responses.
package server
