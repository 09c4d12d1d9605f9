// Package dispatcher owns the engine registry: default-engine selection,
// engine resolution for validate requests, bounded parallel validate
// fan-out with order-preserving results, and compute routing.
package dispatcher
