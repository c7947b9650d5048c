// Package providers asks external bibliographic sources for the publication
// date of an ISBN.
//
// A Spec describes one HTTP source: how to build the request and how to read
// a successful response. Client turns a Spec into a Source by adding the retry
// policy (linear backoff, per-attempt timeouts that grow with each attempt),
// an optional per-source rate limit and structured logging. Chain walks a
// list of Sources in priority order and stops at the first date.
//
// Failures never escape as errors. Every lookup yields an Outcome whose Status
// tells the caller whether a date was found, the source answered without one,
// or the source could not be reached. Transport failures are retried; a
// payload that cannot be interpreted is not.
//
// Concrete sources live in subpackages (googlebooks, openlibrary, worldcat,
// websearch, estimate) and are assembled from configuration by the registry
// subpackage.
package providers
