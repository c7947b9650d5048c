// Package datecache persists the mapping from canonical ISBN-13 to resolved
// publication date.
//
// # Storage
//
// The cache is a single UTF-8 JSON object with two-space indentation, for
// example:
//
//	{
//	  "9780306406157": "2004",
//	  "9788408123453": "15-03-20"
//	}
//
// The file is read once when the cache is opened. Writes happen only on
// Flush, which replaces the file atomically while holding an advisory lock on
// "<path>.lock". A missing file starts an empty cache; an unreadable file is
// logged and also starts empty, so a damaged cache never blocks a run.
//
// An entry, once written, is authoritative: the resolver never queries a
// provider for an identifier that is already cached. Use the CLI to inspect
// or correct entries:
//
//	isbndate cache list
//	isbndate cache add 2019 978-84-08-12345-3
//	isbndate cache remove 9788408123453
package datecache
