// Package isbn validates and canonicalizes ISBN-10 and ISBN-13 identifiers.
//
// Every identifier that enters the resolver passes through Normalize, which
// strips separators, folds full-width digits, checks the checksum, and
// returns the ISBN-13 form used as the sole cache key. The functions are pure
// and safe to call from anywhere.
package isbn
