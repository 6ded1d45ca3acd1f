// Package fetcher performs the single outbound request behind a collection.
//
// New(config.Source) builds the *http.Client once (auth round-tripper and TLS
// options) and binds it to the configured endpoint. Fetch issues one GET and
// resolves to the response's JSON array, each element passed through verbatim
// as a types.Record. Every failure (transport, non-2xx status, malformed or
// non-array body) is a *FetchError. There are no retries, no caching, and no
// timeout unless one is configured.
package fetcher
