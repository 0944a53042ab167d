// Package mal provides a client for the MyAnimeList v2 REST API.
//
// The client covers the read-only catalog surface used by the bot: free-text
// search, lookups by id or name, ranking lists, seasonal listings and a
// weekday airing schedule derived from the current season.
//
// # Architecture
//
// Every read goes through the same pipeline:
//
//   - Cache: responses are stored as raw bodies in a cache.Store (memory or redis)
//   - Singleflight: concurrent identical requests share one upstream call
//   - Rate limiter: a token bucket keeps the client under the upstream quota
//   - Circuit breaker: repeated transient failures short-circuit further calls
//   - Decoding: JSON is decoded into Record values, accepting items with or without a "node" envelope
//
// Only successful responses are cached. A call abandoned through its context
// writes nothing.
//
// # Usage
//
//	logger := zerolog.New(os.Stdout)
//	client, err := mal.NewClient(
//		os.Getenv("MAL_CLIENT_ID"),
//		logger,
//		mal.WithCacheTTL(10*time.Minute),
//		mal.WithMaxLimit(15),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	results, err := client.Search(ctx, mal.KindAnime, "naruto", 15, 0)
//
// # Error Handling
//
// Failures are returned as *APIError values classified by ErrorKind. Each kind
// matches a sentinel through errors.Is:
//
//   - ErrMissingClientID: no credential configured, no request is made
//   - ErrUnauthorized: the credential was rejected; the client fails fast until SetClientID is called
//   - ErrRateLimited: the upstream returned 429; the client never retries on its own
//   - ErrNotFound: the entity does not exist; list operations return an empty slice instead
//   - ErrBadRequest: the upstream rejected parameters, Detail carries its message
//   - ErrTransient: timeouts, connection errors, gateway failures and an open breaker
//   - ErrUnexpected: anything else, with the status code and a body excerpt
//
//	if errors.Is(err, mal.ErrRateLimited) {
//		// ask the user to try again shortly
//	}
package mal
