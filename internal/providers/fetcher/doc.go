// Package fetcher retrieves source pages for validation and repair.
//
// Plain pages go through resty on a go-retryablehttp transport (5xx and 429
// are retried with backoff). Pages that need scripts are rendered in
// headless Chrome via go-rod with stealth patches. Successful responses are
// cached on disk, gzip-compressed and keyed by the SHA-256 of the URL.
//
// Example Usage:
//
//	f := fetcher.New(fetcher.Options{CacheDir: ".cache"}, logger, metrics)
//	defer f.Close()
//	res := f.Fetch(ctx, "https://example.com/novel/1", false)
//	if !res.OK() {
//		log.Println(res.Error)
//	}
package fetcher
