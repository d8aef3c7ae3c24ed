package fetcher

import (
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
)

const maxRedirects = 10

// browserHeaders mirror what a desktop browser sends on navigation.
// Accept-Encoding is left to the transport so bodies are decompressed.
func browserHeaders(userAgent string) map[string]string {
	return map[string]string{
		"User-Agent":                userAgent,
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.9",
		"DNT":                       "1",
		"Upgrade-Insecure-Requests": "1",
	}
}

// newHTTPClient builds a resty client whose transport retries 5xx and 429
// responses through go-retryablehttp. After the last attempt the final
// response is passed through unchanged so its status can be reported.
func newHTTPClient(opts Options) *resty.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.Retries
	retryClient.RetryWaitMin = opts.RetryWaitMin
	retryClient.RetryWaitMax = opts.RetryWaitMax
	retryClient.Logger = nil
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := resty.NewWithClient(retryClient.StandardClient())
	client.
		SetTimeout(opts.Timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects)).
		SetResponseBodyLimit(int(opts.MaxBodyBytes)).
		SetHeaders(browserHeaders(opts.UserAgent))
	return client
}

func elapsedSince(start time.Time) time.Duration {
	return time.Since(start).Round(time.Millisecond)
}
