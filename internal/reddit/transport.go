package reddit

import (
	"net/http"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
)

// tlsTransport sends requests through tls-client with a desktop Chrome
// TLS fingerprint. It never follows redirects itself: like any
// http.RoundTripper it returns the 3xx and leaves redirect policy to the
// wrapping http.Client, so the std and tls paths redirect the same way.
type tlsTransport struct {
	client tls_client.HttpClient
}

// NewTLSTransport builds the tls round tripper. Extra options are applied
// after the defaults.
func NewTLSTransport(timeout time.Duration, opts ...tls_client.HttpClientOption) (http.RoundTripper, error) {
	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(int(timeout.Seconds())),
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithNotFollowRedirects(),
	}
	options = append(options, opts...)

	client, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
	if err != nil {
		return nil, err
	}
	return &tlsTransport{client: client}, nil
}

func (t *tlsTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	freq, err := fhttp.NewRequestWithContext(req.Context(), req.Method, req.URL.String(), req.Body)
	if err != nil {
		return nil, err
	}
	// net/http hands over a wrapped body fhttp cannot size on its own.
	freq.ContentLength = req.ContentLength
	freq.GetBody = req.GetBody
	for k, v := range req.Header {
		freq.Header[k] = v
	}

	fresp, err := t.client.Do(freq)
	if err != nil {
		return nil, err
	}

	return &http.Response{
		Status:        fresp.Status,
		StatusCode:    fresp.StatusCode,
		Proto:         fresp.Proto,
		ProtoMajor:    fresp.ProtoMajor,
		ProtoMinor:    fresp.ProtoMinor,
		Header:        http.Header(fresp.Header),
		Body:          fresp.Body,
		ContentLength: fresp.ContentLength,
		Request:       req,
	}, nil
}
