// Package shopifytest provides helpers for pointing the Shopify client at an
// httptest server and for signing requests the way Shopify does.
package shopifytest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"net/url"
)

type rewriteTransport struct {
	target *url.URL
	base   http.RoundTripper
}

func (t rewriteTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.URL.Scheme = t.target.Scheme
	r.URL.Host = t.target.Host
	return t.base.RoundTrip(r)
}

// RewriteClient returns an HTTP client that sends every request to serverURL,
// keeping the original path and query. Shop hosts such as
// xg-dev.myshopify.com therefore resolve to the test server.
func RewriteClient(serverURL string) *http.Client {
	target, err := url.Parse(serverURL)
	if err != nil {
		panic(err)
	}
	return &http.Client{Transport: rewriteTransport{target: target, base: http.DefaultTransport}}
}

// SignQuery adds the hmac parameter Shopify attaches to an OAuth redirect.
func SignQuery(secret string, query url.Values) url.Values {
	signed := url.Values{}
	for k, v := range query {
		if k == "hmac" || k == "signature" {
			continue
		}
		signed[k] = append([]string(nil), v...)
	}
	message, err := url.QueryUnescape(signed.Encode())
	if err != nil {
		panic(err)
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	signed.Set("hmac", hex.EncodeToString(mac.Sum(nil)))
	return signed
}

// SignWebhook returns the X-Shopify-Hmac-Sha256 header value for body.
func SignWebhook(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
