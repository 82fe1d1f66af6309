package geocode

import (
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/sells-group/areascore/internal/model"
)

func newTestLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}

func locOf(lat, lng float64) model.Location {
	return model.Location{Lat: lat, Lng: lng}
}

// newRewriteClient creates an HTTP client that redirects requests matching
// the target prefix to a test server.
func newRewriteClient(testServerURL, targetPrefix string) *http.Client {
	return &http.Client{
		Transport: &rewriteTransport{
			base:         http.DefaultTransport,
			testServer:   testServerURL,
			targetPrefix: targetPrefix,
		},
	}
}

type rewriteTransport struct {
	base         http.RoundTripper
	testServer   string
	targetPrefix string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	origURL := req.URL.String()
	if strings.HasPrefix(origURL, t.targetPrefix) {
		newReq := req.Clone(req.Context())
		parsed, err := req.URL.Parse(t.testServer + origURL[len(t.targetPrefix):])
		if err != nil {
			return nil, err
		}
		newReq.URL = parsed
		newReq.Host = parsed.Host
		return t.base.RoundTrip(newReq)
	}
	return t.base.RoundTrip(req)
}
