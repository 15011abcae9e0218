package ports

import "net/http"

// HTTPClient sends requests to destination databases.
// *http.Client satisfies it; tests pass an httptest server's client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
