package providerhttp

import (
	"io"
	"net/http"
)

// WriteResponse copies a provider response back onto the native response
// writer: status, headers and body. Set-Cookie values are added one by one —
// multiple session cookies must survive as separate headers, collapsing them
// breaks cookie parsing in every browser.
func WriteResponse(w http.ResponseWriter, resp *http.Response) error {
	if resp == nil {
		w.WriteHeader(http.StatusBadGateway)
		return nil
	}

	for name, values := range resp.Header {
		if http.CanonicalHeaderKey(name) == "Set-Cookie" {
			for _, v := range values {
				w.Header().Add("Set-Cookie", v)
			}
			continue
		}
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}

	w.WriteHeader(resp.StatusCode)

	if resp.Body == nil {
		return nil
	}
	defer resp.Body.Close()

	_, err := io.Copy(w, resp.Body)
	return err
}
