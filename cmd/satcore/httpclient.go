package main

import (
	"fmt"
	"io"
	"net/http"
)

// httpGet fetches url and returns the body reader on a 200, closing the
// response itself on any other status.
func httpGet(url string) (io.ReadCloser, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, fmt.Errorf("satcore status: unexpected response %s", resp.Status)
	}
	return resp.Body, nil
}
