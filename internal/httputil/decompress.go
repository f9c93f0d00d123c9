package httputil

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/go-resty/resty/v2"
)

// DecompressBrotli is a resty OnAfterResponse hook that decodes "br"
// bodies. Resty already handles gzip itself.
func DecompressBrotli(_ *resty.Client, resp *resty.Response) error {
	if !strings.EqualFold(resp.Header().Get("Content-Encoding"), "br") {
		return nil
	}
	body := resp.Body()
	if len(body) == 0 {
		return nil
	}
	decoded, err := io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
	if err != nil {
		return fmt.Errorf("brotli decode: %w", err)
	}
	resp.SetBody(decoded)
	resp.Header().Del("Content-Encoding")
	return nil
}
