package finance

import (
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

type Kind int

const (
	// KindTransport is a failed request or a non-2xx reply with no
	// structured provider error.
	KindTransport Kind = iota + 1
	// KindProvider is the provider's own error envelope, on any status.
	KindProvider
	// KindAuthExpired is a 401 that outlived the download retries.
	KindAuthExpired
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindProvider:
		return "provider"
	case KindAuthExpired:
		return "auth_expired"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is returned for every upstream failure.
type Error struct {
	Kind        Kind
	StatusCode  int
	Code        string
	Description string
	Err         error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("finance %s error: %v", e.Kind, e.Err)
	case e.Code != "":
		return fmt.Sprintf("finance %s error (HTTP %d): %s: %s", e.Kind, e.StatusCode, e.Code, e.Description)
	}
	return fmt.Sprintf("finance %s error (HTTP %d): %s", e.Kind, e.StatusCode, e.Description)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err carries a finance Error of kind k.
func IsKind(err error, k Kind) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == k
}

// parseErrorEnvelope finds {"<root>":{"error":{"code","description"}}}
// under whatever root key the endpoint uses.
func parseErrorEnvelope(body []byte) (code, description string, ok bool) {
	if !gjson.ValidBytes(body) {
		return "", "", false
	}
	gjson.ParseBytes(body).ForEach(func(_, v gjson.Result) bool {
		e := v.Get("error")
		if !e.IsObject() {
			return true
		}
		code = e.Get("code").String()
		description = e.Get("description").String()
		ok = code != "" || description != ""
		return !ok
	})
	return code, description, ok
}

// responseError builds the error for a non-2xx reply.
func responseError(resp *resty.Response) *Error {
	body := resp.Body()
	if code, desc, ok := parseErrorEnvelope(body); ok {
		return &Error{Kind: KindProvider, StatusCode: resp.StatusCode(), Code: code, Description: desc}
	}
	return &Error{Kind: KindTransport, StatusCode: resp.StatusCode(), Description: string(body)}
}
