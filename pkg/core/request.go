package core

import (
	"fmt"
	"maps"
	"net/url"
	"sort"
	"strings"
)

// Params holds request parameters. Values are formatted with fmt for form and
// query encoding and kept as-is for JSON bodies.
type Params map[string]any

// Values converts the params into url.Values, dropping nil entries. Slices of
// strings are joined with commas, the way Kraken expects lists of pairs and ids.
func (p Params) Values() url.Values {
	values := make(url.Values, len(p))
	for k, v := range p {
		switch tv := v.(type) {
		case nil:
			continue
		case string:
			values.Set(k, tv)
		case []string:
			values.Set(k, strings.Join(tv, ","))
		case fmt.Stringer:
			values.Set(k, tv.String())
		default:
			values.Set(k, fmt.Sprintf("%v", tv))
		}
	}
	return values
}

// Keys returns the parameter names in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Encoding selects how a private request body is serialised.
type Encoding int

const (
	EncodingForm Encoding = iota
	EncodingJSON
)

// Request describes one REST call: where it goes, how it is encoded and
// which rate limit bucket it is charged against.
type Request struct {
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	Params      Params            `json:"params,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Encoding    Encoding          `json:"encoding"`
	Category    EndpointCategory  `json:"category"`
	Cost        int               `json:"cost"`
	LimitKey    string            `json:"limit_key,omitempty"`
	RequireAuth bool              `json:"require_auth"`
}

// NewPublicRequest creates an unsigned GET request.
func NewPublicRequest(path string) *Request {
	return &Request{
		Method:   "GET",
		Path:     path,
		Params:   make(Params),
		Headers:  make(map[string]string),
		Category: CategoryPublic,
		Cost:     1,
	}
}

// NewPrivateRequest creates a signed POST request charged at the standard private cost.
func NewPrivateRequest(path string) *Request {
	return &Request{
		Method:      "POST",
		Path:        path,
		Params:      make(Params),
		Headers:     make(map[string]string),
		Encoding:    EncodingForm,
		Category:    CategoryPrivate,
		Cost:        100,
		RequireAuth: true,
	}
}

func (r *Request) SetParam(key string, value any) *Request {
	if r.Params == nil {
		r.Params = make(Params)
	}
	r.Params[key] = value
	return r
}

// SetOptional sets the param only when value is not the zero value of its type.
func (r *Request) SetOptional(key string, value any) *Request {
	switch v := value.(type) {
	case nil:
		return r
	case string:
		if v == "" {
			return r
		}
	case []string:
		if len(v) == 0 {
			return r
		}
	case int:
		if v == 0 {
			return r
		}
	case int64:
		if v == 0 {
			return r
		}
	case bool:
		if !v {
			return r
		}
	case *Decimal:
		if v == nil {
			return r
		}
	}
	return r.SetParam(key, value)
}

func (r *Request) SetParams(params Params) *Request {
	if r.Params == nil {
		r.Params = make(Params)
	}
	maps.Copy(r.Params, params)
	return r
}

func (r *Request) SetHeader(key, value string) *Request {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return r
}

func (r *Request) SetEncoding(encoding Encoding) *Request {
	r.Encoding = encoding
	return r
}

// SetLimit charges the request against category with the given cost.
func (r *Request) SetLimit(category EndpointCategory, cost int) *Request {
	r.Category = category
	r.Cost = cost
	return r
}

// SetLimitKey selects the per-key bucket for CategoryPublicPair requests.
func (r *Request) SetLimitKey(key string) *Request {
	r.Category = CategoryPublicPair
	r.LimitKey = key
	return r
}

// EncodeForm returns the form body Kraken signs: nonce first, then the params in key order.
func (r *Request) EncodeForm(nonce uint64) string {
	var b strings.Builder
	b.WriteString("nonce=")
	fmt.Fprintf(&b, "%d", nonce)
	if encoded := r.Params.Values().Encode(); encoded != "" {
		b.WriteByte('&')
		b.WriteString(encoded)
	}
	return b.String()
}
