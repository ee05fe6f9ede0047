package gateway

import (
	"net/url"
	"strings"
)

type Param struct {
	Key   string
	Value string
}

// Query is an ordered set of query parameters. The ETA endpoint signs the encoded
// query string, so parameters have to be encoded in the order they were added.
type Query []Param

func (q Query) Add(key string, value string) Query {
	return append(q, Param{Key: key, Value: value})
}

func (q Query) Get(key string) string {
	for _, param := range q {
		if param.Key == key {
			return param.Value
		}
	}

	return ""
}

func (q Query) Encode() string {
	var encoded strings.Builder
	for i, param := range q {
		if i > 0 {
			encoded.WriteByte('&')
		}
		encoded.WriteString(url.QueryEscape(param.Key))
		encoded.WriteByte('=')
		encoded.WriteString(url.QueryEscape(param.Value))
	}

	return encoded.String()
}
