package apix

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"
)

// DigestPrefix marks the hash algorithm of the d parameter
const DigestPrefix = "SHA-256:"

// TimestampLayout is the format of the t parameter
const TimestampLayout = "20060102150405"

// Parameter names
const (
	ParamSoftware     = "soft"
	ParamVersion      = "ver"
	ParamTransferID   = "TraID"
	ParamTimestamp    = "t"
	ParamDigest       = "d"
	ParamMarkReceived = "markreceived"
	ParamStorageID    = "SID"
)

// ComputeDigest joins values and secret with "+" and returns the prefixed hex SHA-256
func ComputeDigest(values []string, secret string) string {
	joined := strings.Join(append(append([]string{}, values...), secret), "+")
	sum := sha256.Sum256([]byte(joined))
	return DigestPrefix + hex.EncodeToString(sum[:])
}

// Param is a single query parameter
type Param struct {
	Name  string
	Value string
}

// Params is an ordered parameter list. The digest covers values in this order.
type Params []Param

// Values returns parameter values in declared order
func (p Params) Values() []string {
	values := make([]string, 0, len(p))
	for _, param := range p {
		values = append(values, param.Value)
	}
	return values
}

// Sign returns a copy of p with the digest parameter appended
func (p Params) Sign(secret string) Params {
	signed := make(Params, 0, len(p)+1)
	signed = append(signed, p...)
	return append(signed, Param{Name: ParamDigest, Value: ComputeDigest(p.Values(), secret)})
}

// Get returns the value of the named parameter
func (p Params) Get(name string) string {
	for _, param := range p {
		if param.Name == name {
			return param.Value
		}
	}
	return ""
}

// Encode renders p as a query string in declared order
func (p Params) Encode() string {
	var sb strings.Builder
	for i, param := range p {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(param.Name))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(param.Value))
	}
	return sb.String()
}

// Timestamp formats t as the Apix t parameter
func Timestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
