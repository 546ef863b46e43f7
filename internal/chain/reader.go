package chain

import (
	"math/big"
	"strings"
)

// Result of a contract read that never raises: callers branch on Reverted.
type Result struct {
	Reverted bool
	Value    any
}

// Reverted is the canonical failed read.
var ErrReverted = Result{Reverted: true}

// Reader is the external contract read interface. TryCall never returns an
// error; a failed or reverting call comes back with Reverted set and a zero
// Value. Calls are synchronous and bounded by the underlying client's own
// timeout.
type Reader interface {
	TryCall(address, method string, args ...any) Result
}

// BigInt returns the value as *big.Int, nil when reverted or mistyped.
func (r Result) BigInt() *big.Int {
	if r.Reverted {
		return nil
	}
	v, _ := r.Value.(*big.Int)
	return v
}

// String returns the value as string, empty when reverted or mistyped.
func (r Result) String() string {
	if r.Reverted {
		return ""
	}
	v, _ := r.Value.(string)
	return v
}

// Bool returns the value as bool, false when reverted or mistyped.
func (r Result) Bool() bool {
	if r.Reverted {
		return false
	}
	v, _ := r.Value.(bool)
	return v
}

// Int32 returns the value as int32, zero when reverted or mistyped.
func (r Result) Int32() int32 {
	if r.Reverted {
		return 0
	}
	switch v := r.Value.(type) {
	case int32:
		return v
	case int:
		return int32(v)
	case *big.Int:
		return int32(v.Int64())
	}
	return 0
}

// CallKey canonicalizes one (address, method, args) tuple for static fakes.
func CallKey(address, method string, args ...any) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(address))
	b.WriteByte('.')
	b.WriteString(method)
	for _, a := range args {
		b.WriteByte(':')
		switch v := a.(type) {
		case string:
			b.WriteString(strings.ToLower(v))
		case *big.Int:
			b.WriteString(v.String())
		default:
			b.WriteString(toString(v))
		}
	}
	return b.String()
}
