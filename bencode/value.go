// Package bencode implements the bencoding format used by BitTorrent
// metainfo files and the tracker announce protocol: the four primitives are
// signed integers, raw byte strings, ordered lists and string-keyed maps
// emitted in canonical (sorted) key order.
package bencode

import "fmt"

// Kind identifies which of the four bencoded shapes a Value holds.
type Kind int

const (
	KindInt Kind = iota
	KindString
	KindList
	KindDict
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "integer"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	default:
		return "unknown"
	}
}

// Value is a tagged bencoded value. Only the field matching Kind is valid.
//
// Raw holds the exact bytes this value was decoded from (a sub-slice of the
// original input, never copied). This is what lets callers extract the
// canonical bytes of a substructure — e.g. a torrent's "info" dict — for
// hashing without needing the encoder to reproduce a third party's exact
// byte layout.
type Value struct {
	Kind Kind

	Int  int64
	Str  []byte
	List []Value
	Dict map[string]Value

	Raw []byte
}

// NewInt wraps an integer as a Value.
func NewInt(i int64) Value { return Value{Kind: KindInt, Int: i} }

// NewString wraps a raw byte string as a Value.
func NewString(s []byte) Value { return Value{Kind: KindString, Str: s} }

// NewStringFrom wraps a Go string's bytes as a Value.
func NewStringFrom(s string) Value { return Value{Kind: KindString, Str: []byte(s)} }

// NewList wraps a list of values as a Value.
func NewList(l []Value) Value { return Value{Kind: KindList, List: l} }

// NewDict wraps a string-keyed map of values as a Value.
func NewDict(d map[string]Value) Value { return Value{Kind: KindDict, Dict: d} }

func (v Value) AsInt() (int64, error) {
	if v.Kind != KindInt {
		return 0, fmt.Errorf("bencode: expected integer, got %s", v.Kind)
	}
	return v.Int, nil
}

func (v Value) AsString() ([]byte, error) {
	if v.Kind != KindString {
		return nil, fmt.Errorf("bencode: expected string, got %s", v.Kind)
	}
	return v.Str, nil
}

func (v Value) AsList() ([]Value, error) {
	if v.Kind != KindList {
		return nil, fmt.Errorf("bencode: expected list, got %s", v.Kind)
	}
	return v.List, nil
}

func (v Value) AsDict() (map[string]Value, error) {
	if v.Kind != KindDict {
		return nil, fmt.Errorf("bencode: expected dict, got %s", v.Kind)
	}
	return v.Dict, nil
}
