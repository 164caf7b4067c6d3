package bencode

import (
	"bytes"
	"sort"
	"strconv"
)

// Encode produces the canonical bencoding of v: map keys in ascending raw
// byte order, no whitespace. For any Value produced by Decode, Encode
// reproduces the original bytes exactly.
func Encode(v Value) []byte {
	var buf bytes.Buffer
	writeValue(&buf, v)
	return buf.Bytes()
}

func writeValue(buf *bytes.Buffer, v Value) {
	switch v.Kind {
	case KindInt:
		buf.WriteByte('i')
		buf.WriteString(strconv.FormatInt(v.Int, 10))
		buf.WriteByte('e')
	case KindString:
		buf.WriteString(strconv.Itoa(len(v.Str)))
		buf.WriteByte(':')
		buf.Write(v.Str)
	case KindList:
		buf.WriteByte('l')
		for _, item := range v.List {
			writeValue(buf, item)
		}
		buf.WriteByte('e')
	case KindDict:
		buf.WriteByte('d')
		keys := make([]string, 0, len(v.Dict))
		for k := range v.Dict {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			writeValue(buf, Value{Kind: KindString, Str: []byte(k)})
			writeValue(buf, v.Dict[k])
		}
		buf.WriteByte('e')
	}
}
