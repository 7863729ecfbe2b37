package codec

// RawDecode is the fallback decoder used for any OID the registry has no
// codec for (§4.2 "raw result"): the payload is returned as a copy, leaving
// interpretation to the caller.
func RawDecode(src []byte, _ DecodeContext) (any, error) {
	return append([]byte(nil), src...), nil
}
