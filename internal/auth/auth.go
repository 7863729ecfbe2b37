// Package auth consumes AuthenticationRequest payloads (§4.4, §6 tag
// `R`) and produces the response payload the engine should send back,
// delegating the SASL/SCRAM exchange proper to an external helper.
package auth

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// Method identifies which AuthenticationRequest variant the server asked
// for; the leading int32 of an `R` message payload.
type Method int32

const (
	MethodOK                Method = 0
	MethodKerberosV5        Method = 2
	MethodCleartextPassword Method = 3
	MethodMD5Password       Method = 5
	MethodSCMCredential     Method = 6
	MethodGSS               Method = 7
	MethodSSPI              Method = 9
	MethodSASL              Method = 10
	MethodSASLContinue      Method = 11
	MethodSASLFinal         Method = 12
)

func (m Method) String() string {
	switch m {
	case MethodOK:
		return "ok"
	case MethodKerberosV5:
		return "kerberos-v5"
	case MethodCleartextPassword:
		return "cleartext-password"
	case MethodMD5Password:
		return "md5-password"
	case MethodSCMCredential:
		return "scm-credential"
	case MethodGSS:
		return "gss"
	case MethodSSPI:
		return "sspi"
	case MethodSASL:
		return "sasl"
	case MethodSASLContinue:
		return "sasl-continue"
	case MethodSASLFinal:
		return "sasl-final"
	default:
		return fmt.Sprintf("unknown-auth-method(%d)", int32(m))
	}
}

// ErrUnsupportedMethod is returned when the server requests an
// authentication method this package has no handler for (Kerberos, GSS,
// SSPI, SCM credential): only cleartext password, MD5 and SCRAM-SHA-256
// are wired.
type ErrUnsupportedMethod struct{ Method Method }

func (e *ErrUnsupportedMethod) Error() string {
	return fmt.Sprintf("pgwire: unsupported authentication method: %s", e.Method)
}

// Cleartext returns the literal password as the password-message body
// for AuthenticationCleartextPassword.
func Cleartext(password string) string {
	return password
}

// MD5 computes the salted MD5 password hash PostgreSQL expects in
// response to AuthenticationMD5Password:
// "md5" + hex(md5(hex(md5(password+username)) + salt))
func MD5(user, password string, salt [4]byte) string {
	inner := md5Hex(password + user)
	outer := md5Hex(inner + string(salt[:]))
	return "md5" + outer
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
