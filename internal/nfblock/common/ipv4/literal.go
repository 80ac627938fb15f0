// Package ipv4 holds the dotted-quad literal grammar shared by the blocklist
// parser and the ruleset reflector.
//
//	literal := octet "." octet "." octet "." octet
//	octet   := digit{1,3}
//
// Octet values are not range checked: "999.1.1.1" is a literal. Blocklist
// feeds are passed through as-is and nft is left to reject what it cannot load.
package ipv4

const maxOctetDigits = 3

// Scan matches a literal at the start of s and returns it together with the
// unconsumed remainder. Each octet consumes as many digits as it can, up to
// three.
func Scan(s string) (lit, rest string, ok bool) {
	i := 0
	for octet := 0; octet < 4; octet++ {
		if octet > 0 {
			if i >= len(s) || s[i] != '.' {
				return "", s, false
			}
			i++
		}
		start := i
		for i < len(s) && i-start < maxOctetDigits && isDigit(s[i]) {
			i++
		}
		if i == start {
			return "", s, false
		}
	}
	return s[:i], s[i:], true
}

// IsLiteral reports whether the whole of s is a single literal.
func IsLiteral(s string) bool {
	_, rest, ok := Scan(s)
	return ok && rest == ""
}

// ScanRange matches `literal` or `literal "-" literal` at the start of s. When
// the second literal is absent end equals start and ranged is false.
func ScanRange(s string) (start, end, rest string, ranged, ok bool) {
	start, rest, ok = Scan(s)
	if !ok {
		return "", "", s, false, false
	}
	if len(rest) > 0 && rest[0] == '-' {
		if e, r, eok := Scan(rest[1:]); eok {
			return start, e, r, true, true
		}
	}
	return start, start, rest, false, true
}

// ToUint32 converts a literal to its 32-bit value. It reports false for
// strings that are not literals or that carry an octet above 255.
func ToUint32(s string) (uint32, bool) {
	if !IsLiteral(s) {
		return 0, false
	}
	var v, octet uint32
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '.' {
			if octet > 255 {
				return 0, false
			}
			v = v<<8 | octet
			octet = 0
			continue
		}
		octet = octet*10 + uint32(s[i]-'0')
	}
	return v, true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
