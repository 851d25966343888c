package bignum

import "fmt"

func errInvalidDigit(s string, i int) error {
	return fmt.Errorf("invalid digit %q in numeric literal %q at offset %d", s[i], s, i)
}

func errBadBase(base int) error {
	return fmt.Errorf("based literal base %d out of range [2, 16]", base)
}
