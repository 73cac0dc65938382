package credentials

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// CodePrefix is prepended to every activation code
const CodePrefix = "TCC-"

// codeAlphabet avoids characters that are easy to confuse when a code
// is read aloud or copied by hand (no 0/O, 1/I/L).
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const codeLength = 5

// GenerateActivationCode generates a short uppercase code like "TCC-7K4P2"
func GenerateActivationCode() (string, error) {
	var sb strings.Builder
	sb.WriteString(CodePrefix)
	for i := 0; i < codeLength; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		sb.WriteByte(codeAlphabet[num.Int64()])
	}
	return sb.String(), nil
}

// NormalizeCode uppercases and trims a hand-typed activation code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// GeneratePin generates a random 4-digit child PIN
func GeneratePin() (string, error) {
	digits := "0123456789"
	pin := make([]byte, 4)

	for i := 0; i < 4; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		pin[i] = digits[num.Int64()]
	}

	return string(pin), nil
}

// GenerateTempPassword generates a 12-character temporary password for
// accounts created ahead of activation
func GenerateTempPassword() (string, error) {
	chars := "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	password := make([]byte, 12)

	for i := range password {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		if err != nil {
			return "", err
		}
		password[i] = chars[num.Int64()]
	}

	return string(password), nil
}
