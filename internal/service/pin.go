package service

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"stocksight/backend/internal/store"
)

var weakPINs = map[string]bool{
	"1234": true, "4321": true, "0000": true, "1111": true,
	"2222": true, "3333": true, "4444": true, "5555": true,
	"6666": true, "7777": true, "8888": true, "9999": true,
	"1212": true, "2580": true, "123456": true, "654321": true,
	"000000": true, "111111": true, "121212": true, "112233": true,
	"123123": true,
}

// ValidatePINStrength rejects PINs that are not 4 to 8 digits, are all the
// same digit, sequential (ascending or descending), or on a known-weak
// list.
func ValidatePINStrength(pin string) error {
	if len(pin) < 4 || len(pin) > 8 {
		return fmt.Errorf("%w: pin must be 4 to 8 digits", store.ErrInvalidArgument)
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return fmt.Errorf("%w: pin must contain only digits", store.ErrInvalidArgument)
		}
	}
	if weakPINs[pin] {
		return fmt.Errorf("%w: common pin not allowed", store.ErrInvalidArgument)
	}

	allSame := true
	for i := 1; i < len(pin); i++ {
		if pin[i] != pin[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return fmt.Errorf("%w: all-same-digit pin not allowed", store.ErrInvalidArgument)
	}

	ascending, descending := true, true
	for i := 1; i < len(pin); i++ {
		diff := int(pin[i]) - int(pin[i-1])
		if diff != 1 {
			ascending = false
		}
		if diff != -1 {
			descending = false
		}
	}
	if ascending || descending {
		return fmt.Errorf("%w: sequential pin not allowed", store.ErrInvalidArgument)
	}

	return nil
}

func hashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPIN reports whether the plaintext PIN matches the stored hash.
func VerifyPIN(hash string, pin string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}
