// Package otp issues and checks one-time codes sent to a phone number.
package otp

import (
	"context"
	"errors"
	"regexp"

	"bukinn/internal/apperror"
)

var (
	phonePattern = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
	codePattern  = regexp.MustCompile(`^[0-9]{6}$`)
)

var (
	ErrInvalidPhoneFormat = apperror.ValidationField("phoneNumber", "Invalid phone number format. Use E.164 format (e.g. +919876543210)")
	ErrInvalidCodeFormat  = apperror.ValidationField("otp", "OTP must be exactly 6 digits")

	// ErrSendRateLimited is returned by providers that throttle resends.
	ErrSendRateLimited = errors.New("otp recently sent")
)

// Provider delivers and checks codes. Check reports false for a wrong,
// expired or unknown code; an error means the provider itself failed.
type Provider interface {
	Send(ctx context.Context, phone string) error
	Check(ctx context.Context, phone, code string) (bool, error)
}

// Verifier validates input before handing it to the provider. It keeps no
// state of its own and never retries.
type Verifier struct {
	provider Provider
}

func NewVerifier(provider Provider) *Verifier {
	return &Verifier{provider: provider}
}

func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

func (v *Verifier) Issue(ctx context.Context, phone string) error {
	if !ValidPhone(phone) {
		return ErrInvalidPhoneFormat
	}
	if err := v.provider.Send(ctx, phone); err != nil {
		if errors.Is(err, ErrSendRateLimited) {
			return &apperror.AppError{
				Err:     apperror.ErrValidation,
				Message: "OTP was sent recently. Please wait before requesting another one",
				Cause:   err,
			}
		}
		return apperror.Provider("Failed to send OTP", err)
	}
	return nil
}

func (v *Verifier) Check(ctx context.Context, phone, code string) (bool, error) {
	if !ValidCode(code) {
		return false, ErrInvalidCodeFormat
	}
	if !ValidPhone(phone) {
		return false, ErrInvalidPhoneFormat
	}
	approved, err := v.provider.Check(ctx, phone, code)
	if err != nil {
		return false, apperror.Provider("Failed to verify OTP", err)
	}
	return approved, nil
}
