package errors

import "errors"

var (
	ErrTokenMissing = errors.New("captcha token missing")

	ErrVerificationFailed = errors.New("captcha verification failed")

	ErrLowScore = errors.New("captcha score below threshold")

	ErrMalformedVerification = errors.New("malformed captcha verification response")
)
