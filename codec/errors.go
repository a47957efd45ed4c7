package codec

import "errors"

var (
	// ErrInvalidSignature is wrapped by Codec.Flush when the computed CRC-32 does not match the expected signature.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrInvalidPassword is wrapped by Codec.Append when a preamble check fails (the AES password-verification
	// value, the ZipCrypto header check byte), or by Codec.Flush when the AES authentication code does not match.
	ErrInvalidPassword = errors.New("invalid password")
)
