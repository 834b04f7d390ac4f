package payments

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
)

// Signature returns SHA512(orderId + statusCode + grossAmount + serverKey) in lowercase hex.
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

func VerifySignature(orderID, statusCode, grossAmount, serverKey, signatureKey string) bool {
	if signatureKey == "" || serverKey == "" {
		return false
	}
	want := Signature(orderID, statusCode, grossAmount, serverKey)
	return subtle.ConstantTimeCompare([]byte(want), []byte(signatureKey)) == 1
}
