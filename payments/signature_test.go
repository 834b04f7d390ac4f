package payments

import "testing"

func TestVerifySignature(t *testing.T) {
	const (
		orderID    = "ORD-20260101-ABC123"
		statusCode = "200"
		gross      = "150000.00"
		serverKey  = "SB-Mid-server-test"
	)
	sig := Signature(orderID, statusCode, gross, serverKey)

	if !VerifySignature(orderID, statusCode, gross, serverKey, sig) {
		t.Fatal("expected valid signature to verify")
	}

	for i := range sig {
		mutated := []byte(sig)
		if mutated[i] == '0' {
			mutated[i] = '1'
		} else {
			mutated[i] = '0'
		}
		if VerifySignature(orderID, statusCode, gross, serverKey, string(mutated)) {
			t.Fatalf("mutation at index %d verified", i)
		}
	}
}

func TestVerifySignatureRejectsWrongInputs(t *testing.T) {
	sig := Signature("ord_1", "200", "10000.00", "key")

	tests := []struct {
		name                          string
		order, code, gross, key, sign string
	}{
		{"other order", "ord_2", "200", "10000.00", "key", sig},
		{"other status code", "ord_1", "201", "10000.00", "key", sig},
		{"other amount", "ord_1", "200", "10001.00", "key", sig},
		{"other server key", "ord_1", "200", "10000.00", "key2", sig},
		{"empty signature", "ord_1", "200", "10000.00", "key", ""},
		{"empty server key", "ord_1", "200", "10000.00", "", sig},
		{"uppercased signature", "ord_1", "200", "10000.00", "key", upper(sig)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if VerifySignature(tt.order, tt.code, tt.gross, tt.key, tt.sign) {
				t.Error("expected verification to fail")
			}
		})
	}
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'f' {
			b[i] = c - 32
		}
	}
	return string(b)
}
