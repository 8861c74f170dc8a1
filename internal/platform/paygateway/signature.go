package paygateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign returns the lowercase hex HMAC-SHA256 of payload under secret.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func verify(secret string, payload []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(secret, payload)), []byte(signature))
}

// VerifyOrderSignature checks the checkout signature of a one-time order
// payment: HMAC(secret, orderID|paymentID).
func VerifyOrderSignature(secret, orderID, paymentID, signature string) bool {
	return verify(secret, []byte(orderID+"|"+paymentID), signature)
}

// VerifySubscriptionSignature checks the checkout signature of a recurring
// subscription payment: HMAC(secret, paymentID|subscriptionID).
func VerifySubscriptionSignature(secret, paymentID, subscriptionID, signature string) bool {
	return verify(secret, []byte(paymentID+"|"+subscriptionID), signature)
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header against the
// raw request body.
func VerifyWebhookSignature(secret string, body []byte, signature string) bool {
	return verify(secret, body, signature)
}
