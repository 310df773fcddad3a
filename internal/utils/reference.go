package utils

import (
	"fmt"
	"math/rand"
	"time"
)

const referenceCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateReference generates a unique reference for transactions
func GenerateReference(prefix string) string {
	result := make([]byte, 8)
	for i := range result {
		result[i] = referenceCharset[rand.Intn(len(referenceCharset))]
	}

	timestamp := time.Now().Format("20060102")
	return fmt.Sprintf("%s_%s_%s", prefix, timestamp, string(result))
}

// GenerateReferralCode generates a member referral code of the form TZF
// followed by six digits.
func GenerateReferralCode() string {
	return fmt.Sprintf("TZF%06d", rand.Intn(1000000))
}
