package chat

import "fmt"

// Participant roles as stored on messages and conversations.
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleAgent  = "agent"
)

// DeriveKey builds the conversation key for a buyer/counterpart pair and a
// property. The pair is ordered smaller-id-first so both participants derive
// the same key no matter which side calls; a different property always
// yields a different key. The key doubles as the Conversation primary key,
// which is what makes concurrent create-or-get naturally idempotent.
func DeriveKey(buyerID, counterpartID, propertyID uint) (string, error) {
	if buyerID == 0 || counterpartID == 0 || propertyID == 0 {
		return "", ErrInvalidIdentity
	}
	lo, hi := buyerID, counterpartID
	if hi < lo {
		lo, hi = hi, lo
	}
	return fmt.Sprintf("conv:%d:%d:p%d", lo, hi, propertyID), nil
}
