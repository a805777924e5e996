package core

// Owner identifies who a budget belongs to: exactly one user or
// exactly one chat, never both. The zero Owner is invalid; build one
// through OwnerUser or OwnerChat. Platform ids are never zero, so a
// zero field reads as unset.
type Owner struct {
	UserID int64
	ChatID int64
}

// OwnerUser makes a personal owner.
func OwnerUser(userID int64) Owner {
	return Owner{UserID: userID}
}

// OwnerChat makes a group owner.
func OwnerChat(chatID int64) Owner {
	return Owner{ChatID: chatID}
}

// IsUser reports whether the owner is a single user.
func (o Owner) IsUser() bool {
	return o.UserID != 0 && o.ChatID == 0
}

// IsChat reports whether the owner is a group chat.
func (o Owner) IsChat() bool {
	return o.ChatID != 0 && o.UserID == 0
}

// Validate enforces the exclusivity invariant.
func (o Owner) Validate() error {
	if o.IsUser() || o.IsChat() {
		return nil
	}
	return ErrOwnerInvariant
}

// Matches reports whether this owner equals the other one. Used by the
// ownership guard: the resolved principal's owning key against the
// stored budget owner degrades to a single equality test.
func (o Owner) Matches(other Owner) bool {
	if o.IsUser() {
		return other.IsUser() && o.UserID == other.UserID
	}
	if o.IsChat() {
		return other.IsChat() && o.ChatID == other.ChatID
	}
	return false
}
