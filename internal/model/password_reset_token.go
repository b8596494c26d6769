package model

// PasswordResetToken is single-use: once Used is set it stays invalid
// forever, regardless of how much TTL remains.
type PasswordResetToken struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Token     string `json:"token"`
	Ctime     int64  `json:"ctime"`
	ExpiresAt int64  `json:"expires_at"`
	Used      int    `json:"used"`
}
