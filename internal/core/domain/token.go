package domain

// TokenKind distinguishes the two credentials in a pair. The string values
// double as the cache-key suffix (subject ":" kind).
type TokenKind string

const (
	TokenAccess  TokenKind = "accessToken"
	TokenRefresh TokenKind = "refreshToken"
)

// Token is a persisted bearer-token record. Revoked and Expired are both
// terminal and independently checked: a token is usable only while neither
// flag is set. Rows are retained after revocation for audit.
type Token struct {
	ID      string    `json:"id"`
	UserID  string    `json:"userId"`
	Value   string    `json:"-"`
	Kind    TokenKind `json:"kind"`
	Revoked bool      `json:"revoked"`
	Expired bool      `json:"expired"`
}

// Usable reports whether the store still considers this token trustworthy.
func (t *Token) Usable() bool { return !t.Revoked && !t.Expired }

// TokenPair is the result of a successful authentication or refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
