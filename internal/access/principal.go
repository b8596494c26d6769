package access

// Kind tags the acting identity in an authorization decision.
type Kind int

const (
	KindAnonymous Kind = iota
	KindAuthenticated
	KindGuest
)

// Principal is a tagged variant: an authenticated user, an anonymous guest
// presenting a bearer token, or nobody at all. Construct values through
// the helpers so the unused field stays zero.
type Principal struct {
	Kind   Kind
	UserID string
	Token  string
}

func Anonymous() Principal {
	return Principal{Kind: KindAnonymous}
}

func Authenticated(userID string) Principal {
	if userID == "" {
		return Anonymous()
	}
	return Principal{Kind: KindAuthenticated, UserID: userID}
}

func Guest(token string) Principal {
	if token == "" {
		return Anonymous()
	}
	return Principal{Kind: KindGuest, Token: token}
}
