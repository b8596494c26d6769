package model

// ShareCapability is the single live share link of a document. Refreshing a
// share overwrites the row in place, so a document never accumulates more
// than one usable token.
type ShareCapability struct {
	ID            string `json:"id"`
	DocumentID    string `json:"document_id"`
	Token         string `json:"token"`
	IssuerID      string `json:"issuer_id"`
	Ctime         int64  `json:"ctime"`
	ExpiresAt     int64  `json:"expires_at"` // 0 means never
	AllowComments bool   `json:"allow_comments"`
	AllowDownload bool   `json:"allow_download"`
}

// Live reports whether the capability is usable at the given unix time.
func (s *ShareCapability) Live(now int64) bool {
	return s.ExpiresAt == 0 || s.ExpiresAt > now
}
