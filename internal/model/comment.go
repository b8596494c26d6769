package model

import "database/sql"

// Comment rows are append-only. Exactly one of AuthorUserID/GuestName is
// set; ParentID, when set, references a comment on the same document.
// Ctime is assigned by the database so concurrent posts order by commit,
// not by caller clocks.
type Comment struct {
	ID           string         `json:"id"`
	DocumentID   string         `json:"document_id"`
	AuthorUserID sql.NullString `json:"-"`
	GuestName    sql.NullString `json:"-"`
	Content      string         `json:"content"`
	ParentID     sql.NullString `json:"-"`
	Ctime        int64          `json:"ctime"`
}

func (c *Comment) Authored() bool {
	return c.AuthorUserID.Valid
}

func (c *Comment) Parent() string {
	if c.ParentID.Valid {
		return c.ParentID.String
	}
	return ""
}
