package model

type Document struct {
	ID         string `json:"id"`
	OwnerID    string `json:"owner_id"`
	Filename   string `json:"filename"`
	StorageKey string `json:"-"`
	Ctime      int64  `json:"ctime"`
}
