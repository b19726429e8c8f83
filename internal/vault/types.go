package vault

// Item is one vault entry as printed by `bw list items`.
type Item struct {
	ID           string  `json:"id"`
	FolderID     *string `json:"folderId"`
	Type         int     `json:"type"`
	Name         string  `json:"name"`
	Notes        string  `json:"notes,omitempty"`
	Favorite     bool    `json:"favorite,omitempty"`
	Login        *Login  `json:"login,omitempty"`
	RevisionDate string  `json:"revisionDate,omitempty"`
}

type Login struct {
	Username string `json:"username"`
	Password string `json:"password"`
	TOTP     string `json:"totp"`
	URIs     []URI  `json:"uris,omitempty"`
}

type URI struct {
	URI   string `json:"uri"`
	Match *int   `json:"match,omitempty"`
}

// Folder is a vault folder. The pseudo folder holding unfiled items has
// a nil ID.
type Folder struct {
	ID   *string `json:"id"`
	Name string  `json:"name"`
}

// IsNoFolder reports whether f is the pseudo folder of unfiled items.
func (f Folder) IsNoFolder() bool { return f.ID == nil }

// InFolder reports whether the item is filed under f.
func (it Item) InFolder(f Folder) bool {
	if f.ID == nil || it.FolderID == nil {
		return f.ID == nil && it.FolderID == nil
	}
	return *f.ID == *it.FolderID
}

// Username returns the login username, or "" for non-login items.
func (it Item) Username() string {
	if it.Login == nil {
		return ""
	}
	return it.Login.Username
}

// Password returns the login password, or "" for non-login items.
func (it Item) Password() string {
	if it.Login == nil {
		return ""
	}
	return it.Login.Password
}

// Sanitized returns a deep copy of the item without password or TOTP seed.
func (it Item) Sanitized() Item {
	out := it
	if it.FolderID != nil {
		id := *it.FolderID
		out.FolderID = &id
	}
	if it.Login != nil {
		login := *it.Login
		login.Password = ""
		login.TOTP = ""
		login.URIs = append([]URI(nil), it.Login.URIs...)
		out.Login = &login
	}
	return out
}
