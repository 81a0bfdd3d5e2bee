package domain

// Profile is the cached identity of the external account a token belongs to.
type Profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (p Profile) IsZero() bool { return p.ID == "" && p.Name == "" }
