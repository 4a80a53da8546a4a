package entities

// Requestor identifies the authenticated caller of a service operation.
type Requestor struct {
	UserID string
	Email  string
	Admin  bool
}

// Owns reports whether the requestor may see a resource owned by userID.
func (r Requestor) Owns(userID string) bool {
	return r.Admin || (r.UserID != "" && r.UserID == userID)
}
