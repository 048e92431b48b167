package work

// Author represents a work contributor with optional ORCID identifier.
type Author struct {
	Name  string `json:"name"`            // Credit name as it appears on the work
	ORCID string `json:"orcid,omitempty"` // ORCID identifier (without URL prefix)
	Role  string `json:"role,omitempty"`  // author, editor, ...
}
