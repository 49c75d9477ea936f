package authview

import (
	"context"
	"time"
)

// Profile is the application-level record associated 1:1 with an Identity.
// Profiles are never created here — writes go through the collaborator store.
type Profile struct {
	ID        string         `json:"id"`
	Username  string         `json:"username"`
	Email     string         `json:"email"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// ProfileStore is the capability interface for the profile record store,
// keyed by Identity.ID.
type ProfileStore interface {
	// Get retrieves the profile for an identity id
	Get(ctx context.Context, id string) (*Profile, error)

	// Update applies a partial merge of the given fields onto the stored
	// profile and returns the updated record. Unspecified fields are left
	// untouched, never overwritten.
	Update(ctx context.Context, id string, fields map[string]any) (*Profile, error)
}

// ApplyProfileFields merges a partial update onto p. The well-known keys
// "username" and "email" update their columns; everything else lands in
// Extra. Store implementations share this so partial-merge semantics do not
// drift between backends.
func ApplyProfileFields(p *Profile, fields map[string]any) {
	for k, v := range fields {
		switch k {
		case "username":
			if s, ok := v.(string); ok {
				p.Username = s
			}
		case "email":
			if s, ok := v.(string); ok {
				p.Email = s
			}
		default:
			if p.Extra == nil {
				p.Extra = make(map[string]any)
			}
			p.Extra[k] = v
		}
	}
	p.UpdatedAt = time.Now()
}
