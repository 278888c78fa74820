// Package domain holds the persisted records that sit around a user's note tree.
package domain

// User is the per-user record owning exactly one note document and one id
// counter. The document itself travels separately (see store.DocumentStore)
// because it is always loaded and replaced as a whole.
type User struct {
	Timestamps

	// ID is the opaque identifier supplied by the identity provider.
	ID    string `json:"id"`
	Email string `json:"email"`

	// NextID is the value the next node allocation will return.
	NextID uint64 `json:"next_id"`

	// Revision counts document write-backs; it is the optimistic
	// concurrency token checked by ReplaceDocument.
	Revision uint64 `json:"revision"`
}
