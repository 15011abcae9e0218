package domain

// PushOptions holds the options recognised by push and pushdocs.
type PushOptions struct {
	// Export skips network transmission and emits JSON instead
	Export bool

	// NoAtomic sends attachments one by one instead of in a single save
	NoAtomic bool

	// Browse opens the pushed application after a successful push
	Browse bool

	// Force resends attachments even when the destination already has them
	Force bool

	// DocID overrides the computed identifier of the primary document
	DocID string

	// Output is the file written in export mode; stdout when empty
	Output string

	// Watch re-runs the push whenever the application changes
	Watch bool
}
