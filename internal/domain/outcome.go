package domain

// BulkOutcome is the per-document result of a multi-document save.
type BulkOutcome struct {
	ID     string
	Rev    string
	Error  string
	Reason string

	// Conflict is set when the destination rejected the document because of
	// a stale revision
	Conflict bool

	// Doc is the document as it was submitted
	Doc map[string]any
}

// OK returns true if the document was saved.
func (o BulkOutcome) OK() bool {
	return o.Error == ""
}

// Failed returns the outcomes that were not saved.
func Failed(outcomes []BulkOutcome) []BulkOutcome {
	var failed []BulkOutcome
	for _, o := range outcomes {
		if !o.OK() {
			failed = append(failed, o)
		}
	}
	return failed
}

// ResolveReport describes how a companion batch ended on one destination.
type ResolveReport struct {
	Destination string

	// Saved lists the identifiers stored by the first or the retry save
	Saved []string

	// Retried lists the identifiers resubmitted with a refreshed revision
	Retried []string

	// Dropped lists rejected identifiers whose revision could not be found
	Dropped []string

	// Unresolved lists the identifiers rejected again by the retry save
	Unresolved []BulkOutcome

	// Err is a transport failure that ended the resolution early
	Err error
}

// Clean returns true if every document of the batch was saved.
func (r ResolveReport) Clean() bool {
	return r.Err == nil && len(r.Dropped) == 0 && len(r.Unresolved) == 0
}

// SyncReport describes one companion synchronization run.
type SyncReport struct {
	// Items is the number of companion items discovered
	Items int

	// Skipped lists companion files that could not be decoded
	Skipped []string

	// Destinations holds one report per destination in transmission order
	Destinations []ResolveReport
}
