package domain

import "fmt"

// SyncResult summarizes a server-wins merge.
type SyncResult struct {
	// Added is the number of remote quotes appended because no local quote had the same text.
	Added int `json:"added"`

	// Conflicts is the number of local quotes overwritten by a differing remote quote.
	Conflicts int `json:"conflicts"`
}

// NoChanges reports whether the merge left the collection untouched.
func (r SyncResult) NoChanges() bool {
	return r.Added == 0 && r.Conflicts == 0
}

// Summary returns the user-facing sync message.
func (r SyncResult) Summary() string {
	if r.NoChanges() {
		return "Sync complete: no changes"
	}

	return fmt.Sprintf("Sync complete: %d new quotes added, %d conflicts resolved", r.Added, r.Conflicts)
}

// MergeServerWins reconciles local against remote in place and returns the
// updated collection. For each remote quote the first local quote with the same
// text is overwritten when its content differs; a remote quote with no textual
// match is appended. There is no versioning: the remote copy always wins.
func MergeServerWins(local, remote []Quote) ([]Quote, SyncResult) {
	var result SyncResult

	for _, r := range remote {
		idx := indexByText(local, r.Text)

		switch {
		case idx < 0:
			local = append(local, r)
			result.Added++
		case local[idx] != r:
			local[idx] = r
			result.Conflicts++
		}
	}

	return local, result
}

// indexByText returns the position of the first quote with the given text, or -1.
func indexByText(quotes []Quote, text string) int {
	for i := range quotes {
		if quotes[i].Text == text {
			return i
		}
	}

	return -1
}
