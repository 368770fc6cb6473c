package models

// TripMergeResult counts what the trip merge did with the staged rows.
type TripMergeResult struct {
	Inserted  int
	Modified  int
	Unchanged int
}

// LoginMergeResult counts what the login merge did. Unmatched lists internal
// users whose staged username or password had no counterpart; those rows are
// dropped by the join.
type LoginMergeResult struct {
	Inserted  int
	Updated   int
	Unchanged int

	DroppedUsernames int
	DroppedPasswords int
	Unmatched        []string
}

// Dropped is the number of incomplete credential pairs.
func (r LoginMergeResult) Dropped() int {
	return r.DroppedUsernames + r.DroppedPasswords
}
