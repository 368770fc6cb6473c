// Package staging persists the rows parsed from one import pass.
//
// Staging tables are ephemeral: Clear empties them at the start of every
// pass, the importer appends rows without any uniqueness checks, and the
// merge pass reads them in insertion order so that later duplicates win.
//
// Typical Usage
//
//	repo := staging.NewSQLiteRepository(tx, time.Now)
//	_ = repo.Clear(ctx)
//	_ = repo.StageTrip(ctx, models.StagedTrip{InternalUser: "user1", TripDate: "2024-05-07", Kilometers: 8})
package staging
