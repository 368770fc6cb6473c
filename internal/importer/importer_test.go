package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/mdrzasync/internal/common"
	"github.com/dmitrijs2005/mdrzasync/internal/logging"
	"github.com/dmitrijs2005/mdrzasync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStaging struct {
	cleared   int
	trips     []models.StagedTrip
	usernames []models.StagedUsername
	passwords []models.StagedPassword
	failAfter int
}

var errDiskFull = errors.New("disk full")

func (f *fakeStaging) Clear(ctx context.Context) error {
	f.cleared++
	f.trips, f.usernames, f.passwords = nil, nil, nil
	return nil
}

func (f *fakeStaging) check() error {
	if f.failAfter > 0 && len(f.trips)+len(f.usernames)+len(f.passwords) >= f.failAfter {
		return errors.Join(common.ErrStorage, errDiskFull)
	}
	return nil
}

func (f *fakeStaging) StageTrip(ctx context.Context, row models.StagedTrip) error {
	if err := f.check(); err != nil {
		return err
	}
	f.trips = append(f.trips, row)
	return nil
}

func (f *fakeStaging) StageUsername(ctx context.Context, row models.StagedUsername) error {
	if err := f.check(); err != nil {
		return err
	}
	f.usernames = append(f.usernames, row)
	return nil
}

func (f *fakeStaging) StagePassword(ctx context.Context, row models.StagedPassword) error {
	if err := f.check(); err != nil {
		return err
	}
	f.passwords = append(f.passwords, row)
	return nil
}

func writeFile(t *testing.T, dir, name string, lines ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(strings.Join(lines, "\n")+"\n"), 0o600))
}

func TestImport_TripScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Cube_AnzahlGefahreneKmJeTag_2024.txt",
		"TripDate\tInternalUsername\tkilometers",
		"20240507\tuser1\t8.0",
	)

	repo := &fakeStaging{}
	stats, err := New(logging.Discard()).Import(context.Background(), dir, repo)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.cleared)
	assert.Equal(t, []models.StagedTrip{{InternalUser: "user1", TripDate: "2024-05-07", Kilometers: 8.0}}, repo.trips)
	assert.Equal(t, Stats{Files: 1, Trips: 1}, stats)
}

func TestImport_AllKindsAndIgnoredFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Cube_MdRzA_Login.txt", "InternalUsername\tUserName", "user1\talice@example.org", "user2\tbob@example.org")
	writeFile(t, dir, "Cube_MdRzA_Kennwort.txt", "InternalUsername\tPassword", "user1\tZW5jcnlwdGVk")
	writeFile(t, dir, "Cube_Other.txt", "a\tb", "1\t2")
	writeFile(t, dir, "Cube_AnzahlGefahreneKmJeTag.csv", "header", "20240507\tuser1\t8")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "Cube_AnzahlGefahreneKmJeTag_dir.txt"), 0o700))

	repo := &fakeStaging{}
	stats, err := New(logging.Discard()).Import(context.Background(), dir, repo)
	require.NoError(t, err)

	assert.Len(t, repo.usernames, 2)
	assert.Equal(t, models.StagedPassword{InternalUser: "user1", EncryptedPassword: "ZW5jcnlwdGVk"}, repo.passwords[0])
	assert.Empty(t, repo.trips, "non-txt files and directories are not read")
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, 1, stats.Ignored)
	assert.Equal(t, 3, stats.Staged())
}

func TestImport_BadRowsAreSkipped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Cube_AnzahlGefahreneKmJeTag.txt",
		"TripDate\tInternalUsername\tkilometers",
		"20240507\tuser1\t8.0",
		"2024-05-08\tuser1\t8.0",
		"20241340\tuser1\t8.0",
		"20240509\tuser1\tviel",
		"20240510\tuser1",
		"20240511\t\t4",
		"20240512\tuser1\tNaN",
		"20240513\tuser1\t 12.5 ",
	)

	repo := &fakeStaging{}
	stats, err := New(logging.Discard()).Import(context.Background(), dir, repo)
	require.NoError(t, err)

	require.Len(t, repo.trips, 2)
	assert.Equal(t, "2024-05-13", repo.trips[1].TripDate)
	assert.Equal(t, 12.5, repo.trips[1].Kilometers)
	assert.Equal(t, 6, stats.Skipped)
	assert.Equal(t, 1, stats.Files)
}

func TestImport_HeaderOnlyAndEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Cube_AnzahlGefahreneKmJeTag_a.txt", "TripDate\tInternalUsername\tkilometers")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cube_AnzahlGefahreneKmJeTag_b.txt"), nil, 0o600))

	repo := &fakeStaging{}
	stats, err := New(logging.Discard()).Import(context.Background(), dir, repo)
	require.NoError(t, err)
	assert.Empty(t, repo.trips)
	assert.Equal(t, 2, stats.Files)
}

func TestImport_ClearsLeftoversFirst(t *testing.T) {
	dir := t.TempDir()
	repo := &fakeStaging{trips: []models.StagedTrip{{InternalUser: "stale"}}}

	_, err := New(logging.Discard()).Import(context.Background(), dir, repo)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.cleared)
	assert.Empty(t, repo.trips)
}

func TestImport_StorageErrorAborts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Cube_MdRzA_Login.txt", "h", "u1\ta", "u2\tb", "u3\tc")

	repo := &fakeStaging{failAfter: 1}
	_, err := New(logging.Discard()).Import(context.Background(), dir, repo)
	require.ErrorIs(t, err, common.ErrStorage)
}

func TestImport_MissingDir(t *testing.T) {
	_, err := New(logging.Discard()).Import(context.Background(), filepath.Join(t.TempDir(), "nope"), &fakeStaging{})
	require.Error(t, err)
}

func TestImport_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Cube_MdRzA_Login.txt", "h", "u1\ta")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(logging.Discard()).Import(ctx, dir, &fakeStaging{})
	require.ErrorIs(t, err, context.Canceled)
}
