package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/terraincognita07/pulselog/internal/models"
	"gorm.io/gorm"
)

func openTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := OpenSQLite(filepath.Join(t.TempDir(), "pulselog-test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("open sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return database
}

func createTestUser(t *testing.T, repos *Repositories, email string) models.User {
	t.Helper()

	user := models.User{Email: email, PasswordHash: "hash", CreatedAt: time.Now().UTC()}
	if err := repos.Users.CreateWithDefaultTargets(&user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func TestMigrationsAreIdempotent(t *testing.T) {
	database := openTestDatabase(t)

	if err := applyEmbeddedMigrations(database); err != nil {
		t.Fatalf("second migration run failed: %v", err)
	}

	var count int64
	if err := database.Table("schema_migrations").Count(&count).Error; err != nil {
		t.Fatalf("count schema_migrations: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 recorded migrations, got %d", count)
	}
}

func TestCreateUserSeedsDefaultTargets(t *testing.T) {
	repos := NewRepositories(openTestDatabase(t))
	user := createTestUser(t, repos, "owner@example.com")

	targets, found, err := repos.Targets.FindByUserID(user.ID)
	if err != nil {
		t.Fatalf("FindByUserID() unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected default targets row")
	}
	if targets.Systolic != 120 || targets.Diastolic != 80 || targets.Pulse != 70 {
		t.Fatalf("unexpected default targets: %#v", targets)
	}
}

func TestTargetsUpsertOverwritesInPlace(t *testing.T) {
	repos := NewRepositories(openTestDatabase(t))
	user := createTestUser(t, repos, "targets@example.com")

	updated := models.Targets{UserID: user.ID, Systolic: 130, Diastolic: 85, Pulse: 65}
	if err := repos.Targets.Upsert(&updated); err != nil {
		t.Fatalf("Upsert() unexpected error: %v", err)
	}

	var rows int64
	if err := repos.Targets.database.Model(&models.Targets{}).Where("user_id = ?", user.ID).Count(&rows).Error; err != nil {
		t.Fatalf("count targets: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected exactly one targets row, got %d", rows)
	}

	stored, _, err := repos.Targets.FindByUserID(user.ID)
	if err != nil {
		t.Fatalf("FindByUserID() unexpected error: %v", err)
	}
	if stored.Systolic != 130 || stored.Diastolic != 85 || stored.Pulse != 65 {
		t.Fatalf("expected overwritten targets, got %#v", stored)
	}
}

func TestReadingRepositoryOrderingAndScoping(t *testing.T) {
	repos := NewRepositories(openTestDatabase(t))
	owner := createTestUser(t, repos, "a@example.com")
	other := createTestUser(t, repos, "b@example.com")

	base := time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)
	for index, reading := range []models.Reading{
		{ID: "r-old", UserID: owner.ID, TakenAt: base, Systolic: 120, Diastolic: 80, Pulse: 70},
		{ID: "r-new", UserID: owner.ID, TakenAt: base.Add(48 * time.Hour), Systolic: 125, Diastolic: 82, Pulse: 72},
		{ID: "r-mid", UserID: owner.ID, TakenAt: base.Add(24 * time.Hour), Systolic: 118, Diastolic: 76, Pulse: 68},
		{ID: "r-other", UserID: other.ID, TakenAt: base, Systolic: 140, Diastolic: 90, Pulse: 80},
	} {
		reading := reading
		if err := repos.Readings.Create(&reading); err != nil {
			t.Fatalf("create reading %d: %v", index, err)
		}
	}

	readings, err := repos.Readings.ListByUser(owner.ID)
	if err != nil {
		t.Fatalf("ListByUser() unexpected error: %v", err)
	}
	if len(readings) != 3 {
		t.Fatalf("expected 3 readings, got %d", len(readings))
	}
	if readings[0].ID != "r-new" || readings[1].ID != "r-mid" || readings[2].ID != "r-old" {
		t.Fatalf("expected newest-first order, got %s,%s,%s", readings[0].ID, readings[1].ID, readings[2].ID)
	}

	from := base.Add(24 * time.Hour)
	to := base.Add(48 * time.Hour)
	ranged, err := repos.Readings.ListByUserRange(owner.ID, &from, &to)
	if err != nil {
		t.Fatalf("ListByUserRange() unexpected error: %v", err)
	}
	if len(ranged) != 1 || ranged[0].ID != "r-mid" {
		t.Fatalf("expected only r-mid in range, got %#v", ranged)
	}

	if _, found, err := repos.Readings.FindByUserAndID(owner.ID, "r-other"); err != nil || found {
		t.Fatalf("expected other user's reading to be hidden, found=%v err=%v", found, err)
	}

	deleted, err := repos.Readings.DeleteByUserAndID(owner.ID, "r-other")
	if err != nil {
		t.Fatalf("DeleteByUserAndID() unexpected error: %v", err)
	}
	if deleted {
		t.Fatal("expected delete of another user's reading to be a no-op")
	}
}

func TestReadingSyncFlags(t *testing.T) {
	repos := NewRepositories(openTestDatabase(t))
	user := createTestUser(t, repos, "sync@example.com")

	reading := models.Reading{ID: "r-1", UserID: user.ID, TakenAt: time.Now().UTC(), Systolic: 120, Diastolic: 80, Pulse: 70}
	if err := repos.Readings.Create(&reading); err != nil {
		t.Fatalf("create reading: %v", err)
	}

	if err := repos.Readings.MarkSynced(user.ID, "r-1", "evt-1"); err != nil {
		t.Fatalf("MarkSynced() unexpected error: %v", err)
	}
	stored, _, _ := repos.Readings.FindByUserAndID(user.ID, "r-1")
	if !stored.SyncedToCalendar || stored.CalendarEventID != "evt-1" {
		t.Fatalf("expected synced reading with event id, got %#v", stored)
	}

	if err := repos.Readings.MarkUnsynced(user.ID, "r-1"); err != nil {
		t.Fatalf("MarkUnsynced() unexpected error: %v", err)
	}
	stored, _, _ = repos.Readings.FindByUserAndID(user.ID, "r-1")
	if stored.SyncedToCalendar || stored.CalendarEventID != "" {
		t.Fatalf("expected unsynced reading, got %#v", stored)
	}

	if err := repos.Readings.MarkSynced(user.ID, "missing", "evt"); err == nil {
		t.Fatal("expected error when marking a missing reading")
	}
}

func TestCalendarConfigLoadSaveDelete(t *testing.T) {
	repos := NewRepositories(openTestDatabase(t))
	user := createTestUser(t, repos, "cal@example.com")

	config, err := repos.CalendarConfigs.Load(user.ID)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if config.Enabled || config.CalendarID != models.DefaultCalendarID {
		t.Fatalf("expected disabled default config, got %#v", config)
	}

	syncedAt := time.Date(2026, time.April, 1, 12, 0, 0, 0, time.UTC)
	config = models.CalendarSyncConfig{
		UserID:       user.ID,
		Enabled:      true,
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    syncedAt.Add(time.Hour).UnixMilli(),
		CalendarID:   "work",
		AutoSync:     true,
		LastSyncedAt: &syncedAt,
	}
	if err := repos.CalendarConfigs.Save(&config); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}

	config.AccessToken = "access-2"
	if err := repos.CalendarConfigs.Save(&config); err != nil {
		t.Fatalf("second Save() unexpected error: %v", err)
	}

	loaded, err := repos.CalendarConfigs.Load(user.ID)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if !loaded.Enabled || loaded.AccessToken != "access-2" || loaded.CalendarID != "work" || !loaded.AutoSync {
		t.Fatalf("unexpected loaded config: %#v", loaded)
	}
	if loaded.LastSyncedAt == nil || !loaded.LastSyncedAt.Equal(syncedAt) {
		t.Fatalf("expected last synced at %v, got %v", syncedAt, loaded.LastSyncedAt)
	}

	if err := repos.CalendarConfigs.Delete(user.ID); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	loaded, _ = repos.CalendarConfigs.Load(user.ID)
	if loaded.Enabled {
		t.Fatal("expected config to be gone after delete")
	}
}

func TestDeleteAccountRemovesRelatedData(t *testing.T) {
	repos := NewRepositories(openTestDatabase(t))
	user := createTestUser(t, repos, "gone@example.com")

	reading := models.Reading{ID: "r-1", UserID: user.ID, TakenAt: time.Now().UTC(), Systolic: 120, Diastolic: 80, Pulse: 70}
	if err := repos.Readings.Create(&reading); err != nil {
		t.Fatalf("create reading: %v", err)
	}

	if err := repos.Users.DeleteAccountAndRelatedData(user.ID); err != nil {
		t.Fatalf("DeleteAccountAndRelatedData() unexpected error: %v", err)
	}

	readings, err := repos.Readings.ListByUser(user.ID)
	if err != nil {
		t.Fatalf("ListByUser() unexpected error: %v", err)
	}
	if len(readings) != 0 {
		t.Fatalf("expected readings to be deleted, got %d", len(readings))
	}
	if _, found, _ := repos.Targets.FindByUserID(user.ID); found {
		t.Fatal("expected targets to be deleted")
	}
	if _, err := repos.Users.FindByID(user.ID); err == nil {
		t.Fatal("expected user to be deleted")
	}
}
