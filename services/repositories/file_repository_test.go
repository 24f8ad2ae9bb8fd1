package repositories

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lac-hong-legacy/sharegate/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	// every pooled connection would otherwise get its own empty database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(&model.User{}, &model.File{}, &model.DownloadLog{}, &model.SecurityEvent{}); err != nil {
		t.Fatal(err)
	}
	return db
}

func TestFailedAttemptsCounter(t *testing.T) {
	repo := NewFileRepository(newTestDB(t))
	file := &model.File{ShortCode: "abc", FileName: "a.txt", ObjectKey: "k", FileSize: 10}
	if err := repo.CreateFile(file); err != nil {
		t.Fatal(err)
	}

	for want := 1; want <= 3; want++ {
		got, err := repo.IncrementFailedAttempts(file.ID)
		if err != nil || got != want {
			t.Fatalf("IncrementFailedAttempts = %d, %v; want %d", got, err, want)
		}
	}

	if err := repo.ResetFailedAttempts(file.ID); err != nil {
		t.Fatal(err)
	}
	stored, err := repo.GetFileByShortCode("abc")
	if err != nil || stored.FailedPasswordAttempts != 0 {
		t.Fatalf("after reset: %+v, %v", stored, err)
	}

	if _, err := repo.IncrementFailedAttempts("missing"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("missing file err = %v", err)
	}
}

func TestDeletedFilesAreHidden(t *testing.T) {
	repo := NewFileRepository(newTestDB(t))
	file := &model.File{ShortCode: "gone", FileName: "a.txt", ObjectKey: "k", Deleted: true}
	if err := repo.CreateFile(file); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetFileByShortCode("gone"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("deleted file lookup err = %v", err)
	}
}

func TestRecordDownload(t *testing.T) {
	repo := NewFileRepository(newTestDB(t))
	file := &model.File{ShortCode: "dl", FileName: "a.txt", ObjectKey: "k", FileSize: 100}
	if err := repo.CreateFile(file); err != nil {
		t.Fatal(err)
	}

	at := time.Now()
	if err := repo.RecordDownload(file.ID, 100, 1, at); err != nil {
		t.Fatal(err)
	}
	if err := repo.RecordDownload(file.ID, 100, 2, at); err != nil {
		t.Fatal(err)
	}

	stored, err := repo.GetFile(file.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.DownloadCount != 2 || stored.BandwidthUsed != 200 || stored.UniqueDownloaders != 2 || stored.LastDownloadAt == nil {
		t.Fatalf("unexpected counters %+v", stored)
	}
}

func TestRecordDownloadHonoursLimitUnderConcurrency(t *testing.T) {
	repo := NewFileRepository(newTestDB(t))
	limit := 3
	file := &model.File{ShortCode: "once", FileName: "a.txt", ObjectKey: "k", FileSize: 10, MaxDownloads: &limit, DownloadCount: 2}
	if err := repo.CreateFile(file); err != nil {
		t.Fatal(err)
	}

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		served  int
		refused int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			err := repo.RecordDownload(file.ID, 10, int64(n), time.Now())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				served++
			case errors.Is(err, ErrDownloadLimitReached):
				refused++
			default:
				t.Errorf("RecordDownload: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if served != 1 || refused != workers-1 {
		t.Fatalf("served %d, refused %d", served, refused)
	}
	stored, err := repo.GetFile(file.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.DownloadCount != 3 || stored.BandwidthUsed != 10 {
		t.Fatalf("counters overshot: %+v", stored)
	}
}

func TestAbuseQueries(t *testing.T) {
	repo := NewFileRepository(newTestDB(t))
	now := time.Now()
	owner := "user-1"
	past := now.Add(-time.Hour)

	files := []*model.File{
		{ShortCode: "a", UserID: &owner, UploadIP: "ip-1"},
		{ShortCode: "b", UserID: &owner, UploadIP: "ip-1", ExpiresAt: &past},
		{ShortCode: "c", UploadIP: "ip-1"},
	}
	for _, f := range files {
		f.FileName, f.ObjectKey = "x", "k"
		if err := repo.CreateFile(f); err != nil {
			t.Fatal(err)
		}
	}

	since := now.Add(-24 * time.Hour)
	listed, err := repo.ListFilesSince(owner, since)
	if err != nil || len(listed) != 2 {
		t.Fatalf("ListFilesSince = %d, %v", len(listed), err)
	}
	active, err := repo.CountActiveFiles(owner, now)
	if err != nil || active != 1 {
		t.Fatalf("CountActiveFiles = %d, %v", active, err)
	}
	uploads, err := repo.CountUploadsByIPSince("ip-1", since)
	if err != nil || uploads != 3 {
		t.Fatalf("CountUploadsByIPSince = %d, %v", uploads, err)
	}
	owners, err := repo.ListActiveOwners(since)
	if err != nil || len(owners) != 1 || owners[0] != owner {
		t.Fatalf("ListActiveOwners = %v, %v", owners, err)
	}
}

func TestGetUserByLogin(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	user := &model.User{Email: " Alice@Example.com ", Username: "alice", PasswordHash: "x", Tier: "free", IsActive: true}
	if err := repo.CreateUser(user); err != nil {
		t.Fatal(err)
	}

	for _, login := range []string{"alice@example.com", "ALICE@example.com", "alice"} {
		got, err := repo.GetUserByLogin(login)
		if err != nil || got.ID != user.ID {
			t.Errorf("GetUserByLogin(%q) = %v, %v", login, got, err)
		}
	}
	if _, err := repo.GetUserByLogin("bob"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("unknown login err = %v", err)
	}
}

func TestSecurityEventsFilter(t *testing.T) {
	repo := NewSecurityEventRepository(newTestDB(t))
	for _, id := range []string{"ip:1", "ip:1", "ip:2"} {
		if err := repo.CreateSecurityEvent(&model.SecurityEvent{EventType: "token_replay", Severity: "high", Identifier: id}); err != nil {
			t.Fatal(err)
		}
	}

	events, err := repo.ListSecurityEvents("ip:1", time.Now().Add(-time.Hour), 10)
	if err != nil || len(events) != 2 {
		t.Fatalf("ListSecurityEvents = %d, %v", len(events), err)
	}
	events, err = repo.ListSecurityEvents("", time.Now().Add(-time.Hour), 2)
	if err != nil || len(events) != 2 {
		t.Fatalf("limited list = %d, %v", len(events), err)
	}
}
