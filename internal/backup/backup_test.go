package backup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dukerupert/tally/internal/database"
	"github.com/dukerupert/tally/internal/model"
	"github.com/dukerupert/tally/internal/store"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	getErr  error
	delErr  error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, &s3NotFound{}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(data)),
	}, nil
}

func (m *mockS3Client) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if m.delErr != nil {
		return nil, m.delErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

type s3NotFound struct{}

func (e *s3NotFound) Error() string { return "NoSuchKey" }

// memSource is an in-memory Source holding one blob.
type memSource struct {
	mu        sync.Mutex
	blob      []byte
	importErr error
}

func (s *memSource) ExportBlob() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.blob...), nil
}

func (s *memSource) ImportBlob(_ context.Context, text []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.importErr != nil {
		return s.importErr
	}
	s.blob = append([]byte(nil), text...)
	return nil
}

var testS3 = S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret", Region: "auto"}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupManager(t *testing.T, src Source) (*Manager, *mockS3Client) {
	m, mock, _ := setupManagerDB(t, src)
	return m, mock
}

func setupManagerDB(t *testing.T, src Source) (*Manager, *mockS3Client, *sql.DB) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m := NewManager(Config{S3: testS3, Passphrase: "family secret"}, store.NewBackupStore(db), src, quietLogger(), nil)
	mock := newMockS3()
	m.client = mock
	return m, mock, db
}

func TestManagerStateLifecycle(t *testing.T) {
	// Without S3 config -> disabled
	m := NewManager(Config{}, nil, nil, quietLogger(), nil)
	if m.Status().State != StateDisabled {
		t.Errorf("state = %q, want %q", m.Status().State, StateDisabled)
	}
	if m.Enabled() {
		t.Error("expected disabled manager")
	}

	// With S3 config -> idle
	m2 := NewManager(Config{S3: testS3}, nil, nil, quietLogger(), nil)
	if m2.Status().State != StateIdle {
		t.Errorf("state = %q, want %q", m2.Status().State, StateIdle)
	}
}

func TestManagerStatusCallback(t *testing.T) {
	var received []Status
	var mu sync.Mutex
	cb := func(s Status) {
		mu.Lock()
		received = append(received, s)
		mu.Unlock()
	}

	m := NewManager(Config{S3: testS3}, nil, nil, quietLogger(), cb)

	m.setStatus(Status{State: StateRunning, InProgress: true})
	m.setStatus(Status{State: StateIdle})

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 2 {
		t.Fatalf("received %d callbacks, want 2", len(received))
	}
	if received[0].State != StateRunning {
		t.Errorf("first callback state = %q, want %q", received[0].State, StateRunning)
	}
	if received[1].State != StateIdle {
		t.Errorf("second callback state = %q, want %q", received[1].State, StateIdle)
	}
}

func TestManagerStopSafety(t *testing.T) {
	m := NewManager(Config{S3: testS3}, nil, nil, quietLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	cancel()
	m.Stop()

	// Double stop should not panic
	m.Stop()
}

func TestManagerDisabledNoStart(t *testing.T) {
	m := NewManager(Config{}, nil, nil, quietLogger(), nil)

	m.Start(context.Background()) // should be a no-op for disabled state

	// Stop should not block
	m.Stop()
}

func TestRunNowAndRestore(t *testing.T) {
	original := []byte(`{"data":{"2024-03-15":{}},"config":{"members":{},"tasks":{}}}`)
	src := &memSource{blob: original}
	m, mock := setupManager(t, src)
	ctx := context.Background()

	id, err := m.RunNow(ctx, "")
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}

	backups, err := m.List(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(backups) != 1 || backups[0].ID != id {
		t.Fatalf("backups = %+v", backups)
	}
	b := backups[0]
	if b.Status != model.BackupStatusCompleted {
		t.Errorf("status = %q, want completed", b.Status)
	}
	stored, ok := mock.objects[b.S3Key]
	if !ok {
		t.Fatalf("no object uploaded at %q", b.S3Key)
	}
	if int64(len(stored)) != b.SizeBytes {
		t.Errorf("size = %d, uploaded %d bytes", b.SizeBytes, len(stored))
	}
	if bytes.Contains(stored, []byte("2024-03-15")) {
		t.Error("uploaded object is not encrypted")
	}
	if st := m.Status(); st.State != StateIdle || st.LastBackup == nil {
		t.Errorf("status = %+v", st)
	}

	src.blob = []byte(`{"data":{},"config":{}}`)
	if err := m.Restore(ctx, id, ""); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !bytes.Equal(src.blob, original) {
		t.Errorf("restored blob = %s", src.blob)
	}
}

func TestRestoreWrongPassphrase(t *testing.T) {
	src := &memSource{blob: []byte(`{"data":{},"config":{}}`)}
	m, _ := setupManager(t, src)
	ctx := context.Background()

	id, err := m.RunNow(ctx, "")
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}
	src.blob = []byte("current")

	err = m.Restore(ctx, id, "guess")
	if !errors.Is(err, ErrDecrypt) {
		t.Errorf("err = %v, want ErrDecrypt", err)
	}
	if string(src.blob) != "current" {
		t.Error("failed restore changed the data")
	}
}

func TestRestoreImportError(t *testing.T) {
	src := &memSource{blob: []byte(`{}`)}
	m, _ := setupManager(t, src)
	ctx := context.Background()

	id, _ := m.RunNow(ctx, "")
	src.importErr = errors.New("format error")

	if err := m.Restore(ctx, id, ""); err == nil {
		t.Fatal("expected import error")
	}
}

func TestRestoreUnknownBackup(t *testing.T) {
	m, _ := setupManager(t, &memSource{})

	err := m.Restore(context.Background(), 42, "")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRunNowUploadFailure(t *testing.T) {
	m, mock := setupManager(t, &memSource{blob: []byte(`{}`)})
	mock.putErr = errors.New("connection refused")

	if _, err := m.RunNow(context.Background(), ""); err == nil {
		t.Fatal("expected upload error")
	}

	backups, _ := m.List(10)
	if len(backups) != 1 {
		t.Fatalf("backups = %d, want 1", len(backups))
	}
	if backups[0].Status != model.BackupStatusFailed || backups[0].ErrorMessage == "" {
		t.Errorf("record = %+v, want failed with message", backups[0])
	}
	if m.Status().State != StateError {
		t.Errorf("state = %q, want error", m.Status().State)
	}
}

func TestRunNowDisabledOrNoPassphrase(t *testing.T) {
	disabled := NewManager(Config{}, nil, &memSource{}, quietLogger(), nil)
	if _, err := disabled.RunNow(context.Background(), "p"); !errors.Is(err, ErrDisabled) {
		t.Errorf("disabled err = %v, want ErrDisabled", err)
	}

	m := NewManager(Config{S3: testS3}, nil, &memSource{}, quietLogger(), nil)
	m.client = newMockS3()
	if _, err := m.RunNow(context.Background(), ""); !errors.Is(err, ErrNoPassphrase) {
		t.Errorf("no passphrase err = %v, want ErrNoPassphrase", err)
	}
}

func TestCleanup(t *testing.T) {
	m, mock, db := setupManagerDB(t, &memSource{blob: []byte(`{}`)})
	ctx := context.Background()

	oldID, err := m.RunNow(ctx, "")
	if err != nil {
		t.Fatalf("run old: %v", err)
	}
	if _, err := m.RunNow(ctx, ""); err != nil {
		t.Fatalf("run new: %v", err)
	}
	old, _ := m.records.GetByID(oldID)

	// Age the first backup past the retention window.
	if _, err := db.Exec(`UPDATE backups SET created_at = ? WHERE id = ?`, time.Now().UTC().AddDate(0, 0, -40), oldID); err != nil {
		t.Fatalf("age backup: %v", err)
	}

	if err := m.Cleanup(ctx, 30); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, ok := mock.objects[old.S3Key]; ok {
		t.Error("old object should be deleted from S3")
	}
	backups, _ := m.List(10)
	if len(backups) != 1 {
		t.Errorf("backups after cleanup = %d, want 1", len(backups))
	}
}
