// Package archive uploads passphrase-encrypted habit exports to S3-compatible
// storage and restores them.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/multierr"

	"github.com/dukerupert/habitloop/internal/config"
	"github.com/dukerupert/habitloop/internal/export"
	"github.com/dukerupert/habitloop/internal/model"
	"github.com/dukerupert/habitloop/internal/store"
)

var (
	ErrDisabled           = errors.New("archives not configured: S3 credentials missing")
	ErrNotFound           = errors.New("archive not found")
	ErrNotCompleted       = errors.New("archive upload did not complete")
	ErrPassphraseRequired = errors.New("passphrase is required")
)

const DefaultListLimit = 50

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

type Status struct {
	State       State      `json:"state"`
	LastArchive *time.Time `json:"last_archive,omitempty"`
	Error       string     `json:"error,omitempty"`
	InProgress  bool       `json:"in_progress"`
}

// Manager runs archive uploads and restores for all users.
type Manager struct {
	mu     sync.RWMutex
	bucket string
	status Status
	client s3Client

	archives *store.ArchiveStore
	habits   *store.HabitStore
	logger   *slog.Logger
	now      func() time.Time
}

func NewManager(cfg config.S3Config, as *store.ArchiveStore, hs *store.HabitStore, logger *slog.Logger) *Manager {
	m := &Manager{
		bucket:   cfg.Bucket,
		archives: as,
		habits:   hs,
		logger:   logger,
		now:      time.Now,
		status:   Status{State: StateDisabled},
	}
	if cfg.Enabled() {
		m.client = newS3Client(cfg)
		m.status.State = StateIdle
	}
	return m
}

func newS3Client(cfg config.S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client != nil
}

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	if s.LastArchive == nil {
		s.LastArchive = m.status.LastArchive
	}
	m.status = s
	m.mu.Unlock()
}

// ObjectKey returns <userID>/habits-<timestamp>.json.enc.
func ObjectKey(userID int64, at time.Time) (key, filename string) {
	filename = fmt.Sprintf("habits-%s.json.enc", at.UTC().Format("2006-01-02T150405Z"))
	return fmt.Sprintf("%d/%s", userID, filename), filename
}

// RunNow exports the user's habits as JSON, encrypts the export and uploads it.
func (m *Manager) RunNow(ctx context.Context, userID int64, passphrase string) (*model.Archive, error) {
	if passphrase == "" {
		return nil, ErrPassphraseRequired
	}
	m.mu.RLock()
	client := m.client
	bucket := m.bucket
	m.mu.RUnlock()
	if client == nil {
		return nil, ErrDisabled
	}

	m.setStatus(Status{State: StateRunning, InProgress: true})

	now := m.now()
	s3Key, filename := ObjectKey(userID, now)
	record, err := m.archives.Create(userID, filename, s3Key)
	if err != nil {
		m.setStatus(Status{State: StateError, Error: err.Error()})
		return nil, fmt.Errorf("create archive record: %w", err)
	}

	fail := func(step string, err error) (*model.Archive, error) {
		if uerr := m.archives.UpdateStatus(record.ID, model.ArchiveStatusFailed, err.Error()); uerr != nil {
			m.logger.Error("mark archive failed", "id", record.ID, "error", uerr)
		}
		m.setStatus(Status{State: StateError, Error: err.Error()})
		return nil, fmt.Errorf("%s: %w", step, err)
	}

	habits, err := m.habits.List(userID)
	if err != nil {
		return fail("list habits", err)
	}

	var plain bytes.Buffer
	if err := export.Write(&plain, export.FormatJSON, export.NewData(habits, now)); err != nil {
		return fail("export habits", err)
	}

	sealed, err := Encrypt(plain.Bytes(), passphrase)
	if err != nil {
		return fail("encrypt", err)
	}

	if err := m.archives.UpdateStatus(record.ID, model.ArchiveStatusUploading, ""); err != nil {
		return fail("mark uploading", err)
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(s3Key),
		Body:          bytes.NewReader(sealed),
		ContentLength: aws.Int64(int64(len(sealed))),
	})
	if err != nil {
		return fail("upload to s3", err)
	}

	if err := m.archives.UpdateCompleted(record.ID, int64(len(sealed)), len(habits)); err != nil {
		return fail("mark completed", err)
	}

	done := m.now().UTC()
	m.setStatus(Status{State: StateIdle, LastArchive: &done})
	m.logger.Info("archive uploaded", "user_id", userID, "key", s3Key, "habits", len(habits))

	return m.archives.GetByID(record.ID, userID)
}

func (m *Manager) List(userID int64, limit int) ([]model.Archive, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return m.archives.List(userID, limit)
}

// Restore downloads and decrypts an archive and imports its habits for the
// user. It returns how many habits were imported.
func (m *Manager) Restore(ctx context.Context, archiveID, userID int64, passphrase string) (int, error) {
	if passphrase == "" {
		return 0, ErrPassphraseRequired
	}
	m.mu.RLock()
	client := m.client
	bucket := m.bucket
	m.mu.RUnlock()
	if client == nil {
		return 0, ErrDisabled
	}

	record, err := m.archives.GetByID(archiveID, userID)
	if err != nil {
		return 0, fmt.Errorf("get archive: %w", err)
	}
	if record == nil {
		return 0, ErrNotFound
	}
	if record.Status != model.ArchiveStatusCompleted {
		return 0, ErrNotCompleted
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(record.S3Key),
	})
	if err != nil {
		return 0, fmt.Errorf("download from s3: %w", err)
	}
	defer result.Body.Close()

	sealed, err := io.ReadAll(result.Body)
	if err != nil {
		return 0, fmt.Errorf("read archive: %w", err)
	}

	plain, err := Decrypt(sealed, passphrase)
	if err != nil {
		return 0, fmt.Errorf("decrypt archive: %w", err)
	}

	data, err := export.Decode(bytes.NewReader(plain), export.FormatJSON)
	if err != nil {
		return 0, err
	}

	n, err := m.habits.Import(userID, data.Habits)
	if err != nil {
		return 0, fmt.Errorf("import habits: %w", err)
	}
	m.logger.Info("archive restored", "user_id", userID, "archive_id", archiveID, "habits", n)
	return n, nil
}

// Cleanup deletes archives older than the retention period. Rows are removed
// even when deleting an object fails; those failures are returned together.
func (m *Manager) Cleanup(ctx context.Context, userID int64, retentionDays int) (int, error) {
	m.mu.RLock()
	client := m.client
	bucket := m.bucket
	m.mu.RUnlock()
	if client == nil {
		return 0, nil
	}

	before := m.now().UTC().AddDate(0, 0, -retentionDays)
	keys, err := m.archives.DeleteOlderThan(userID, before)
	if err != nil {
		return 0, fmt.Errorf("delete old archives: %w", err)
	}

	var errs error
	for _, key := range keys {
		if _, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}); err != nil {
			m.logger.Warn("delete archive object", "key", key, "error", err)
			errs = multierr.Append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	return len(keys), errs
}
