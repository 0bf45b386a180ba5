package attachment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/attachment"
	"github.com/procurement/backend/internal/domain/audit"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFileRepository struct {
	mock.Mock
}

func (m *MockFileRepository) Create(ctx context.Context, file *attachment.File) error {
	return m.Called(ctx, file).Error(0)
}

func (m *MockFileRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*attachment.File, error) {
	args := m.Called(ctx, tenantID, id)
	if f, ok := args.Get(0).(*attachment.File); ok {
		return f, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFileRepository) FindBySubject(ctx context.Context, tenantID uuid.UUID, subject shared.SubjectRef) ([]*attachment.File, error) {
	args := m.Called(ctx, tenantID, subject)
	files, _ := args.Get(0).([]*attachment.File)
	return files, args.Error(1)
}

func (m *MockFileRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

type MockRemarkRepository struct {
	mock.Mock
}

func (m *MockRemarkRepository) Create(ctx context.Context, remark *attachment.Remark) error {
	return m.Called(ctx, remark).Error(0)
}

func (m *MockRemarkRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*attachment.Remark, error) {
	args := m.Called(ctx, tenantID, id)
	if r, ok := args.Get(0).(*attachment.Remark); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRemarkRepository) FindBySubject(ctx context.Context, tenantID uuid.UUID, subject shared.SubjectRef, filter shared.Filter) ([]*attachment.Remark, int64, error) {
	args := m.Called(ctx, tenantID, subject, filter)
	remarks, _ := args.Get(0).([]*attachment.Remark)
	return remarks, args.Get(1).(int64), args.Error(2)
}

func (m *MockRemarkRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

type MockActivityLogRepository struct {
	mock.Mock
}

func (m *MockActivityLogRepository) Create(ctx context.Context, log *audit.ActivityLog) error {
	return m.Called(ctx, log).Error(0)
}

func (m *MockActivityLogRepository) FindBySubject(ctx context.Context, tenantID uuid.UUID, subject shared.SubjectRef, filter shared.Filter) ([]*audit.ActivityLog, int64, error) {
	args := m.Called(ctx, tenantID, subject, filter)
	return args.Get(0).([]*audit.ActivityLog), args.Get(1).(int64), args.Error(2)
}

func (m *MockActivityLogRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*audit.ActivityLog, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*audit.ActivityLog), args.Get(1).(int64), args.Error(2)
}

type stubSubjects struct {
	exists bool
}

func (s stubSubjects) Exists(context.Context, uuid.UUID, shared.SubjectRef) (bool, error) {
	return s.exists, nil
}

// objectStore records uploads and deletions in memory
type objectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	failPut bool
}

func newObjectStore() *objectStore {
	return &objectStore{objects: make(map[string][]byte)}
}

func (s *objectStore) Upload(_ context.Context, key string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut {
		return errors.New("bucket unreachable")
	}
	s.objects[key] = data
	return nil
}

func (s *objectStore) GenerateDownloadURL(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	return "https://objects.test/" + key, time.Now().Add(expiresIn), nil
}

func (s *objectStore) DeleteObject(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

var testTenant = uuid.MustParse("9b3a3a2e-5f0c-4d7e-9a55-0c1b2f7e4d11")

func principal(role identity.Role, codes ...string) identity.Principal {
	return identity.NewPrincipalFromCodes(uuid.New(), testTenant, "tess", role, "10.0.0.1", codes)
}

type fileFixture struct {
	files   *MockFileRepository
	remarks *MockRemarkRepository
	logs    *MockActivityLogRepository
	store   *objectStore
	svc     *FileService
}

func newFileFixture(subjectExists bool) *fileFixture {
	f := &fileFixture{
		files:   new(MockFileRepository),
		remarks: new(MockRemarkRepository),
		logs:    new(MockActivityLogRepository),
		store:   newObjectStore(),
	}
	scope := NewNoOpTransactionScope(f.files, f.remarks, f.logs)
	f.svc = NewFileService(f.files, scope, stubSubjects{exists: subjectExists}, f.store, nil)
	return f
}

func pdf(name string) Upload {
	return Upload{Name: name, ContentType: "application/pdf", Data: []byte("%PDF-1.7")}
}

func TestFileService_Upload(t *testing.T) {
	ctx := context.Background()
	invoiceID := uuid.New()
	writer := principal(identity.RoleAccounting, "invoices:write")

	t.Run("stores object then records row and activity", func(t *testing.T) {
		f := newFileFixture(true)
		f.files.On("Create", ctx, mock.AnythingOfType("*attachment.File")).Return(nil)
		f.logs.On("Create", ctx, mock.MatchedBy(func(l *audit.ActivityLog) bool {
			return l.Action == audit.ActionFileUploaded && l.Subject.ID == invoiceID
		})).Return(nil)

		resp, err := f.svc.Upload(ctx, writer, "invoice", invoiceID, pdf("SI-1001.pdf"))
		require.NoError(t, err)
		assert.Equal(t, "SI-1001.pdf", resp.OriginalName)
		assert.Equal(t, "invoice", resp.SubjectType)
		assert.Len(t, f.store.objects, 1)
		f.files.AssertExpectations(t)
		f.logs.AssertExpectations(t)
	})

	t.Run("failed transaction removes the stored object", func(t *testing.T) {
		f := newFileFixture(true)
		f.files.On("Create", ctx, mock.Anything).Return(errors.New("connection reset"))

		_, err := f.svc.Upload(ctx, writer, "invoice", invoiceID, pdf("SI-1002.pdf"))
		require.Error(t, err)
		assert.Empty(t, f.store.objects)
		assert.Len(t, f.store.deleted, 1)
		f.logs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("read grant cannot upload", func(t *testing.T) {
		f := newFileFixture(true)
		reader := principal(identity.RoleExecutive, "invoices:read")

		_, err := f.svc.Upload(ctx, reader, "invoice", invoiceID, pdf("SI-1003.pdf"))
		assert.ErrorIs(t, err, shared.ErrForbidden)
		assert.Empty(t, f.store.objects)
	})

	t.Run("unknown subject", func(t *testing.T) {
		f := newFileFixture(false)
		_, err := f.svc.Upload(ctx, writer, "invoice", invoiceID, pdf("SI-1004.pdf"))
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Empty(t, f.store.objects)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		f := newFileFixture(true)
		_, err := f.svc.Upload(ctx, writer, "invoice", invoiceID, Upload{Name: "macro.xlsm", Data: []byte("x")})
		var verr *shared.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Empty(t, f.store.objects)
	})

	t.Run("storage outage", func(t *testing.T) {
		f := newFileFixture(true)
		f.store.failPut = true
		_, err := f.svc.Upload(ctx, writer, "invoice", invoiceID, pdf("SI-1005.pdf"))
		require.Error(t, err)
		f.files.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestFileService_Download(t *testing.T) {
	ctx := context.Background()
	reader := principal(identity.RoleTreasury, "disbursements:read")
	subject, err := shared.NewSubjectRef("disbursement", uuid.New())
	require.NoError(t, err)
	file, err := attachment.NewFile(testTenant, subject, "voucher.pdf", 128, nil)
	require.NoError(t, err)

	f := newFileFixture(true)
	f.files.On("FindByID", ctx, testTenant, file.ID).Return(file, nil)
	f.svc.SetDownloadExpiry(time.Minute)

	resp, err := f.svc.Download(ctx, reader, file.ID)
	require.NoError(t, err)
	assert.Contains(t, resp.URL, file.StorageKey)
	assert.Equal(t, "voucher.pdf", resp.FileName)
	assert.WithinDuration(t, time.Now().Add(time.Minute), resp.ExpiresAt, 5*time.Second)

	t.Run("without storage", func(t *testing.T) {
		files := new(MockFileRepository)
		files.On("FindByID", ctx, testTenant, file.ID).Return(file, nil)
		svc := NewFileService(files, NewNoOpTransactionScope(files, nil, nil), nil, nil, nil)

		_, err := svc.Download(ctx, reader, file.ID)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "STORAGE_UNAVAILABLE", derr.Code)
	})

	t.Run("other module", func(t *testing.T) {
		outsider := principal(identity.RolePurchasing, "purchase_orders:write")
		_, err := f.svc.Download(ctx, outsider, file.ID)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func TestRemarkService_Delete(t *testing.T) {
	ctx := context.Background()
	author := principal(identity.RoleAccounting, "invoices:read")
	subject, err := shared.NewSubjectRef("invoice", uuid.New())
	require.NoError(t, err)
	remark, err := attachment.NewRemark(testTenant, subject, "Waiting for the OR copy", author.UserID, author.Username)
	require.NoError(t, err)

	tests := []struct {
		name    string
		p       identity.Principal
		wantErr error
	}{
		{"author", author, nil},
		{"admin", principal(identity.RoleAdmin), nil},
		{"another reader", principal(identity.RoleExecutive, "invoices:read"), shared.ErrForbidden},
		{"no access to the subject", principal(identity.RoleTreasury, "disbursements:write"), shared.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRemarkRepository)
			repo.On("FindByID", ctx, testTenant, remark.ID).Return(remark, nil)
			repo.On("Delete", ctx, testTenant, remark.ID).Return(nil).Maybe()

			err := NewRemarkService(repo, nil).Delete(ctx, tt.p, remark.ID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			repo.AssertCalled(t, "Delete", ctx, testTenant, remark.ID)
		})
	}
}

func TestRemarkService_CreateNeedsOnlyRead(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRemarkRepository)
	repo.On("Create", ctx, mock.AnythingOfType("*attachment.Remark")).Return(nil)

	resp, err := NewRemarkService(repo, stubSubjects{exists: true}).Create(ctx,
		principal(identity.RoleExecutive, "check_requisitions:read"),
		CreateRemarkRequest{SubjectType: "check_requisition", SubjectID: uuid.New(), Body: "  please attach the SOA  "})
	require.NoError(t, err)
	assert.Equal(t, "please attach the SOA", resp.Body)
}
