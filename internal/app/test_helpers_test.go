package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/bpbot/internal/ports/secondary"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// mockIdentityRepository implements secondary.IdentityRepository for testing.
type mockIdentityRepository struct {
	identities  map[int64]*secondary.IdentityRecord
	getErr      error
	registerErr error
	setErr      error
	bulkErr     error
	listErr     error
	setCalls    int
}

func newMockIdentityRepository() *mockIdentityRepository {
	return &mockIdentityRepository{identities: make(map[int64]*secondary.IdentityRecord)}
}

func (m *mockIdentityRepository) GetByID(ctx context.Context, id int64) (*secondary.IdentityRecord, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if rec, ok := m.identities[id]; ok {
		cp := *rec
		return &cp, nil
	}
	return nil, secondary.ErrNotFound
}

func (m *mockIdentityRepository) Register(ctx context.Context, id int64, phone string, interfaceVersion string) (*secondary.IdentityRecord, bool, error) {
	if m.registerErr != nil {
		return nil, false, m.registerErr
	}
	if rec, ok := m.identities[id]; ok {
		return rec, false, nil
	}
	rec := &secondary.IdentityRecord{ID: id, Phone: phone, InterfaceVersion: interfaceVersion, CreatedAt: time.Now()}
	m.identities[id] = rec
	return rec, true, nil
}

func (m *mockIdentityRepository) SetInterfaceVersion(ctx context.Context, id int64, version string) error {
	m.setCalls++
	if m.setErr != nil {
		return m.setErr
	}
	rec, ok := m.identities[id]
	if !ok {
		return secondary.ErrNotFound
	}
	rec.InterfaceVersion = version
	return nil
}

func (m *mockIdentityRepository) BulkSetInterfaceVersion(ctx context.Context, version string) (int64, error) {
	if m.bulkErr != nil {
		return 0, m.bulkErr
	}
	for _, rec := range m.identities {
		rec.InterfaceVersion = version
	}
	return int64(len(m.identities)), nil
}

func (m *mockIdentityRepository) ListIDs(ctx context.Context) ([]int64, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	ids := make([]int64, 0, len(m.identities))
	for id := range m.identities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// mockMeasurementRepository implements secondary.MeasurementRepository for testing.
type mockMeasurementRepository struct {
	records   []*secondary.MeasurementRecord
	appendErr error
	readErr   error
	clock     time.Time
}

func newMockMeasurementRepository() *mockMeasurementRepository {
	return &mockMeasurementRepository{clock: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (m *mockMeasurementRepository) Append(ctx context.Context, nm secondary.NewMeasurement) (int64, error) {
	if m.appendErr != nil {
		return 0, m.appendErr
	}
	m.clock = m.clock.Add(time.Minute)
	rec := &secondary.MeasurementRecord{
		ID:         int64(len(m.records) + 1),
		IdentityID: nm.IdentityID,
		Systolic:   nm.Systolic,
		Diastolic:  nm.Diastolic,
		Pulse:      nm.Pulse,
		Comment:    nm.Comment,
		RecordedAt: m.clock,
	}
	m.records = append(m.records, rec)
	return rec.ID, nil
}

func (m *mockMeasurementRepository) Recent(ctx context.Context, identityID int64, limit int) ([]*secondary.MeasurementRecord, error) {
	all, err := m.All(ctx, identityID)
	if err != nil {
		return nil, err
	}
	var out []*secondary.MeasurementRecord
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (m *mockMeasurementRepository) All(ctx context.Context, identityID int64) ([]*secondary.MeasurementRecord, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	var out []*secondary.MeasurementRecord
	for _, r := range m.records {
		if r.IdentityID == identityID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockMeasurementRepository) Count(ctx context.Context, identityID int64) (int, error) {
	all, err := m.All(ctx, identityID)
	return len(all), err
}

func (m *mockMeasurementRepository) Dump(ctx context.Context) ([]*secondary.MeasurementRecord, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	return m.records, nil
}

// mockSessionStore implements secondary.SessionStore for testing.
type mockSessionStore struct {
	sessions map[int64]*secondary.FormSessionRecord
	loadErr  error
	saveErr  error
	clearErr error
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: make(map[int64]*secondary.FormSessionRecord)}
}

func (m *mockSessionStore) Load(ctx context.Context, identityID int64) (*secondary.FormSessionRecord, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if rec, ok := m.sessions[identityID]; ok {
		cp := *rec
		return &cp, nil
	}
	return nil, nil
}

func (m *mockSessionStore) Save(ctx context.Context, session *secondary.FormSessionRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *session
	m.sessions[session.IdentityID] = &cp
	return nil
}

func (m *mockSessionStore) Clear(ctx context.Context, identityID int64) error {
	if m.clearErr != nil {
		return m.clearErr
	}
	delete(m.sessions, identityID)
	return nil
}

// sentMessage is one call recorded by mockMessenger.
type sentMessage struct {
	Kind     string // text, photo or document
	ChatID   int64
	Text     string // text body or caption
	Markup   *secondary.ReplyMarkup
	Filename string
	Content  []byte
}

// mockMessenger implements secondary.Messenger for testing.
type mockMessenger struct {
	mu     sync.Mutex
	sent   []sentMessage
	failBy map[int64]error
}

func newMockMessenger() *mockMessenger {
	return &mockMessenger{failBy: make(map[int64]error)}
}

func (m *mockMessenger) record(msg sentMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failBy[msg.ChatID]; err != nil {
		return err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *mockMessenger) SendText(ctx context.Context, chatID int64, text string, markup *secondary.ReplyMarkup) error {
	return m.record(sentMessage{Kind: "text", ChatID: chatID, Text: text, Markup: markup})
}

func (m *mockMessenger) SendPhoto(ctx context.Context, chatID int64, image []byte, caption string) error {
	return m.record(sentMessage{Kind: "photo", ChatID: chatID, Text: caption, Content: image})
}

func (m *mockMessenger) SendDocument(ctx context.Context, chatID int64, content []byte, filename, caption string) error {
	return m.record(sentMessage{Kind: "document", ChatID: chatID, Text: caption, Filename: filename, Content: content})
}

// last returns the most recent message, or the zero value.
func (m *mockMessenger) last() sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMessage{}
	}
	return m.sent[len(m.sent)-1]
}

// countTexts tallies sent messages by body.
func (m *mockMessenger) countTexts() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int)
	for _, msg := range m.sent {
		counts[msg.Text]++
	}
	return counts
}

func (m *mockMessenger) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}

// mockRenderer implements secondary.ReportRenderer for testing.
type mockRenderer struct {
	renderErr error
	rendered  int // number of readings in the last call
}

func (m *mockRenderer) Chart(ms []*secondary.MeasurementRecord) ([]byte, error) {
	return m.render("png", ms)
}

func (m *mockRenderer) Spreadsheet(ms []*secondary.MeasurementRecord) ([]byte, error) {
	return m.render("xlsx", ms)
}

func (m *mockRenderer) CSV(ms []*secondary.MeasurementRecord) ([]byte, error) {
	return m.render("csv", ms)
}

func (m *mockRenderer) render(kind string, ms []*secondary.MeasurementRecord) ([]byte, error) {
	if m.renderErr != nil {
		return nil, m.renderErr
	}
	m.rendered = len(ms)
	return []byte(kind), nil
}

// mockBackupStore implements secondary.BackupStore for testing.
type mockBackupStore struct {
	file      *secondary.BackupFile
	content   []byte
	createErr error
	readErr   error
}

func (m *mockBackupStore) LatestOrCreate(ctx context.Context, now time.Time) (*secondary.BackupFile, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.file, nil
}

func (m *mockBackupStore) Read(ctx context.Context, file *secondary.BackupFile) ([]byte, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	return m.content, nil
}

// ============================================================================
// Fixture
// ============================================================================

const testVersion = "1.1.1"

var errStorage = errors.New("disk I/O error")

type fixture struct {
	identities   *mockIdentityRepository
	measurements *mockMeasurementRepository
	sessions     *mockSessionStore
	messenger    *mockMessenger
	renderer     *mockRenderer
	backups      *mockBackupStore
	admin        *AdminServiceImpl
	service      *ConversationServiceImpl
}

func newFixture(adminIDs ...int64) *fixture {
	return newFixtureWithLogger(zap.NewNop(), adminIDs...)
}

func newFixtureWithLogger(logger *zap.Logger, adminIDs ...int64) *fixture {
	f := &fixture{
		identities:   newMockIdentityRepository(),
		measurements: newMockMeasurementRepository(),
		sessions:     newMockSessionStore(),
		messenger:    newMockMessenger(),
		renderer:     &mockRenderer{},
		backups: &mockBackupStore{
			file:    &secondary.BackupFile{Path: "/backups/db_2024-03-01-09-00.db", Name: "db_2024-03-01-09-00.db"},
			content: []byte("SQLite format 3"),
		},
	}
	executor := NewEffectExecutor(f.messenger, logger)
	f.admin = NewAdminService(AdminDeps{
		Identities:   f.identities,
		Measurements: f.measurements,
		Renderer:     f.renderer,
		Backups:      f.backups,
		Executor:     executor,
	}, testVersion, adminIDs, logger)
	f.service = NewConversationService(ConversationDeps{
		Identities: NewIdentityService(f.identities, testVersion, logger),
		Gate:       NewVersionGate(f.identities, testVersion, logger),
		Forms:      NewFormService(f.sessions, f.measurements, logger),
		History:    NewHistoryService(f.measurements, f.renderer, 10),
		Admin:      f.admin,
		Executor:   executor,
	}, logger)
	return f
}

// register stores an identity directly.
func (f *fixture) register(id int64, version string) {
	f.identities.identities[id] = &secondary.IdentityRecord{ID: id, Phone: "+1555000", InterfaceVersion: version}
}
