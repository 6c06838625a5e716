package business

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/yourusername/telegram-news-collector/config"
	"github.com/yourusername/telegram-news-collector/internal/domain"
	"github.com/yourusername/telegram-news-collector/internal/domain/news/deps"
	"github.com/yourusername/telegram-news-collector/internal/domain/news/entities"
	"github.com/yourusername/telegram-news-collector/internal/infrastructure/metrics"
)

// mockClient serves scripted posts per channel name.
type mockClient struct {
	posts         map[string][]domain.Post
	iterErr       map[string]error
	photoData     map[int64][]byte
	photoErr      error
	downloadCalls int
}

func (m *mockClient) Connect(ctx context.Context) error    { return nil }
func (m *mockClient) Disconnect(ctx context.Context) error { return nil }
func (m *mockClient) IsConnected() bool                    { return true }

func (m *mockClient) IterMessages(ctx context.Context, channel string, since time.Time, fn func(domain.Post) error) error {
	if err := m.iterErr[channel]; err != nil {
		return err
	}
	for _, post := range m.posts[channel] {
		if !post.Date.After(since) {
			continue
		}
		if err := fn(post); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockClient) DownloadPhoto(ctx context.Context, photo *domain.PhotoRef) ([]byte, error) {
	m.downloadCalls++
	if m.photoErr != nil {
		return nil, m.photoErr
	}
	if data, ok := m.photoData[photo.FileID]; ok {
		return data, nil
	}
	return []byte("raw-photo"), nil
}

// mockChannelRepo serves a fixed channel list. Watermark updates are
// recorded but not applied, so repeated runs replay the same backlog.
type mockChannelRepo struct {
	channels   []entities.Channel
	watermarks map[int64]time.Time
	updateErr  error
	listErr    error
}

func newMockChannelRepo(channels ...entities.Channel) *mockChannelRepo {
	return &mockChannelRepo{channels: channels, watermarks: make(map[int64]time.Time)}
}

func (m *mockChannelRepo) GetAllChannels(ctx context.Context) ([]entities.Channel, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.channels, nil
}

func (m *mockChannelRepo) UpdateLastFetched(ctx context.Context, channelID int64, fetchedAt time.Time) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.watermarks[channelID] = fetchedAt
	return nil
}

type mockRuleRepo struct {
	rules   []entities.ExclusionRule
	listErr error
}

func (m *mockRuleRepo) GetActiveRules(ctx context.Context) ([]entities.ExclusionRule, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.rules, nil
}

// mockMessageRepo is an in-memory message store with insert-ignore
// semantics matching the real repository.
type mockMessageRepo struct {
	rows        map[string]*entities.Message
	order       []string
	createCalls int
	findErr     error
}

func newMockMessageRepo() *mockMessageRepo {
	return &mockMessageRepo{rows: make(map[string]*entities.Message)}
}

func messageKey(channelID, messageID int64) string {
	return fmt.Sprintf("%d/%d", channelID, messageID)
}

func (m *mockMessageRepo) Create(ctx context.Context, msg *entities.Message) error {
	m.createCalls++
	key := messageKey(msg.ChannelID, msg.MessageID)
	if _, exists := m.rows[key]; exists {
		return nil
	}
	stored := *msg
	m.rows[key] = &stored
	m.order = append(m.order, key)
	return nil
}

func (m *mockMessageRepo) FindOriginalByHash(ctx context.Context, textHash string) (*entities.MessageRef, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, key := range m.order {
		row := m.rows[key]
		if row.IsDuplicate || row.TextHash == nil {
			continue
		}
		if *row.TextHash == textHash {
			return &entities.MessageRef{ChannelID: row.ChannelID, MessageID: row.MessageID}, nil
		}
	}
	return nil, nil
}

func (m *mockMessageRepo) get(channelID, messageID int64) *entities.Message {
	return m.rows[messageKey(channelID, messageID)]
}

type mockImageRepo struct {
	rows map[string]*entities.Image
}

func newMockImageRepo() *mockImageRepo {
	return &mockImageRepo{rows: make(map[string]*entities.Image)}
}

func (m *mockImageRepo) Create(ctx context.Context, img *entities.Image) error {
	if _, exists := m.rows[img.FileID]; exists {
		return nil
	}
	stored := *img
	m.rows[img.FileID] = &stored
	return nil
}

func (m *mockImageRepo) Exists(ctx context.Context, fileID string) (bool, error) {
	_, ok := m.rows[fileID]
	return ok, nil
}

type mockAssets struct {
	processCalls int
	processErr   error
}

func (m *mockAssets) Process(ctx context.Context, raw []byte, postedAt time.Time, channelName, fileID string) (*deps.ProcessedImage, error) {
	m.processCalls++
	if m.processErr != nil {
		return nil, m.processErr
	}
	return &deps.ProcessedImage{
		Path:           fileID + ".jpg",
		OriginalSize:   int64(len(raw)),
		CompressedSize: int64(len(raw)) / 2,
		Width:          640,
		Height:         480,
	}, nil
}

type fixture struct {
	client   *mockClient
	channels *mockChannelRepo
	rules    *mockRuleRepo
	messages *mockMessageRepo
	images   *mockImageRepo
	assets   *mockAssets
	cfg      *config.CollectorConfig
}

func newFixture(channels ...entities.Channel) *fixture {
	return &fixture{
		client:   &mockClient{posts: map[string][]domain.Post{}, iterErr: map[string]error{}},
		channels: newMockChannelRepo(channels...),
		rules:    &mockRuleRepo{},
		messages: newMockMessageRepo(),
		images:   newMockImageRepo(),
		assets:   &mockAssets{},
		cfg: &config.CollectorConfig{
			StartDate:     time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
			MinTextLength: 10,
		},
	}
}

func (f *fixture) useCase() *UseCase {
	return NewUseCase(
		f.client, f.channels, f.rules, f.messages, f.images, f.assets,
		nil, f.cfg, zerolog.Nop(), metrics.GetDefaultMetrics(),
	)
}

func at(hour int) time.Time {
	return time.Date(2025, 5, 2, hour, 0, 0, 0, time.UTC)
}

func longText(seed string) string {
	return seed + " filler filler filler filler"
}

func TestRun_CollectsAndFilters(t *testing.T) {
	f := newFixture(entities.Channel{ID: 1, Name: "worldnews"})
	f.rules.rules = []entities.ExclusionRule{
		{ID: 1, Pattern: "advertisement", RuleKind: entities.RuleKindContains},
	}
	f.client.posts["worldnews"] = []domain.Post{
		{ID: 1, Text: longText("keep me"), Date: at(1)},
		{ID: 2, Text: "short", Date: at(2)},
		{ID: 3, Text: "hi", Date: at(3), Photo: &domain.PhotoRef{FileID: 100}},
		{ID: 4, Text: longText("big advertisement here"), Date: at(4)},
	}

	report, err := f.useCase().Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if got := report.TotalProcessed(); got != 4 {
		t.Errorf("expected 4 processed, got %d", got)
	}
	if got := report.TotalCollected(); got != 2 {
		t.Errorf("expected 2 collected, got %d", got)
	}

	if f.messages.get(1, 1) == nil {
		t.Error("long text post should be stored")
	}
	if f.messages.get(1, 2) != nil {
		t.Error("short text post should be dropped")
	}
	if row := f.messages.get(1, 3); row == nil {
		t.Error("photo post should be stored regardless of text length")
	} else if !row.HasMedia {
		t.Error("photo post should be flagged as media")
	}
	if f.messages.get(1, 4) != nil {
		t.Error("excluded post should be dropped")
	}

	if len(f.images.rows) != 1 {
		t.Errorf("expected 1 stored image, got %d", len(f.images.rows))
	}
}

func TestRun_DuplicateKeepsFirstSeenOriginal(t *testing.T) {
	f := newFixture(
		entities.Channel{ID: 1, Name: "first"},
		entities.Channel{ID: 2, Name: "second"},
	)
	text := longText("identical story text")
	f.client.posts["first"] = []domain.Post{{ID: 10, Text: text, Date: at(1)}}
	f.client.posts["second"] = []domain.Post{{ID: 20, Text: text, Date: at(2)}}

	if _, err := f.useCase().Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	original := f.messages.get(1, 10)
	if original == nil {
		t.Fatal("original row missing")
	}
	if original.IsDuplicate {
		t.Error("first-seen post must not be a duplicate")
	}
	if original.Text == nil || *original.Text != text {
		t.Error("original must keep its text")
	}
	if original.TextHash == nil {
		t.Error("original must carry the fingerprint")
	}

	dup := f.messages.get(2, 20)
	if dup == nil {
		t.Fatal("duplicate row missing")
	}
	if !dup.IsDuplicate {
		t.Fatal("later identical post must be a duplicate")
	}
	if dup.Text != nil || dup.TextHash != nil {
		t.Error("duplicate must store neither text nor fingerprint")
	}
	if dup.DuplicateChannelID == nil || *dup.DuplicateChannelID != 1 {
		t.Errorf("duplicate must point at the original channel, got %v", dup.DuplicateChannelID)
	}
	if dup.DuplicateMessageID == nil || *dup.DuplicateMessageID != 10 {
		t.Errorf("duplicate must point at the original message, got %v", dup.DuplicateMessageID)
	}
}

func TestRun_ForwardBypassesRulesAndPhotoDownload(t *testing.T) {
	f := newFixture(entities.Channel{ID: 1, Name: "worldnews"})
	f.rules.rules = []entities.ExclusionRule{
		{ID: 1, Pattern: "forwarded story", RuleKind: entities.RuleKindContains},
	}
	f.client.posts["worldnews"] = []domain.Post{
		{
			ID: 5, Text: longText("forwarded story"), Date: at(1),
			Photo:         &domain.PhotoRef{FileID: 200},
			Forwarded:     true,
			ForwardOrigin: &domain.ForwardOrigin{ChannelID: 99, MessageID: 7},
		},
	}

	if _, err := f.useCase().Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	row := f.messages.get(1, 5)
	if row == nil {
		t.Fatal("forward must be collected even when matching an exclusion rule")
	}
	if !row.IsForwarded {
		t.Error("forward flag missing")
	}
	if row.Text != nil || row.TextHash != nil {
		t.Error("forward must store neither text nor fingerprint")
	}
	if row.ForwardChannelID == nil || *row.ForwardChannelID != 99 {
		t.Errorf("forward origin channel wrong: %v", row.ForwardChannelID)
	}
	if row.ForwardMessageID == nil || *row.ForwardMessageID != 7 {
		t.Errorf("forward origin message wrong: %v", row.ForwardMessageID)
	}

	if f.client.downloadCalls != 0 {
		t.Errorf("forward photos must not be downloaded, got %d calls", f.client.downloadCalls)
	}
	if len(f.images.rows) != 0 {
		t.Error("forward must produce no image rows")
	}
}

func TestRun_WatermarkLastCollected(t *testing.T) {
	f := newFixture(
		entities.Channel{ID: 1, Name: "active"},
		entities.Channel{ID: 2, Name: "quiet"},
	)
	f.client.posts["active"] = []domain.Post{
		{ID: 1, Text: longText("first story"), Date: at(1)},
		{ID: 2, Text: "short", Date: at(2)},
		{ID: 3, Text: longText("second story"), Date: at(3)},
		{ID: 4, Text: "nah", Date: at(4)},
	}
	f.client.posts["quiet"] = []domain.Post{
		{ID: 1, Text: "nope", Date: at(5)},
	}

	if _, err := f.useCase().Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	watermark, ok := f.channels.watermarks[1]
	if !ok {
		t.Fatal("active channel watermark not advanced")
	}
	if !watermark.Equal(at(3)) {
		t.Errorf("watermark must be the last collected post's timestamp, got %v", watermark)
	}

	if _, ok := f.channels.watermarks[2]; ok {
		t.Error("channel that collected nothing must keep its watermark")
	}
}

func TestRun_ResumesFromWatermark(t *testing.T) {
	last := at(3)
	f := newFixture(entities.Channel{ID: 1, Name: "worldnews", LastFetched: &last})
	f.client.posts["worldnews"] = []domain.Post{
		{ID: 1, Text: longText("old story"), Date: at(1)},
		{ID: 2, Text: longText("boundary story"), Date: at(3)},
		{ID: 3, Text: longText("new story"), Date: at(5)},
	}

	report, err := f.useCase().Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if got := report.TotalProcessed(); got != 1 {
		t.Errorf("only posts strictly after the watermark should be seen, processed %d", got)
	}
	if f.messages.get(1, 3) == nil {
		t.Error("post after watermark missing")
	}
	if f.messages.get(1, 1) != nil || f.messages.get(1, 2) != nil {
		t.Error("posts at or before the watermark must not be reprocessed")
	}
}

func TestRun_IdempotentReplay(t *testing.T) {
	f := newFixture(entities.Channel{ID: 1, Name: "worldnews"})
	f.client.posts["worldnews"] = []domain.Post{
		{ID: 1, Text: longText("a story"), Date: at(1)},
		{ID: 2, Text: "x", Date: at(2), Photo: &domain.PhotoRef{FileID: 300}},
	}

	uc := f.useCase()
	if _, err := uc.Run(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if _, err := uc.Run(context.Background()); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if len(f.messages.rows) != 2 {
		t.Errorf("replay must not add rows, got %d", len(f.messages.rows))
	}
	if f.client.downloadCalls != 1 {
		t.Errorf("already stored photos must not be re-downloaded, got %d calls", f.client.downloadCalls)
	}
	if f.assets.processCalls != 1 {
		t.Errorf("already stored photos must not be re-processed, got %d calls", f.assets.processCalls)
	}

	row := f.messages.get(1, 1)
	if row == nil {
		t.Fatal("text row missing after replay")
	}
	if row.IsDuplicate {
		t.Error("replayed post must not become a duplicate of itself")
	}
}

func TestRun_ChannelFailureIsolation(t *testing.T) {
	f := newFixture(
		entities.Channel{ID: 1, Name: "broken"},
		entities.Channel{ID: 2, Name: "healthy"},
	)
	f.client.iterErr["broken"] = errors.New("FLOOD_WAIT")
	f.client.posts["healthy"] = []domain.Post{
		{ID: 1, Text: longText("still works"), Date: at(1)},
	}

	report, err := f.useCase().Run(context.Background())
	if err != nil {
		t.Fatalf("one broken channel must not abort the run: %v", err)
	}

	failed := report.Failed()
	if len(failed) != 1 || failed[0] != "broken" {
		t.Errorf("expected only the broken channel to fail, got %v", failed)
	}
	if f.messages.get(2, 1) == nil {
		t.Error("healthy channel must still be collected")
	}
	if _, ok := f.channels.watermarks[1]; ok {
		t.Error("failed channel must keep its watermark")
	}
}

func TestRun_PhotoFailureKeepsPost(t *testing.T) {
	f := newFixture(entities.Channel{ID: 1, Name: "worldnews"})
	f.client.photoErr = errors.New("FILE_REFERENCE_EXPIRED")
	f.client.posts["worldnews"] = []domain.Post{
		{ID: 1, Text: longText("story with photo"), Date: at(1), Photo: &domain.PhotoRef{FileID: 400}},
	}

	report, err := f.useCase().Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(report.Failed()) != 0 {
		t.Errorf("photo failure must not fail the channel: %v", report.Failed())
	}
	if f.messages.get(1, 1) == nil {
		t.Error("post row must survive a failed photo download")
	}
	if len(f.images.rows) != 0 {
		t.Error("failed photo must leave no image row")
	}
	if watermark := f.channels.watermarks[1]; !watermark.Equal(at(1)) {
		t.Errorf("watermark must still advance, got %v", watermark)
	}
}

func TestRun_LoadFailuresAbort(t *testing.T) {
	f := newFixture(entities.Channel{ID: 1, Name: "worldnews"})
	f.rules.listErr = errors.New("connection refused")

	if _, err := f.useCase().Run(context.Background()); err == nil {
		t.Fatal("rule load failure must abort the run")
	}

	f = newFixture(entities.Channel{ID: 1, Name: "worldnews"})
	f.channels.listErr = errors.New("connection refused")

	if _, err := f.useCase().Run(context.Background()); err == nil {
		t.Fatal("channel load failure must abort the run")
	}
}

func TestRun_WatermarkUpdateFailureFailsChannel(t *testing.T) {
	f := newFixture(entities.Channel{ID: 1, Name: "worldnews"})
	f.channels.updateErr = errors.New("deadlock detected")
	f.client.posts["worldnews"] = []domain.Post{
		{ID: 1, Text: longText("a story"), Date: at(1)},
	}

	report, err := f.useCase().Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(report.Failed()) != 1 {
		t.Errorf("watermark update failure must mark the channel failed, got %v", report.Failed())
	}
}

func TestRun_NoChannels(t *testing.T) {
	f := newFixture()

	report, err := f.useCase().Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(report.Channels) != 0 {
		t.Errorf("expected empty report, got %d channels", len(report.Channels))
	}
}

func TestRun_SharedPhotoStoredOnce(t *testing.T) {
	f := newFixture(
		entities.Channel{ID: 1, Name: "first"},
		entities.Channel{ID: 2, Name: "second"},
	)
	photo := &domain.PhotoRef{FileID: 500}
	f.client.posts["first"] = []domain.Post{
		{ID: 1, Text: longText("story one"), Date: at(1), Photo: photo},
	}
	f.client.posts["second"] = []domain.Post{
		{ID: 2, Text: longText("story two"), Date: at(2), Photo: photo},
	}

	if _, err := f.useCase().Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if f.client.downloadCalls != 1 {
		t.Errorf("shared file ID must be downloaded once, got %d", f.client.downloadCalls)
	}
	if len(f.images.rows) != 1 {
		t.Errorf("shared file ID must produce one image row, got %d", len(f.images.rows))
	}
}
