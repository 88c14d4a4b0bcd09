package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-laget/internal/backend/localstore"
	"github.com/tartampluch/go-laget/internal/config"
	"github.com/tartampluch/go-laget/internal/engine"
	"github.com/tartampluch/go-laget/internal/pipeline"
)

// -----------------------------------------------------------------------------
// Fakes
// -----------------------------------------------------------------------------

// MockClock controls time for deterministic testing.
type MockClock struct {
	CurrentTime time.Time
}

func (m MockClock) Now() time.Time {
	return m.CurrentTime
}

// fakeScraper feeds a canned registration list into the pipeline.
type fakeScraper struct {
	raws []engine.RawRegistration
	err  error
}

func (f *fakeScraper) FetchAll(ctx context.Context) ([]engine.RawRegistration, error) {
	return f.raws, f.err
}

// failingBackend always rejects authentication.
type failingBackend struct{}

func (failingBackend) Name() string { return "broken" }

func (failingBackend) Authenticate(ctx context.Context) error {
	return errors.New("bad credentials")
}

func (failingBackend) GetByUID(ctx context.Context, uid string) (*engine.Event, error) {
	return nil, nil
}

func (failingBackend) Add(ctx context.Context, event engine.Event) error { return nil }

func (failingBackend) Update(ctx context.Context, uid string, e engine.Event) error { return nil }

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func fixedClock() MockClock {
	return MockClock{CurrentTime: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func matchRaw() engine.RawRegistration {
	return engine.RawRegistration{
		PK: "12345", ChildID: "678", Site: "exempelklubb",
		Title: "Match mot Hammarby", ChildName: "Erik",
		Date: "16 november", Time: "10:00-11:00",
	}
}

func practiceRaw() engine.RawRegistration {
	return engine.RawRegistration{
		PK: "55555", ChildID: "678", Site: "exempelklubb",
		Title: "Träning", Date: "3 maj", Time: "18:30",
	}
}

// newTestPipeline wires a pipeline with a canned scraper and a sqlite store
// in a throwaway directory.
func newTestPipeline(t *testing.T, raws []engine.RawRegistration) (*pipeline.Pipeline, string) {
	t.Helper()
	dir := t.TempDir()
	settings := &config.Settings{
		Output:     filepath.Join(dir, "laget.ics"),
		LocalStore: filepath.Join(dir, "events.db"),
	}

	p, err := pipeline.New(settings, "user@example.com", "hemligt", fixedClock())
	require.NoError(t, err)
	p.NewScraper = func() pipeline.Scraper {
		return &fakeScraper{raws: raws}
	}
	return p, settings.Output
}

// -----------------------------------------------------------------------------
// Test Cases
// -----------------------------------------------------------------------------

func TestRun_FullPass(t *testing.T) {
	// One registration in, one ICS file and one stored event out.
	p, output := newTestPipeline(t, []engine.RawRegistration{matchRaw()})

	results, err := p.Run(context.Background())
	require.NoError(t, err)

	res, ok := results[config.BackendLocalStore]
	require.True(t, ok)
	assert.Equal(t, engine.Result{Added: 1}, res)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "UID:laget-12345-678@laget.se")

	// A second identical run touches nothing.
	results, err = p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, engine.Result{}, results[config.BackendLocalStore])
}

func TestRun_PracticeFilteredByDefault(t *testing.T) {
	p, output := newTestPipeline(t, []engine.RawRegistration{matchRaw(), practiceRaw()})

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Match mot Hammarby")
	assert.NotContains(t, string(data), "Träning")
}

func TestRun_IncludePracticeKeepsEverything(t *testing.T) {
	p, output := newTestPipeline(t, []engine.RawRegistration{matchRaw(), practiceRaw()})
	p.Settings.IncludePractice = true

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Träning")
}

func TestRun_EmptyScrapeIsAnError(t *testing.T) {
	// Zero registrations means a scrape-level failure (changed markup, lost
	// session); an empty calendar must never overwrite a populated one.
	p, output := newTestPipeline(t, nil)

	_, err := p.Run(context.Background())
	assert.Error(t, err)
	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr), "no file is written on a failed run")
}

func TestRun_AllPracticeLeavesExistingOutputAlone(t *testing.T) {
	// Every scraped record is a practice event, so filtering empties the run.
	// A previously written calendar file must survive untouched.
	p, output := newTestPipeline(t, []engine.RawRegistration{practiceRaw()})
	existing := "BEGIN:VCALENDAR\r\nUID:laget-12345-678@laget.se\r\nEND:VCALENDAR\r\n"
	require.NoError(t, os.WriteFile(output, []byte(existing), 0o600))

	_, err := p.Run(context.Background())
	assert.Error(t, err)

	data, readErr := os.ReadFile(output)
	require.NoError(t, readErr)
	assert.Equal(t, existing, string(data))
}

func TestRun_AllSkippedLeavesExistingOutputAlone(t *testing.T) {
	// Every record fails normalization (missing time), emptying the run.
	broken := matchRaw()
	broken.Time = ""
	p, output := newTestPipeline(t, []engine.RawRegistration{broken})
	existing := "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"
	require.NoError(t, os.WriteFile(output, []byte(existing), 0o600))

	_, err := p.Run(context.Background())
	assert.Error(t, err)

	data, readErr := os.ReadFile(output)
	require.NoError(t, readErr)
	assert.Equal(t, existing, string(data))
}

func TestRun_ScraperFailureAbortsRun(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	p.NewScraper = func() pipeline.Scraper {
		return &fakeScraper{err: errors.New("login rejected")}
	}

	_, err := p.Run(context.Background())
	assert.Error(t, err)
}

func TestRun_BackendAuthFailureIsIsolated(t *testing.T) {
	// A backend that cannot authenticate is skipped; the healthy one still
	// receives the full sync.
	p, _ := newTestPipeline(t, []engine.RawRegistration{matchRaw()})

	store := localstore.New(filepath.Join(t.TempDir(), "events.db"), time.UTC)
	p.NewBackends = func() []engine.CalendarBackend {
		return []engine.CalendarBackend{failingBackend{}, store}
	}

	results, err := p.Run(context.Background())
	require.NoError(t, err)

	_, skipped := results["broken"]
	assert.False(t, skipped, "failed backend yields no tally")
	assert.Equal(t, engine.Result{Added: 1}, results[config.BackendLocalStore])
}
