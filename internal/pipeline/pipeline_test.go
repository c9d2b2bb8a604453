package pipeline

import (
	"context"
	"crypto/sha256"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hafizadha/mrgreedy/internal/model"
	"github.com/hafizadha/mrgreedy/internal/parser"
	"github.com/hafizadha/mrgreedy/internal/similarity"
	"github.com/hafizadha/mrgreedy/internal/storage"
)

type fakeStore struct {
	roles      map[uint]*model.JobRole
	nextID     int
	inserted   []*model.JobApplication
	insertErr  error
	cache      map[string]*model.JobRequirementCache
	cacheSaves int
}

func newFakeStore(roles ...*model.JobRole) *fakeStore {
	s := &fakeStore{
		roles: make(map[uint]*model.JobRole),
		cache: make(map[string]*model.JobRequirementCache),
	}
	for _, r := range roles {
		s.roles[r.ID] = r
	}
	return s
}

func (s *fakeStore) GetJobRole(_ context.Context, id uint) (*model.JobRole, error) {
	role, ok := s.roles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return role, nil
}

func (s *fakeStore) NextResumeID(_ context.Context) (int, error) {
	id := s.nextID
	s.nextID++
	return id, nil
}

func (s *fakeStore) InsertApplication(_ context.Context, app *model.JobApplication) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	app.ID = uint(len(s.inserted) + 1)
	s.inserted = append(s.inserted, app)
	return nil
}

func (s *fakeStore) GetJobRequirementCache(_ context.Context, jobRoleID uint, hash string) (*model.JobRequirementCache, error) {
	return s.cache[hash], nil
}

func (s *fakeStore) SaveJobRequirementCache(_ context.Context, entry *model.JobRequirementCache) error {
	s.cacheSaves++
	s.cache[entry.DescriptionHash] = entry
	return nil
}

// promptRouter answers the candidate and job-requirement prompts with fixed
// valid JSON, counting calls per kind.
type promptRouter struct {
	candidateCalls int
	jobCalls       int
}

func (g *promptRouter) GenerateContent(_ context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, "Job Description parser") {
		g.jobCalls++
		return `{"Education": "BSc Computer Science", "Experience": "Build backend services", "Skills": "Go, SQL", "Level": "entry level"}`, nil
	}
	g.candidateCalls++
	return `{
		"Skills": "Go, SQL",
		"Experience": "Built backend services",
		"Education": "BSc Computer Science",
		"Name": "Jane Tan",
		"Phone_Number": "+60123456789",
		"Email": "jane@example.com",
		"Linkedin_link": "Not Specified",
		"Portfolio_link": "Not Specified",
		"Extra": "Hackathon winner",
		"Level": "entry level"
	}`, nil
}

type hashEmbedder struct{}

func (hashEmbedder) EmbedText(_ context.Context, text string) ([]float64, error) {
	sum := sha256.Sum256([]byte(text))
	vector := make([]float64, 8)
	for i := range vector {
		vector[i] = float64(sum[i]) + 1
	}
	return vector, nil
}

var backendRole = &model.JobRole{
	ID:             1,
	JobRole:        "Backend Engineer",
	JobDescription: "Build and run Go services. BSc Computer Science required.",
}

func newTestPipeline(store Store, blobs storage.BlobStore, gen *promptRouter) *Pipeline {
	p := New(store, blobs,
		parser.New(gen, nil),
		similarity.NewEngine(hashEmbedder{}),
		nil, Timeouts{})
	p.extractText = func(data []byte) (string, error) {
		return string(data), nil
	}
	return p
}

func TestSubmit_HappyPath(t *testing.T) {
	store := newFakeStore(backendRole)
	blobs := storage.NewMemoryStore()
	gen := &promptRouter{}
	p := newTestPipeline(store, blobs, gen)

	app, err := p.Submit(context.Background(), 1, []byte("resume text body"))
	require.NoError(t, err)

	assert.Equal(t, "Jane Tan", app.Name)
	assert.Equal(t, 0, app.ResumeID)
	assert.Equal(t, uint(1), app.JobRoleID)
	assert.Equal(t, backendRole.JobDescription, app.JobDesc)

	require.NotNil(t, app.ExperienceSimilarity)
	require.NotNil(t, app.EducationSimilarity)
	require.NotNil(t, app.SkillSimilarity)
	require.NotNil(t, app.LevelSimilarity)

	// Candidate and requirement texts for education and level match exactly.
	assert.InDelta(t, 1.0, *app.EducationSimilarity, 1e-9)
	assert.InDelta(t, 1.0, *app.LevelSimilarity, 1e-9)

	require.Len(t, store.inserted, 1)
	assert.True(t, blobs.Exists("0.pdf"))
}

func TestSubmit_SequentialResumeIDs(t *testing.T) {
	store := newFakeStore(backendRole)
	blobs := storage.NewMemoryStore()
	p := newTestPipeline(store, blobs, &promptRouter{})

	first, err := p.Submit(context.Background(), 1, []byte("resume one"))
	require.NoError(t, err)
	second, err := p.Submit(context.Background(), 1, []byte("resume two"))
	require.NoError(t, err)

	assert.Equal(t, 0, first.ResumeID)
	assert.Equal(t, 1, second.ResumeID)
	assert.True(t, blobs.Exists("0.pdf"))
	assert.True(t, blobs.Exists("1.pdf"))
}

func TestSubmit_JobRequirementsCached(t *testing.T) {
	store := newFakeStore(backendRole)
	gen := &promptRouter{}
	p := newTestPipeline(store, storage.NewMemoryStore(), gen)

	_, err := p.Submit(context.Background(), 1, []byte("resume one"))
	require.NoError(t, err)
	_, err = p.Submit(context.Background(), 1, []byte("resume two"))
	require.NoError(t, err)

	// The description was parsed once; the second submission hit the cache.
	assert.Equal(t, 1, gen.jobCalls)
	assert.Equal(t, 2, gen.candidateCalls)
	assert.Equal(t, 1, store.cacheSaves)
}

func TestSubmit_UnknownJobRole(t *testing.T) {
	p := newTestPipeline(newFakeStore(), storage.NewMemoryStore(), &promptRouter{})

	_, err := p.Submit(context.Background(), 42, []byte("resume"))
	assert.ErrorIs(t, err, ErrJobRoleNotFound)
}

func TestSubmit_InsertFailureDeletesBlob(t *testing.T) {
	store := newFakeStore(backendRole)
	store.insertErr = errors.New("connection reset")
	blobs := storage.NewMemoryStore()
	p := newTestPipeline(store, blobs, &promptRouter{})

	_, err := p.Submit(context.Background(), 1, []byte("resume"))

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "insert_row", storeErr.Op)

	// The compensating delete removed the uploaded PDF.
	assert.Equal(t, 0, blobs.Len())
}

func TestSubmit_ExtractFailureHasNoSideEffects(t *testing.T) {
	store := newFakeStore(backendRole)
	blobs := storage.NewMemoryStore()
	gen := &promptRouter{}
	p := newTestPipeline(store, blobs, gen)
	p.extractText = func([]byte) (string, error) {
		return "", errors.New("no extractable text layer")
	}

	_, err := p.Submit(context.Background(), 1, []byte("not a pdf"))
	require.Error(t, err)

	assert.Empty(t, store.inserted)
	assert.Equal(t, 0, blobs.Len())
	assert.Equal(t, 0, gen.candidateCalls)
}
