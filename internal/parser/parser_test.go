package parser

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGenerator replays canned responses in order.
type scriptedGenerator struct {
	responses []string
	err       error
	prompts   []string
}

func (g *scriptedGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	i := len(g.prompts) - 1
	if i >= len(g.responses) {
		i = len(g.responses) - 1
	}
	return g.responses[i], nil
}

const validCandidateJSON = `{
	"Skills": "Go, Python, SQL",
	"Experience": "Built backend services",
	"Education": "BSc Computer Science",
	"Name": "Jane Tan",
	"Phone_Number": "+60123456789",
	"Email": "jane@example.com",
	"Linkedin_link": "Not Specified",
	"Portfolio_link": "Not Specified",
	"Extra": "Hackathon winner",
	"Level": "entry level"
}`

func TestCandidate_Valid(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{validCandidateJSON}}
	p := New(gen, nil)

	got, err := p.Candidate(context.Background(), "resume body")
	require.NoError(t, err)
	assert.Equal(t, "Jane Tan", got["Name"])
	assert.Equal(t, "Go, Python, SQL", got["Skills"])
	assert.Len(t, gen.prompts, 1)
}

func TestCandidate_FencedResponse(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"```json\n" + validCandidateJSON + "\n```"}}
	p := New(gen, nil)

	got, err := p.Candidate(context.Background(), "resume body")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", got["Email"])
}

func TestCandidate_RetryRecovers(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"sorry, here is the data:", validCandidateJSON}}
	p := New(gen, nil)

	got, err := p.Candidate(context.Background(), "resume body")
	require.NoError(t, err)
	assert.Equal(t, "Jane Tan", got["Name"])

	// The retry prompt carries the failed output back to the model.
	require.Len(t, gen.prompts, 2)
	assert.Contains(t, gen.prompts[1], "sorry, here is the data:")
	assert.Contains(t, gen.prompts[1], "could not be parsed")
}

func TestCandidate_SecondFailureSurfaces(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"not json", "still not json"}}
	p := New(gen, nil)

	_, err := p.Candidate(context.Background(), "resume body")

	var violation *SchemaViolationError
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, CandidateSchema.Name, violation.Schema)
	assert.Len(t, gen.prompts, 2)
}

func TestJobRequirements_MissingField(t *testing.T) {
	// Both attempts omit Level.
	partial := `{"Education": "BSc", "Experience": "APIs", "Skills": "Go"}`
	gen := &scriptedGenerator{responses: []string{partial, partial}}
	p := New(gen, nil)

	_, err := p.JobRequirements(context.Background(), "Backend Engineer", "some description")

	var violation *SchemaViolationError
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, []string{"Level"}, violation.Missing)
}

func TestJobRequirements_CoercesNonStringValues(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		`{"Education": ["BSc", "MSc"], "Experience": "5 years", "Skills": {"languages": "Go"}, "Level": 3}`,
	}}
	p := New(gen, nil)

	got, err := p.JobRequirements(context.Background(), "Backend Engineer", "desc")
	require.NoError(t, err)
	assert.Equal(t, "BSc, MSc", got["Education"])
	assert.Equal(t, `{"languages":"Go"}`, got["Skills"])
	assert.Equal(t, "3", got["Level"])
}

func TestJobRequirements_GeneratorError(t *testing.T) {
	gen := &scriptedGenerator{err: errors.New("quota exceeded")}
	p := New(gen, nil)

	_, err := p.JobRequirements(context.Background(), "Backend Engineer", "desc")
	require.Error(t, err)

	// Transport errors are not retried.
	assert.Len(t, gen.prompts, 1)

	var violation *SchemaViolationError
	assert.False(t, errors.As(err, &violation))
}

func TestPosting_DefaultsAndLists(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		"```json\n" + `{"description": "Builds APIs.", "requirements": ["Go", "SQL"]}` + "\n```",
	}}
	p := New(gen, nil)

	posting, err := p.Posting(context.Background(), "Backend Engineer", "raw description")
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", posting.Title)
	assert.Equal(t, "Not specified", posting.Company)
	assert.Equal(t, "Not specified", posting.Salary)
	assert.Equal(t, "Builds APIs.", posting.Description)
	assert.Equal(t, []string{"Go", "SQL"}, posting.Requirements)
	assert.Equal(t, []string{}, posting.Benefits)
}

func TestPosting_InvalidJSON(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"no json here"}}
	p := New(gen, nil)

	_, err := p.Posting(context.Background(), "Backend Engineer", "raw description")

	var violation *SchemaViolationError
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, JobPostingSchema.Name, violation.Schema)
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripFences(tc.in))
			assert.Equal(t, tc.want, StripFences(StripFences(tc.in)))
		})
	}
}
