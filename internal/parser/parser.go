// Package parser turns free text into schema-validated JSON via an LLM.
package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/hafizadha/mrgreedy/internal/ai"
	"github.com/hafizadha/mrgreedy/internal/logger"
)

// Schema names the JSON object an LLM response must decode into and the keys
// it must carry.
type Schema struct {
	Name   string
	Fields []string
}

var (
	// CandidateSchema is the structured resume profile.
	CandidateSchema = Schema{
		Name: "candidate",
		Fields: []string{
			"Skills", "Experience", "Education", "Name", "Phone_Number",
			"Email", "Linkedin_link", "Portfolio_link", "Extra", "Level",
		},
	}

	// JobRequirementSchema is the four comparable facets of a job description.
	JobRequirementSchema = Schema{
		Name:   "job requirement",
		Fields: []string{"Education", "Experience", "Skills", "Level"},
	}

	// JobPostingSchema is the job-board card shape served to the frontend.
	JobPostingSchema = Schema{
		Name: "job posting",
		Fields: []string{
			"company", "location", "type", "experience",
			"salary", "description", "requirements", "benefits",
		},
	}
)

// SchemaViolationError reports an LLM response that could not be decoded into
// its target schema, after the bounded retry was spent.
type SchemaViolationError struct {
	Schema  string
	Missing []string
	Raw     string
	Err     error
}

func (e *SchemaViolationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("parse %s: response missing fields %v", e.Schema, e.Missing)
	}
	return fmt.Sprintf("parse %s: response is not valid JSON: %v", e.Schema, e.Err)
}

func (e *SchemaViolationError) Unwrap() error { return e.Err }

const maxLogLen = 300

// Parser drives generate-then-validate rounds against a text generator. A
// malformed response gets exactly one retry that feeds the failed output back
// to the model; a second failure surfaces as *SchemaViolationError.
type Parser struct {
	gen    ai.Generator
	logger *zap.Logger
}

func New(gen ai.Generator, log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{gen: gen, logger: log}
}

// Candidate extracts a structured candidate profile from normalized resume
// text.
func (p *Parser) Candidate(ctx context.Context, resumeText string) (map[string]string, error) {
	return p.parse(ctx, CandidateSchema, candidatePrompt(resumeText))
}

// JobRequirements reduces a job description to the four facets scored against
// a candidate profile.
func (p *Parser) JobRequirements(ctx context.Context, jobRole, jobDescription string) (map[string]string, error) {
	return p.parse(ctx, JobRequirementSchema, jobRequirementPrompt(jobRole, jobDescription))
}

// JobPosting holds the frontend card for one job role. Scalar fields default
// to "Not specified" when the description does not mention them.
type JobPosting struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Location     string   `json:"location"`
	Type         string   `json:"type"`
	Experience   string   `json:"experience"`
	Salary       string   `json:"salary"`
	Description  string   `json:"description"`
	Requirements []string `json:"requirements"`
	Benefits     []string `json:"benefits"`
}

// Posting parses a raw job description into a frontend card. Unlike the
// map-based parsers it tolerates missing scalar fields, filling defaults the
// way the dashboard expects.
func (p *Parser) Posting(ctx context.Context, jobTitle, jobDescription string) (*JobPosting, error) {
	raw, err := p.generate(ctx, postingPrompt(jobTitle, jobDescription))
	if err != nil {
		return nil, err
	}

	cleaned := StripFences(raw)

	var decoded struct {
		Company      string   `json:"company"`
		Location     string   `json:"location"`
		Type         string   `json:"type"`
		Experience   string   `json:"experience"`
		Salary       string   `json:"salary"`
		Description  string   `json:"description"`
		Requirements []string `json:"requirements"`
		Benefits     []string `json:"benefits"`
	}
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		p.logger.Warn("job posting response is not valid JSON",
			zap.String("title", jobTitle),
			zap.String("raw", logger.TruncateForLog(cleaned, maxLogLen)),
			zap.Error(err))
		return nil, &SchemaViolationError{Schema: JobPostingSchema.Name, Raw: cleaned, Err: err}
	}

	posting := &JobPosting{
		Title:        jobTitle,
		Company:      orDefault(decoded.Company),
		Location:     orDefault(decoded.Location),
		Type:         orDefault(decoded.Type),
		Experience:   orDefault(decoded.Experience),
		Salary:       orDefault(decoded.Salary),
		Description:  decoded.Description,
		Requirements: decoded.Requirements,
		Benefits:     decoded.Benefits,
	}
	if posting.Description == "" {
		posting.Description = "No specific summary provided."
	}
	if posting.Requirements == nil {
		posting.Requirements = []string{}
	}
	if posting.Benefits == nil {
		posting.Benefits = []string{}
	}
	return posting, nil
}

func orDefault(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Not specified"
	}
	return s
}

func (p *Parser) parse(ctx context.Context, schema Schema, prompt string) (map[string]string, error) {
	result, violation, err := p.attempt(ctx, schema, prompt)
	if err != nil {
		return nil, err
	}
	if violation == nil {
		return result, nil
	}

	p.logger.Warn("schema violation, retrying once",
		zap.String("schema", schema.Name),
		zap.Strings("missing", violation.Missing),
		zap.String("raw", logger.TruncateForLog(violation.Raw, maxLogLen)))

	result, violation, err = p.attempt(ctx, schema, retryPrompt(prompt, schema, violation.Raw))
	if err != nil {
		return nil, err
	}
	if violation != nil {
		return nil, violation
	}
	return result, nil
}

// attempt runs one generate-validate round. A schema problem comes back as a
// non-nil violation so the caller can decide whether to retry; transport
// errors come back as err and are never retried here.
func (p *Parser) attempt(ctx context.Context, schema Schema, prompt string) (map[string]string, *SchemaViolationError, error) {
	raw, err := p.generate(ctx, prompt)
	if err != nil {
		return nil, nil, err
	}

	cleaned := StripFences(raw)

	var decoded map[string]any
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return nil, &SchemaViolationError{Schema: schema.Name, Raw: cleaned, Err: err}, nil
	}

	result := make(map[string]string, len(schema.Fields))
	var missing []string
	for _, field := range schema.Fields {
		value, ok := decoded[field]
		if !ok {
			missing = append(missing, field)
			continue
		}
		result[field] = coerceString(value)
	}
	if len(missing) > 0 {
		return nil, &SchemaViolationError{Schema: schema.Name, Missing: missing, Raw: cleaned}, nil
	}
	return result, nil, nil
}

func (p *Parser) generate(ctx context.Context, prompt string) (string, error) {
	raw, err := p.gen.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("generate content: empty response from model")
	}
	return raw, nil
}

var (
	fenceOpen  = regexp.MustCompile("(?m)^```(?:json)?\\s*")
	fenceClose = regexp.MustCompile("(?m)\\s*```$")
)

// StripFences removes a surrounding markdown code fence, if any, and trims
// whitespace. Applying it twice is a no-op.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = fenceOpen.ReplaceAllString(s, "")
	s = fenceClose.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// coerceString flattens a decoded JSON value into a single string. Models
// occasionally return arrays or nested objects where a string was asked for;
// joining beats failing the whole submission over a shape quirk.
func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, coerceString(item))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case bool:
		return fmt.Sprintf("%t", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func candidatePrompt(resumeText string) string {
	return fmt.Sprintf(`resume text: %s

Based on this resume text, extract the
{
Skills : "string" (Here you should list out the tools and skills this candidate has based on his whole resume)
Experience : "string" (Here you should put what the candidate has experience in doing and what he/she is able to do)
Education : "string" (Here you should specify the candidate's what degree he/she has dont specify the institution)
Name : "string"
Phone_Number : "string"
Email : "string"
Linkedin_link : "string" (Here if the resume doesnt have a linkedin link just put "Not Specified")
Portfolio_link : "string" (Here if the resume doesnt have a portfolio link just put "Not Specified")
Extra : "string" (Here you should put Extracurriculars,Leadership,Awards)
Level : "string" (Based on this candidate's resume, do you think the candidate is applying for internship, entry level, mid level, junior level or senior level position)
}

your output should be in json format

ensure that the values are just one string value

YOU SHOULD RETURN A JSON FILE AND NOTHING ELSE`, strings.TrimSpace(resumeText))
}

func jobRequirementPrompt(jobRole, jobDescription string) string {
	return fmt.Sprintf(`You are a Job Description parser that will extract information about job description,
Job Title : %s
Job Description : %s

Your job is to extract the Education required, What the candidate is expected to do on the job and the education required.
Return ONLY a valid JSON object in this exact format, with no additional text or formatting:
{
    "Education": "string",
    "Experience": "string",
    "Skills": "string",
    "Level": "string"
}`, jobRole, jobDescription)
}

func postingPrompt(jobTitle, jobDescription string) string {
	return fmt.Sprintf(`You are an expert job description parser. Your task is to extract specific information from the provided job description text and format it as a JSON object.

Job Title: %s
Raw Job Description Text:
---
%s
---

Based *only* on the "Raw Job Description Text" provided above, extract the following information.
If a piece of information is not explicitly mentioned, use "Not specified" for string fields or an empty list [] for list fields.

Return ONLY a valid JSON object in the following exact format:
{
  "company": "string (e.g., TechCorp Inc.)",
  "location": "string (e.g., San Francisco, CA (Remote))",
  "type": "string (e.g., Full-time, Internship, Contract)",
  "experience": "string (e.g., 5+ years experience, Entry Level)",
  "salary": "string (e.g., $120k - $150k, Competitive)",
  "description": "string (A concise summary of the job role, 1-2 sentences max. If the original description is short, you can use it. Focus on the core responsibilities.)",
  "requirements": ["string", "string", ...],
  "benefits": ["string", "string", ...]
}

Important Considerations:
- For "requirements" and "benefits", list each distinct point as a separate string in the array.
- If the description mentions "Responsibilities", "Requirements", "Qualifications", "Skills", etc., these should primarily go into the "requirements" list.
- If the description mentions "Perks", "What we offer", "Benefits", etc., these should go into the "benefits" list.
- Be accurate and stick to the provided text. Do not infer or add external information.
- The "description" field should be a brief overview, not the entire job description.

JSON Output:`, jobTitle, jobDescription)
}

func retryPrompt(original string, schema Schema, failedOutput string) string {
	return fmt.Sprintf(`%s

Your previous response could not be parsed. It must be a single valid JSON object containing exactly these fields: %s.
Previous response:
%s

Return ONLY the corrected JSON object.`, original, strings.Join(schema.Fields, ", "), failedOutput)
}
