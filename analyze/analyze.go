// Package analyze scores crawled profiles with the Gemini API. Analysis is a
// batch post-process over an already-crawled batch; it never blocks or fails
// the crawl itself.
package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"

	"github.com/tagnet-dev/tagnet/profile"
)

const (
	defaultModel       = "gemini-2.0-flash"
	defaultConcurrency = 4
)

// Assessment is the structured marketing assessment of a single profile.
type Assessment struct {
	Category            string   `json:"category"`
	BusinessType        string   `json:"businessType"`
	ContentQuality      int      `json:"contentQuality"`
	CommercialPotential int      `json:"commercialPotential"`
	MainTopics          []string `json:"mainTopics"`
	SuggestedTags       []string `json:"suggestedTags"`
	Recommendations     []string `json:"recommendations"`
	AudienceType        string   `json:"audienceType"`
	PriceSegment        string   `json:"priceSegment"`
	Competitors         []string `json:"competitors"`
}

// unknownAssessment is the degraded result recorded when a profile cannot be
// assessed. The batch always produces an entry per profile.
func unknownAssessment() Assessment {
	return Assessment{
		Category:        "Unknown",
		BusinessType:    "Unknown",
		AudienceType:    "Unknown",
		PriceSegment:    "Unknown",
		MainTopics:      []string{},
		SuggestedTags:   []string{},
		Recommendations: []string{},
		Competitors:     []string{},
	}
}

var assessmentSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"category":            {Type: genai.TypeString, Description: "Primary profile category"},
		"businessType":        {Type: genai.TypeString, Description: "Kind of business behind the profile"},
		"contentQuality":      {Type: genai.TypeInteger, Description: "Content quality score, 1-10"},
		"commercialPotential": {Type: genai.TypeInteger, Description: "Commercial potential score, 1-10"},
		"mainTopics":          {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"suggestedTags":       {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"recommendations":     {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"audienceType":        {Type: genai.TypeString, Description: "Target audience"},
		"priceSegment":        {Type: genai.TypeString, Description: "economy, middle or premium"},
		"competitors":         {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
	Required: []string{
		"category", "businessType", "contentQuality", "commercialPotential",
		"mainTopics", "suggestedTags", "recommendations", "audienceType",
		"priceSegment", "competitors",
	},
}

const systemInstruction = "You are an expert in Instagram profile analysis and marketing. " +
	"Assess the commercial potential of the given profile, categorize its business " +
	"and suggest improvements. Answer strictly in the requested JSON shape."

// generateFunc produces the raw JSON text of one assessment. Swappable in tests.
type generateFunc func(ctx context.Context, prompt string) (string, error)

// Analyzer scores profiles via Gemini.
type Analyzer struct {
	logger      *slog.Logger
	generate    generateFunc
	model       string
	concurrency int
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = logger }
}

// WithModel overrides the Gemini model name.
func WithModel(model string) Option {
	return func(a *Analyzer) { a.model = model }
}

// WithConcurrency bounds the number of in-flight assessment requests.
func WithConcurrency(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// withGenerate replaces the Gemini call in tests.
func withGenerate(fn generateFunc) Option {
	return func(a *Analyzer) { a.generate = fn }
}

// New creates an Analyzer backed by the Gemini API.
func New(ctx context.Context, apiKey string, opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		logger:      slog.Default(),
		model:       defaultModel,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.generate == nil {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		a.generate = func(ctx context.Context, prompt string) (string, error) {
			contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
			resp, err := client.Models.GenerateContent(ctx, a.model, contents, &genai.GenerateContentConfig{
				SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
				ResponseMIMEType:  "application/json",
				ResponseSchema:    assessmentSchema,
			})
			if err != nil {
				return "", fmt.Errorf("generate content: %w", err)
			}
			return resp.Text(), nil
		}
	}
	return a, nil
}

// Analyze assesses a single profile.
func (a *Analyzer) Analyze(ctx context.Context, p *profile.Profile) (Assessment, error) {
	text, err := a.generate(ctx, buildPrompt(p))
	if err != nil {
		return Assessment{}, fmt.Errorf("assess %q: %w", p.Username, err)
	}

	var assessment Assessment
	if err := json.Unmarshal([]byte(text), &assessment); err != nil {
		return Assessment{}, fmt.Errorf("assess %q: parse response: %w", p.Username, err)
	}
	return assessment, nil
}

// Batch assesses every profile and returns a username-keyed map. Per-profile
// failures are logged and recorded as an "Unknown" assessment; the batch as a
// whole fails only when the context is canceled.
func (a *Analyzer) Batch(ctx context.Context, batch []*profile.ProfileWithConnections) (map[string]Assessment, error) {
	results := make(map[string]Assessment, len(batch))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for _, p := range batch {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			a.logger.InfoContext(ctx, "analyzing profile", "username", p.Username)
			assessment, err := a.Analyze(ctx, &p.Profile)
			if err != nil {
				a.logger.WarnContext(ctx, "profile analysis failed", "username", p.Username, "error", err)
				assessment = unknownAssessment()
			}
			mu.Lock()
			results[p.Username] = assessment
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analyze batch: %w", err)
	}
	return results, nil
}

func buildPrompt(p *profile.Profile) string {
	var sb strings.Builder
	sb.WriteString("Analyze this Instagram profile and fill in every assessment field.\n\n")
	fmt.Fprintf(&sb, "Name: %s\n", p.FullName)
	fmt.Fprintf(&sb, "Username: %s\n", p.Username)
	fmt.Fprintf(&sb, "Biography: %s\n", p.Biography)
	fmt.Fprintf(&sb, "Followers: %d\n", p.FollowersCount)
	fmt.Fprintf(&sb, "Posts: %d\n", p.PostsCount)
	if p.BusinessCategory != "" {
		fmt.Fprintf(&sb, "Business category: %s\n", p.BusinessCategory)
	}
	if len(p.TopPosts) > 0 {
		sb.WriteString("Top post captions:\n")
		for _, post := range p.TopPosts {
			fmt.Fprintf(&sb, "- %s\n", post.Caption)
		}
	}
	return sb.String()
}
