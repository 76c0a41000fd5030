package profiler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/letieu/reddit-profiler/config"
	"github.com/letieu/reddit-profiler/internal/analytics"
	"github.com/letieu/reddit-profiler/internal/analyzer"
	"github.com/letieu/reddit-profiler/internal/prompt"
	"github.com/letieu/reddit-profiler/internal/reddit"
	"github.com/letieu/reddit-profiler/internal/store"
)

// DefaultLimit is used when a fetch does not ask for a positive limit.
const DefaultLimit = 500

// ErrOffline is returned by Fetch and Analyze on a Profiler built with Local.
var ErrOffline = errors.New("reddit and gemini clients are not configured")

// CommentSource is the Reddit side of the pipeline.
type CommentSource interface {
	Token(ctx context.Context) (string, error)
	UserComments(ctx context.Context, token, username string, limit int) ([]reddit.Comment, error)
}

// Invoker is the generation side of the pipeline.
type Invoker interface {
	Analyze(ctx context.Context, model, prompt string) (*analyzer.Result, error)
}

type Options struct {
	DefaultLimit int
	DefaultModel string
	Preamble     string
}

// Profiler runs fetch and analysis as one sequential chain per call. It
// does no locking of its own; callers keep at most one action in flight
// per username.
type Profiler struct {
	source   CommentSource
	invoker  Invoker
	db       store.Store
	limit    int
	model    string
	preamble string
}

// AnalysisRequest is built per Analyze call and never stored.
type AnalysisRequest struct {
	ID         string
	Username   string
	PromptText string
	Model      string
	Comments   []reddit.Comment
}

type Analysis struct {
	RequestID string `json:"request_id"`
	Username  string `json:"username"`
	Model     string `json:"model"`
	Truncated bool   `json:"truncated"`
	analyzer.Result
}

type Summary struct {
	Username     string    `json:"username"`
	FetchedAt    time.Time `json:"fetched_at"`
	CommentCount int       `json:"comment_count"`
	HasAnalysis  bool      `json:"has_analysis"`
}

// New wires the Reddit client and the Gemini analyzer from cfg. Missing
// credentials fail with *config.ConfigError before any request.
func New(ctx context.Context, cfg *config.Config, db store.Store) (*Profiler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	redditClient, err := reddit.NewClient(*cfg)
	if err != nil {
		return nil, err
	}

	anl, err := analyzer.New(ctx, *cfg)
	if err != nil {
		return nil, err
	}

	return NewWithDeps(redditClient, anl, db, Options{
		DefaultLimit: cfg.Fetch.DefaultLimit,
		DefaultModel: cfg.Gemini.Model,
	}), nil
}

func NewWithDeps(source CommentSource, invoker Invoker, db store.Store, opts Options) *Profiler {
	p := &Profiler{
		source:   source,
		invoker:  invoker,
		db:       db,
		limit:    EffectiveLimit(opts.DefaultLimit),
		model:    opts.DefaultModel,
		preamble: opts.Preamble,
	}
	if p.model == "" {
		p.model = prompt.DefaultModel
	}
	if p.preamble == "" {
		p.preamble = prompt.SystemPreamble
	}
	return p
}

// Local serves saved sessions only, without credentials.
func Local(db store.Store) *Profiler {
	return NewWithDeps(nil, nil, db, Options{})
}

// EffectiveLimit substitutes DefaultLimit for a missing or non-positive limit.
func EffectiveLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

func (p *Profiler) effectiveLimit(limit int) int {
	if limit <= 0 {
		return p.limit
	}
	return limit
}

// Username normalizes a profile URL or u/ reference and validates it.
func Username(input string) (string, error) {
	username := reddit.ExtractUsername(input)
	if err := reddit.ValidateUsername(username); err != nil {
		return "", err
	}
	return username, nil
}

// Fetch retrieves the user's recent comments and replaces their session.
func (p *Profiler) Fetch(ctx context.Context, input string, limit int) (*store.Session, error) {
	username, err := Username(input)
	if err != nil {
		return nil, err
	}
	if p.source == nil {
		return nil, ErrOffline
	}
	limit = p.effectiveLimit(limit)

	log.Printf("Fetching comments for u/%s (limit %d)", username, limit)

	token, err := p.source.Token(ctx)
	if err != nil {
		log.Printf("Failed to get reddit token: %v", err)
		return nil, err
	}

	comments, err := p.source.UserComments(ctx, token, username, limit)
	if err != nil {
		log.Printf("Error fetching comments for u/%s: %v", username, err)
		return nil, err
	}

	sess, err := p.db.Put(ctx, username, comments)
	if err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	log.Printf("Fetched %d comments for u/%s", len(comments), username)
	return sess, nil
}

// Analyze runs promptKeyOrText (a preset key or custom text) against the
// stored comments and caches the result on the session. An explicit model
// must be in the registry; an empty one uses the configured default.
func (p *Profiler) Analyze(ctx context.Context, input, promptKeyOrText, model string) (*Analysis, error) {
	username, err := Username(input)
	if err != nil {
		return nil, err
	}
	if model != "" && !prompt.KnownModel(model) {
		return nil, &reddit.ValidationError{Field: "model", Reason: fmt.Sprintf("%q is not a supported model", model)}
	}
	if p.invoker == nil {
		return nil, ErrOffline
	}

	sess, err := p.db.Get(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("load comments for u/%s: %w", username, err)
	}

	if model == "" {
		model = p.model
	}

	req := AnalysisRequest{
		ID:         uuid.NewString(),
		Username:   username,
		PromptText: prompt.Resolve(promptKeyOrText),
		Model:      model,
		Comments:   sess.Comments,
	}

	full, truncated := prompt.Assemble(p.preamble, req.PromptText, req.Comments, req.Model)
	if truncated {
		log.Printf("[%s] Comments for u/%s truncated to %d characters for %s", req.ID, username, prompt.CeilingFor(req.Model), req.Model)
	}

	log.Printf("[%s] Analyzing u/%s with %s (%d comments)", req.ID, username, req.Model, len(req.Comments))

	result, err := p.invoker.Analyze(ctx, req.Model, full)
	if err != nil {
		log.Printf("[%s] Analysis failed: %v", req.ID, err)
		return nil, err
	}

	if err := p.db.SetAnalysis(ctx, username, result.Text); err != nil {
		return nil, fmt.Errorf("cache analysis for u/%s: %w", username, err)
	}

	log.Printf("[%s] Analysis for u/%s finished: %s", req.ID, username, result.Outcome)

	return &Analysis{
		RequestID: req.ID,
		Username:  username,
		Model:     req.Model,
		Truncated: truncated,
		Result:    *result,
	}, nil
}

func (p *Profiler) Session(ctx context.Context, input string) (*store.Session, error) {
	username, err := Username(input)
	if err != nil {
		return nil, err
	}
	return p.db.Get(ctx, username)
}

// Sessions lists saved users ordered by username.
func (p *Profiler) Sessions(ctx context.Context) ([]Summary, error) {
	sessions, err := p.db.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, Summary{
			Username:     s.Username,
			FetchedAt:    s.FetchedAt,
			CommentCount: len(s.Comments),
			HasAnalysis:  s.CachedAnalysis != nil,
		})
	}
	return out, nil
}

func (p *Profiler) Stats(ctx context.Context, input string) (analytics.Stats, error) {
	sess, err := p.Session(ctx, input)
	if err != nil {
		return analytics.Stats{}, err
	}
	return analytics.Compute(sess.Comments), nil
}

// Export renders the stored comments as a downloadable text file.
func (p *Profiler) Export(ctx context.Context, input string) (filename, content string, err error) {
	sess, err := p.Session(ctx, input)
	if err != nil {
		return "", "", err
	}
	return sess.Username + "_comments.txt", prompt.RenderComments(sess.Comments), nil
}

func (p *Profiler) Remove(ctx context.Context, input string) error {
	username, err := Username(input)
	if err != nil {
		return err
	}
	return p.db.Delete(ctx, username)
}
