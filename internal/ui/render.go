// Package ui renders search results, calibrated confidence, and engine
// status for the terminal. Styled output is used on TTYs, plain text
// everywhere else.
package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/deesatzed/newragcity-sub001/internal/calibrate"
	ragerrors "github.com/deesatzed/newragcity-sub001/internal/errors"
	"github.com/deesatzed/newragcity-sub001/internal/search"
)

// snippetLength bounds the content preview per result.
const snippetLength = 140

// Renderer writes human-readable output for the CLI.
type Renderer struct {
	out    io.Writer
	styles Styles
	color  bool
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithColor forces color on or off, overriding TTY detection.
func WithColor(enabled bool) RendererOption {
	return func(r *Renderer) {
		r.color = enabled
	}
}

// NewRenderer creates a renderer writing to out. Color is enabled when out
// is a terminal and NO_COLOR is unset.
func NewRenderer(out io.Writer, opts ...RendererOption) *Renderer {
	r := &Renderer{
		out:    out,
		styles: DefaultStyles(),
		color:  detectColor(out),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func detectColor(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := out.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func (r *Renderer) render(styled func(...string) string, text string) string {
	if !r.color || styled == nil {
		return text
	}
	return styled(text)
}

// Results prints the search results with per-result calibration when
// available. cals may be nil or shorter than the result list.
func (r *Renderer) Results(query string, resp *search.Response, cals []*calibrate.Calibration) {
	st := r.styles

	fmt.Fprintf(r.out, "%s %s\n", r.render(st.Label.Render, "query:"), r.render(st.Title.Render, query))
	if resp.QueryType != "" {
		fmt.Fprintf(r.out, "%s %s\n", r.render(st.Label.Render, "type:"), string(resp.QueryType))
	}

	if len(resp.Results) == 0 {
		fmt.Fprintln(r.out, r.render(st.Dim.Render, "no results"))
		return
	}
	fmt.Fprintln(r.out)

	for i, res := range resp.Results {
		header := fmt.Sprintf("%2d. %s", i+1, res.DocID)
		score := fmt.Sprintf("hybrid %.3f", res.HybridScore)
		fmt.Fprintf(r.out, "%s  %s\n", r.render(st.Header.Render, header), r.render(st.Score.Render, score))

		fmt.Fprintf(r.out, "    %s %s\n",
			r.render(st.Label.Render, "sources:"), sourceTag(res))

		if i < len(cals) && cals[i] != nil {
			cal := cals[i]
			fmt.Fprintf(r.out, "    %s %s %.2f ±%.2f  %s\n",
				r.render(st.Label.Render, "confidence:"),
				r.render(st.Bar.Render, ScoreBar(cal.CalibratedConfidence)),
				cal.CalibratedConfidence,
				cal.UncertaintyEstimate,
				r.render(r.qualityStyle(cal.QualityLabel).Render, cal.QualityLabel))
		}

		if snippet := makeSnippet(res.Content); snippet != "" {
			fmt.Fprintf(r.out, "    %s\n", r.render(st.Dim.Render, snippet))
		}
		fmt.Fprintln(r.out)
	}

	if resp.Explain != nil {
		r.explain(resp.Explain)
	}
}

func (r *Renderer) qualityStyle(label string) interface{ Render(...string) string } {
	st := r.styles
	switch {
	case strings.HasPrefix(label, "high_quality"):
		return st.Success
	case strings.HasPrefix(label, "moderate"):
		return st.Warning
	default:
		return st.Error
	}
}

func (r *Renderer) explain(ex *search.ExplainData) {
	st := r.styles
	fmt.Fprintln(r.out, r.render(st.Title.Render, "explain"))
	fmt.Fprintf(r.out, "  expanded query: %s\n", ex.ExpandedQuery)
	fmt.Fprintf(r.out, "  semantic: %d results", ex.SemanticCount)
	if ex.SemanticDegraded {
		fmt.Fprintf(r.out, " %s", r.render(st.Warning.Render, "(degraded)"))
	}
	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "  lexical: %d results", ex.LexicalCount)
	if ex.LexicalDegraded {
		fmt.Fprintf(r.out, " %s", r.render(st.Warning.Render, "(degraded)"))
	}
	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "  weights: semantic %.2f / lexical %.2f / rerank %.2f\n",
		ex.Weights.Semantic, ex.Weights.Lexical, ex.Weights.Rerank)
	fmt.Fprintf(r.out, "  reranked: %t  cache hit: %t  took: %s\n", ex.Reranked, ex.CacheHit, ex.Duration)
}

func sourceTag(res *search.FusedResult) string {
	var parts []string
	if res.FoundInSemantic {
		parts = append(parts, "semantic")
	}
	if res.FoundInLexical {
		parts = append(parts, "lexical")
	}
	tag := strings.Join(parts, "+")
	if res.Reranked {
		tag += "  reranked"
	}
	return tag
}

func makeSnippet(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	if len(content) <= snippetLength {
		return content
	}
	cut := strings.LastIndex(content[:snippetLength], " ")
	if cut <= 0 {
		cut = snippetLength
	}
	return content[:cut] + "…"
}

// StatusInfo summarizes engine health for the stats command.
type StatusInfo struct {
	DocumentCount  int     `json:"document_count"`
	TermCount      int     `json:"term_count"`
	SemanticCount  int     `json:"semantic_count"`
	EmbedderModel  string  `json:"embedder_model"`
	LexicalBackend string  `json:"lexical_backend"`
	RerankerKind   string  `json:"reranker_kind"`
	FeedbackCount  int     `json:"feedback_count,omitempty"`
	SemanticWeight float64 `json:"semantic_weight"`
	LexicalWeight  float64 `json:"lexical_weight"`
	RerankWeight   float64 `json:"rerank_weight"`
}

// Status prints engine statistics.
func (r *Renderer) Status(info StatusInfo) {
	st := r.styles
	fmt.Fprintln(r.out, r.render(st.Title.Render, "engine status"))
	fmt.Fprintf(r.out, "  documents: %d (lexical terms: %d, vectors: %d)\n",
		info.DocumentCount, info.TermCount, info.SemanticCount)
	fmt.Fprintf(r.out, "  lexical backend: %s\n", info.LexicalBackend)
	fmt.Fprintf(r.out, "  embedder: %s\n", info.EmbedderModel)
	fmt.Fprintf(r.out, "  reranker: %s\n", info.RerankerKind)
	fmt.Fprintf(r.out, "  weights: semantic %.2f / lexical %.2f / rerank %.2f\n",
		info.SemanticWeight, info.LexicalWeight, info.RerankWeight)
	if info.FeedbackCount > 0 {
		fmt.Fprintf(r.out, "  feedback points: %d\n", info.FeedbackCount)
	}
}

// CalibrationReport prints per-bin calibration quality for each query type
// that has feedback. Query types without feedback are skipped.
func (r *Renderer) CalibrationReport(reports []*calibrate.Report) {
	st := r.styles
	printed := false
	for _, rep := range reports {
		if rep == nil || rep.Count == 0 {
			continue
		}
		if !printed {
			fmt.Fprintln(r.out, r.render(st.Title.Render, "calibration"))
			printed = true
		}
		fmt.Fprintf(r.out, "  %s: %d points, expected error %.3f\n",
			r.render(st.Label.Render, string(rep.QueryType)), rep.Count, rep.ExpectedError)
		for _, bin := range rep.Bins {
			fmt.Fprintf(r.out, "    bin %d: %s predicted %.2f  actual %.2f  (n=%d)\n",
				bin.Bin, r.render(st.Bar.Render, ScoreBar(bin.MeanActual)),
				bin.MeanPredicted, bin.MeanActual, bin.Count)
		}
	}
}

// Error prints a structured error.
func (r *Renderer) Error(err error) {
	if err == nil {
		return
	}
	out := ragerrors.FormatForCLI(err)
	if r.color {
		out = r.styles.Error.Render(out)
	}
	fmt.Fprint(r.out, out)
}

// ErrorJSON prints the error as a JSON object carrying its code, category,
// and retryability, for machine consumers.
func (r *Renderer) ErrorJSON(err error) {
	if err == nil {
		return
	}
	data, jsonErr := ragerrors.FormatJSON(err)
	if jsonErr != nil {
		r.Error(err)
		return
	}
	fmt.Fprintln(r.out, string(data))
}

// JSON prints v as indented JSON, for --json output.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
