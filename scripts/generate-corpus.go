//go:build ignore

// Generates a synthetic document corpus for benchmarking hybrid search.
// Usage: go run scripts/generate-corpus.go -docs 1000 -output testdata/corpus.jsonl
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

var (
	numDocs = flag.Int("docs", 1000, "Number of documents to generate")
	output  = flag.String("output", "testdata/corpus.jsonl", "Output JSON-lines file")
	seed    = flag.Int64("seed", 42, "Random seed for reproducibility")
)

type document struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Title    string         `json:"title"`
	Source   string         `json:"source"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

var topics = []string{
	"vacation", "sick leave", "parental leave", "expense reporting",
	"travel booking", "remote work", "equipment requests", "onboarding",
	"performance reviews", "security training", "benefits enrollment",
	"payroll", "office access", "conference attendance", "relocation",
}

var policySentences = []string{
	"Employees accrue %s at a rate of %d days per year, prorated from the start date.",
	"Unused %s days carry over to the next calendar year up to a maximum of %d.",
	"Requests for %s must be submitted at least %d business days in advance.",
	"Approval for %s rests with the direct manager and takes up to %d days.",
	"The %s allowance resets on January 1st and caps at %d days annually.",
}

var proceduralSentences = []string{
	"To request %s, open the HR portal and complete the %s form.",
	"Attach supporting documents before submitting the %s request.",
	"After submission, the %s workflow routes to your manager for approval.",
	"You will receive a confirmation email once the %s request is processed.",
}

var sources = []string{"employee-handbook", "hr-portal", "policy-wiki", "benefits-guide"}

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	if dir := filepath.Dir(*output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "create output dir: %v\n", err)
			os.Exit(1)
		}
	}
	f, err := os.Create(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create output: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for i := 0; i < *numDocs; i++ {
		topic := topics[rng.Intn(len(topics))]
		doc := document{
			ID:      fmt.Sprintf("doc-%05d", i),
			Content: makeContent(rng, topic),
			Title:   titleCase(topic) + " Policy",
			Source:  sources[rng.Intn(len(sources))],
			Metadata: map[string]any{
				"source_authority":      0.5 + rng.Float64()*0.5,
				"structural_confidence": 0.5 + rng.Float64()*0.5,
			},
		}
		if err := enc.Encode(doc); err != nil {
			fmt.Fprintf(os.Stderr, "write document: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("wrote %d documents to %s\n", *numDocs, *output)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func makeContent(rng *rand.Rand, topic string) string {
	var b strings.Builder
	n := 3 + rng.Intn(4)
	for i := 0; i < n; i++ {
		if rng.Intn(2) == 0 {
			tmpl := policySentences[rng.Intn(len(policySentences))]
			b.WriteString(fmt.Sprintf(tmpl, topic, 5+rng.Intn(20)))
		} else {
			tmpl := proceduralSentences[rng.Intn(len(proceduralSentences))]
			b.WriteString(fmt.Sprintf(tmpl, topic, topic))
		}
		b.WriteString(" ")
	}
	return strings.TrimSpace(b.String())
}
