package search

// Domain vocabulary for workplace document retrieval.
//
// Query expansion bridges the gap between how people ask ("can I work from
// home") and how policy documents are written ("remote work arrangement").
// The groups below cluster interchangeable terms; expansion appends a couple
// of group members when any member appears in a query.

// DomainTermGroups clusters terms that documents use interchangeably.
// Order within a group matters: expansion picks the first members not
// already present in the query.
var DomainTermGroups = [][]string{
	{"vacation", "leave", "pto", "holiday", "absence"},
	{"policy", "guideline", "procedure", "rule"},
	{"salary", "compensation", "pay", "payroll", "wage"},
	{"remote", "wfh", "telework", "hybrid"},
	{"benefits", "insurance", "coverage", "enrollment"},
	{"expense", "reimbursement", "receipt", "claim"},
	{"onboarding", "orientation", "hiring"},
	{"resignation", "termination", "offboarding", "notice"},
	{"training", "development", "certification", "course"},
	{"security", "vpn", "password", "access"},
	{"performance", "review", "evaluation", "appraisal"},
	{"overtime", "hours", "schedule", "shift"},
}

// SynonymSubstitutions maps informal query terms to the vocabulary documents
// actually use. The substitute is appended to the query, never swapped in.
var SynonymSubstitutions = map[string]string{
	"policy":   "guideline",
	"vacation": "leave",
	"sick":     "medical",
	"boss":     "manager",
	"fired":    "terminated",
	"quit":     "resign",
	"money":    "compensation",
	"rules":    "policy",
	"laptop":   "equipment",
	"wfh":      "remote",
}

// DomainKeywords are terms that signal a document is on-topic for this
// corpus. The heuristic reranker rewards documents sharing these with the
// query.
var DomainKeywords = map[string]bool{
	"policy":        true,
	"employee":      true,
	"benefits":      true,
	"vacation":      true,
	"leave":         true,
	"payroll":       true,
	"compensation":  true,
	"compliance":    true,
	"training":      true,
	"onboarding":    true,
	"remote":        true,
	"expense":       true,
	"reimbursement": true,
	"security":      true,
	"manager":       true,
	"hr":            true,
	"insurance":     true,
	"overtime":      true,
	"termination":   true,
	"performance":   true,
}
