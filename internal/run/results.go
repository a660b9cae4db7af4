package run

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Result is one line of a TREC run: "qid iter docid rank score runid".
type Result struct {
	QueryID   string
	Iteration string
	DocID     string
	Rank      int
	Score     float64
	RunID     string

	// Line is the original text, written back unchanged.
	Line string
}

// ParseResults parses TREC run output. Blank lines are skipped.
func ParseResults(text string) ([]Result, error) {
	var out []Result
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 6 {
			return nil, fmt.Errorf("line %d: expected 6 fields, found %d", i+1, len(fields))
		}
		rank, err := strconv.Atoi(fields[3])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid rank %q", i+1, fields[3])
		}
		score, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid score %q", i+1, fields[4])
		}
		out = append(out, Result{
			QueryID:   fields[0],
			Iteration: fields[1],
			DocID:     fields[2],
			Rank:      rank,
			Score:     score,
			RunID:     fields[5],
			Line:      line,
		})
	}
	return out, nil
}

// SortResults orders results by run id, iteration and query id, then by
// descending score, breaking score ties by ascending document id. Keys are
// compared as strings.
func SortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.RunID != b.RunID {
			return a.RunID < b.RunID
		}
		if a.Iteration != b.Iteration {
			return a.Iteration < b.Iteration
		}
		if a.QueryID != b.QueryID {
			return a.QueryID < b.QueryID
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.DocID < b.DocID
	})
}

// FormatResults joins the original lines, one per result.
func FormatResults(results []Result) string {
	var sb strings.Builder
	for _, r := range results {
		sb.WriteString(r.Line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Canonicalize parses, sorts and re-renders a TREC run.
func Canonicalize(text string) (string, error) {
	results, err := ParseResults(text)
	if err != nil {
		return "", err
	}
	SortResults(results)
	return FormatResults(results), nil
}
