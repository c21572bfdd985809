// Package observability provides formatted CLI output and prometheus metrics.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/occupation-matcher/internal/index"
	"github.com/jonathan/occupation-matcher/internal/skills"
	"github.com/jonathan/occupation-matcher/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for human-readable mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to n runes, marking the cut with "..."
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// PrintMatchResponse outputs the top candidates and the resolved profile.
func (p *Printer) PrintMatchResponse(resp *types.MatchResponse) {
	if resp == nil {
		return
	}
	if !resp.Success {
		p.printBox("MATCH FAILED", resp.Error)
		return
	}

	p.PrintResolvedProfile(&resp.Meta.ResolvedProfile)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Candidates: %d scored, %d above threshold\n",
		resp.Meta.TotalCandidates, resp.Meta.MatchedCandidates))
	if resp.Meta.Diagnostic != "" {
		sb.WriteString(fmt.Sprintf("Note: %s\n", resp.Meta.Diagnostic))
	}

	count := min(len(resp.Matches), maxItemsToShow)
	for i := 0; i < count; i++ {
		m := resp.Matches[i]
		label := m.Occupation.Label
		if label == "" {
			label = m.Occupation.URI
		}
		sb.WriteString(fmt.Sprintf("\n#%d  %s\n", i+1, label))
		sb.WriteString(fmt.Sprintf("    Score: %.2f", m.Score))
		if s, ok := m.Breakdown[types.CategorySkills]; ok && s.TotalCount > 0 {
			sb.WriteString(fmt.Sprintf("  (skills %d/%d)", s.MatchedCount, s.TotalCount))
		}
		sb.WriteString("\n")
		if gaps := m.Gaps[types.CategorySkills]; len(gaps) > 0 {
			labels := make([]string, 0, min(len(gaps), 3))
			for _, g := range gaps[:min(len(gaps), 3)] {
				labels = append(labels, g.Label)
			}
			sb.WriteString(fmt.Sprintf("    Gaps: %s\n", strings.Join(labels, ", ")))
		}
	}

	if len(resp.Matches) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more matches", len(resp.Matches)-maxItemsToShow))
	}

	p.printBox("TOP MATCHING OCCUPATIONS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResolvedProfile outputs how profile entries resolved.
func (p *Printer) PrintResolvedProfile(rp *types.ResolvedProfile) {
	if rp == nil || (len(rp.Resolved) == 0 && len(rp.Unresolved) == 0) {
		return
	}

	var sb strings.Builder
	for _, t := range rp.Resolved {
		mark := "✓"
		if t.NeedsConfirmation {
			mark = "?"
		}
		target := t.PrefLabel
		if target == "" {
			target = t.ConceptURI
		}
		sb.WriteString(fmt.Sprintf("%s %s → %s [%s]\n", mark, t.InputText, target, t.MatchTier))
	}
	for _, u := range rp.Unresolved {
		sb.WriteString(fmt.Sprintf("✗ %s\n", u))
	}

	p.printBox("RESOLVED PROFILE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResolveResult outputs the candidates for one search term.
func (p *Printer) PrintResolveResult(res *types.ResolveResult) {
	if res == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Term:       %s\n", res.SearchTerm))
	sb.WriteString(fmt.Sprintf("Normalized: %s\n", res.Normalized))
	if res.NeedsConfirmation {
		sb.WriteString("Status:     needs confirmation\n")
	}
	if res.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("%s\n", res.Suggestion))
	}

	if len(res.Matches) > 0 {
		sb.WriteString("\n")
		count := min(len(res.Matches), maxItemsToShow)
		for i := 0; i < count; i++ {
			m := res.Matches[i]
			sb.WriteString(fmt.Sprintf("• %s (%s, %.2f)\n", m.PrefLabel, m.MatchType, m.Confidence))
			sb.WriteString(fmt.Sprintf("  %s\n", m.URI))
		}
		if len(res.Matches) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("... and %d more\n", len(res.Matches)-maxItemsToShow))
		}
	}

	title := "CONCEPT NOT FOUND"
	if res.Found {
		title = "RESOLVED CONCEPTS"
	}
	p.printBox(title, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintIndexStats outputs the size of the requirement index.
func (p *Printer) PrintIndexStats(stats index.Stats) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Occupations: %d\n", stats.Occupations))
	sb.WriteString(fmt.Sprintf("Concepts:    %d\n", stats.Concepts))
	sb.WriteString(fmt.Sprintf("Links:       %d\n", stats.Links))
	sb.WriteString(fmt.Sprintf("Duplicates:  %d\n", stats.Duplicates))
	sb.WriteString(fmt.Sprintf("Built at:    %s", stats.BuiltAt.Format("2006-01-02 15:04:05")))
	p.printBox("REQUIREMENT INDEX", sb.String())
}

// PrintIdfSummary outputs IDF summary statistics.
func (p *Printer) PrintIdfSummary(s skills.Summary) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Skills:    %d\n", s.TotalSkills))
	sb.WriteString(fmt.Sprintf("IDF:       avg %.3f, min %.3f, max %.3f\n", s.AvgIDF, s.MinIDF, s.MaxIDF))
	sb.WriteString(fmt.Sprintf("Universal: %d (>%.0f%% of occupations)\n", s.Universal, skills.UniversalCoverage))
	sb.WriteString(fmt.Sprintf("Specific:  %d (<%.0f%% of occupations)\n", s.Specific, skills.SpecificCoverage))

	if len(s.MostUnique) > 0 {
		sb.WriteString("\nMost unique:\n")
		for _, w := range s.MostUnique[:min(len(s.MostUnique), maxItemsToShow)] {
			sb.WriteString(fmt.Sprintf("  • %s (%.3f, %.1f%%)\n", w.SkillLabel, w.IDF, w.CoveragePercent))
		}
	}
	if len(s.MostUniversal) > 0 {
		sb.WriteString("\nMost universal:\n")
		for _, w := range s.MostUniversal[:min(len(s.MostUniversal), maxItemsToShow)] {
			sb.WriteString(fmt.Sprintf("  • %s (%.3f, %.1f%%)\n", w.SkillLabel, w.IDF, w.CoveragePercent))
		}
	}
	if len(s.Categories) > 0 {
		sb.WriteString("\nCategories:\n")
		for _, c := range s.Categories {
			sb.WriteString(fmt.Sprintf("  %-10s %4d  avg %.3f\n", c.Category, c.Count, c.AvgIDF))
		}
	}

	p.printBox("IDF WEIGHTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintMissingTerms outputs the most searched unresolved terms.
func (p *Printer) PrintMissingTerms(terms []types.MissingTerm) {
	if len(terms) == 0 {
		p.printBox("MISSING VOCABULARY", "No unresolved searches")
		return
	}

	var sb strings.Builder
	for _, t := range terms {
		sb.WriteString(fmt.Sprintf("%4d×  %s\n", t.SearchCount, t.SearchTerm))
	}
	p.printBox("MISSING VOCABULARY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSuggestions outputs autocomplete entries.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintSuggestions(suggestions []types.LabelSuggestion) {
	for _, s := range suggestions {
		if s.Label != s.PrefLabel && s.PrefLabel != "" {
			fmt.Fprintf(p.out, "%s (%s)\n", s.Label, s.PrefLabel)
			continue
		}
		fmt.Fprintln(p.out, s.Label)
	}
}
