package status

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
)

// Formatter renders a Summary for humans
type Formatter interface {
	Format(s *Summary) (string, error)
}

// TableFormatter renders the summary as two pterm tables, one per rule and
// one per archive
type TableFormatter struct{}

// NewTableFormatter creates a new TableFormatter
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{}
}

// Format renders the rule totals, the archive results and the final tally
func (f *TableFormatter) Format(s *Summary) (string, error) {
	var b strings.Builder

	rules := pterm.TableData{{"#", "search", "replace", "matches"}}
	for _, r := range s.Rules {
		rules = append(rules, []string{
			fmt.Sprint(r.Index),
			r.Search,
			r.Replace,
			FormatRuleCount(r),
		})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(rules).Srender()
	if err != nil {
		return "", err
	}
	b.WriteString(table)
	b.WriteString("\n\n")

	if len(s.Archives) > 0 {
		archives := pterm.TableData{{"archive", "status", "members", "replacements", "output"}}
		for _, a := range s.Archives {
			output := filepath.Base(a.Output)
			if a.Status != StatusWritten {
				output = a.Error
			}
			members := fmt.Sprint(a.Members)
			if n := len(a.SkippedMembers); n > 0 {
				members = fmt.Sprintf("%d (%d skipped)", a.Members, n)
			}
			archives = append(archives, []string{
				filepath.Base(a.Archive),
				a.Status.String(),
				members,
				fmt.Sprint(a.Replacements),
				output,
			})
		}
		table, err = pterm.DefaultTable.WithHasHeader().WithData(archives).Srender()
		if err != nil {
			return "", err
		}
		b.WriteString(table)
		b.WriteString("\n\n")
	}

	b.WriteString(FormatTally(s))
	return b.String(), nil
}

// FormatRuleCount renders a rule's count, distinguishing a rule that never
// ran from one that matched nothing
func FormatRuleCount(r RuleTotal) string {
	switch {
	case !r.Ran:
		return "never ran"
	case r.SharedWith > 0:
		return fmt.Sprintf("%d (shared with #%d)", r.Count, r.SharedWith)
	default:
		return fmt.Sprint(r.Count)
	}
}

// FormatTally formats the closing line with emoji
func FormatTally(s *Summary) string {
	if s.Failed > 0 {
		return fmt.Sprintf("❌ %d archives written, %d failed, %d replacements", s.Succeeded, s.Failed, s.Replacements())
	}
	return fmt.Sprintf("✅ %d archives written, %d replacements", s.Succeeded, s.Replacements())
}
