package rewrite

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
)

var (
	simpleListPattern = regexp.MustCompile(`(?s)<list type="simple">\s*(.*?)\s*</list>`)
	itemPattern       = regexp.MustCompile(`(?s)<item>(.*?)</item>`)
)

// ListStats summarizes a ConvertLists run.
type ListStats struct {
	Converted int `json:"converted"`
	Remaining int `json:"remaining"`
}

// ConvertLists replaces every simple list with a single paragraph. The first
// item is treated as a label; the remaining items become its content.
func ConvertLists(input []byte) ([]byte, ListStats) {
	out := simpleListPattern.ReplaceAllFunc(input, func(list []byte) []byte {
		return []byte(listToParagraph(string(list)))
	})

	before := len(simpleListPattern.FindAllIndex(input, -1))
	remaining := len(simpleListPattern.FindAllIndex(out, -1))
	return out, ListStats{Converted: before - remaining, Remaining: remaining}
}

// listToParagraph converts one <list> element. Lists without items are
// returned unchanged.
func listToParagraph(list string) string {
	items := lo.Map(itemPattern.FindAllStringSubmatch(list, -1), func(m []string, _ int) string {
		return strings.TrimSpace(m[1])
	})
	if len(items) == 0 {
		return list
	}

	label := items[0]
	content := items[1:]
	switch {
	case len(content) == 0:
		return "<p>" + label + "</p>"
	case len(content) == 1:
		return "<p>" + label + " " + content[0] + "</p>"
	case !strings.HasPrefix(content[0], "-"):
		details := strings.Join(content[1:], " ")
		if details == "" {
			return "<p>" + label + " " + content[0] + "</p>"
		}
		return "<p>" + label + " " + content[0] + " [" + details + "]</p>"
	default:
		return "<p>" + label + " [" + strings.Join(content, " ") + "]</p>"
	}
}
