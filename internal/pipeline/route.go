package pipeline

import (
	"regexp"
	"strings"
)

type Route string

const (
	RouteQuery       Route = "query"
	RouteVisualize   Route = "visualize"
	RouteUnsupported Route = "unsupported"
)

var (
	visualizeKeywords = []string{"plot", "graph", "visualize", "chart", "create"}
	queryKeywords     = []string{
		"count", "list", "show", "fetch", "oldest", "youngest", "how many", "find", "get",
		"select", "display", "who", "what", "which", "all", "total", "first", "last",
	}
	wordPattern = regexp.MustCompile(`[a-z0-9]+`)
)

// Classify routes a question by keyword. Visualization keywords win over
// query keywords.
func Classify(question string) Route {
	normalized := " " + strings.Join(wordPattern.FindAllString(strings.ToLower(question), -1), " ") + " "
	if containsAny(normalized, visualizeKeywords) {
		return RouteVisualize
	}
	if containsAny(normalized, queryKeywords) {
		return RouteQuery
	}
	return RouteUnsupported
}

func containsAny(normalized string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(normalized, " "+keyword+" ") {
			return true
		}
	}
	return false
}
