package export

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/statcompass/statcompass/pkg/analysis"
	"github.com/statcompass/statcompass/pkg/model"
)

// GenerateMarkdown creates a markdown report: summary numbers, the decision
// tree as a nested outline, and the recommendation notes for every leaf.
func GenerateMarkdown(data model.TreeData, title string) (string, error) {
	if err := data.Validate(); err != nil {
		return "", fmt.Errorf("invalid tree: %w", err)
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().Format(time.RFC1123)))

	stats := analysis.Compute(data)
	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Nodes**: %d\n", stats.NodeCount))
	sb.WriteString(fmt.Sprintf("- **Questions**: %d\n", stats.QuestionCount))
	sb.WriteString(fmt.Sprintf("- **Recommendations**: %d\n", stats.LeafCount))
	sb.WriteString(fmt.Sprintf("- **Max depth**: %d\n\n", stats.MaxDepth))

	if len(stats.Unreachable) > 0 {
		sb.WriteString(fmt.Sprintf("> Unreachable nodes: %s\n\n", strings.Join(stats.Unreachable, ", ")))
	}
	if len(stats.Dangling) > 0 {
		sb.WriteString(fmt.Sprintf("> Missing targets: %s\n\n", strings.Join(stats.Dangling, ", ")))
	}

	sb.WriteString("## Decision Tree\n\n")
	writeOutline(&sb, data, model.RootID, "", 0, map[string]bool{})
	sb.WriteString("\n---\n\n")

	sb.WriteString("## Recommendations\n\n")
	for _, id := range leafIDsInWalkOrder(data) {
		node := data[id]
		sb.WriteString(fmt.Sprintf("### %s\n\n", node.Result.Test))
		if node.Result.Notes != "" {
			sb.WriteString(node.Result.Notes + "\n\n")
		}
	}

	return sb.String(), nil
}

// SaveMarkdownToFile writes the generated markdown report.
func SaveMarkdownToFile(data model.TreeData, title, filename string) error {
	content, err := GenerateMarkdown(data, title)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, []byte(content), 0o644)
}

// writeOutline emits the tree as a nested bullet list in declared option
// order. onPath guards against cycles; a revisited node gets a back
// reference instead of another subtree.
func writeOutline(sb *strings.Builder, data model.TreeData, id, label string, depth int, onPath map[string]bool) {
	indent := strings.Repeat("  ", depth)
	node, ok := data[id]
	if !ok {
		sb.WriteString(fmt.Sprintf("%s- %s → `%s` *(missing)*\n", indent, label, id))
		return
	}

	if node.IsLeaf() {
		line := fmt.Sprintf("**%s**", nodeLabel(data, id))
		if label != "" {
			line = label + " → " + line
		}
		sb.WriteString(fmt.Sprintf("%s- %s\n", indent, line))
		return
	}

	text := nodeLabel(data, id)
	if label != "" {
		text = label + " → " + text
	}

	if onPath[id] {
		sb.WriteString(fmt.Sprintf("%s- %s *(see above)*\n", indent, text))
		return
	}

	sb.WriteString(fmt.Sprintf("%s- %s\n", indent, text))
	onPath[id] = true
	for _, opt := range node.Options {
		writeOutline(sb, data, opt.NextNodeID, opt.Label, depth+1, onPath)
	}
	delete(onPath, id)
}

// leafIDsInWalkOrder returns reachable leaves with a result, in DFS option
// order from the root.
func leafIDsInWalkOrder(data model.TreeData) []string {
	var leaves []string
	seen := map[string]bool{}
	var walk func(id string)
	walk = func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		node, ok := data[id]
		if !ok {
			return
		}
		if node.IsLeaf() {
			if node.Result != nil {
				leaves = append(leaves, id)
			}
			return
		}
		for _, opt := range node.Options {
			walk(opt.NextNodeID)
		}
	}
	walk(model.RootID)
	return leaves
}
