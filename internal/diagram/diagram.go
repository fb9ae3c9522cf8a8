// Package diagram parses Mermaid-style flow charts and resolves move
// transitions against them.
//
// A diagram is a newline-delimited sequence of edge statements of the form
//
//	<source> --> <target>[move label]
//
// where the bracketed move label is optional. Nodes are implicit: a node is
// whatever label text appears on either side of an arrow.
package diagram

import (
	"strings"
)

const arrow = "-->"

// Edge is a directed, labeled transition between two position nodes.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Move   string `json:"move"`
}

// ResolveNextNode resolves the node reached by choosing a move on the given
// diagram. Edge statements are scanned in document order and the first
// statement whose full text contains chosenMove as a substring wins; there is
// no scoring or disambiguation between multiple matches. The second return is
// false when no statement matches, which callers must treat as "stay on the
// current diagram" rather than an error.
//
// This is a textual match, not a semantic graph resolution: labels are free
// text, so a chosen move that happens to be a substring of an unrelated edge
// will resolve to that edge.
func ResolveNextNode(diagramText, chosenMove string) (string, bool) {
	for _, line := range strings.Split(diagramText, "\n") {
		_, target, ok := splitEdge(line)
		if !ok {
			continue
		}
		if !strings.Contains(line, chosenMove) {
			continue
		}
		return nodeLabel(target), true
	}
	return "", false
}

// Parse extracts the edge list from a diagram. Lines that are not edge
// statements (headers like "graph TD", blanks, comments) are skipped.
func Parse(diagramText string) []Edge {
	var edges []Edge
	for _, line := range strings.Split(diagramText, "\n") {
		source, target, ok := splitEdge(line)
		if !ok {
			continue
		}
		edges = append(edges, Edge{
			Source: nodeLabel(source),
			Target: nodeLabel(target),
			Move:   moveLabel(target),
		})
	}
	return edges
}

// splitEdge splits an edge statement around the first arrow. ok is false for
// lines that carry no arrow.
func splitEdge(line string) (source, target string, ok bool) {
	source, target, ok = strings.Cut(line, arrow)
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(source), strings.TrimSpace(target), true
}

// nodeLabel returns the node part of an edge endpoint: the text before the
// leading bracket, or the full text if no bracket is present.
func nodeLabel(endpoint string) string {
	if i := strings.Index(endpoint, "["); i >= 0 {
		endpoint = endpoint[:i]
	}
	return strings.TrimSpace(endpoint)
}

// moveLabel returns the bracketed label of an edge endpoint, or "" when the
// endpoint carries none.
func moveLabel(endpoint string) string {
	start := strings.Index(endpoint, "[")
	if start < 0 {
		return ""
	}
	rest := endpoint[start+1:]
	if end := strings.Index(rest, "]"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}
