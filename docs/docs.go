// Package docs serves the bundled documentation topics.
//
// Lookup is deliberately simple: a linear, case-insensitive substring
// scan over topic names and bodies, and exact-name fetch.
package docs

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
)

//go:embed topics/*.md
var topicFS embed.FS

// Topic is one bundled documentation page.
type Topic struct {
	Name string
	Body string
}

// All returns every bundled topic, sorted by name.
func All() []Topic {
	entries, err := topicFS.ReadDir("topics")
	if err != nil {
		return nil
	}
	topics := make([]Topic, 0, len(entries))
	for _, entry := range entries {
		body, err := topicFS.ReadFile(path.Join("topics", entry.Name()))
		if err != nil {
			continue
		}
		topics = append(topics, Topic{
			Name: strings.TrimSuffix(entry.Name(), ".md"),
			Body: string(body),
		})
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Name < topics[j].Name })
	return topics
}

// Search returns the names of topics whose name or body contains the
// query, case-insensitively.
func Search(query string) []string {
	query = strings.ToLower(query)
	var names []string
	for _, topic := range All() {
		if strings.Contains(strings.ToLower(topic.Name), query) ||
			strings.Contains(strings.ToLower(topic.Body), query) {
			names = append(names, topic.Name)
		}
	}
	return names
}

// Get fetches a topic by exact name.
func Get(name string) (Topic, error) {
	for _, topic := range All() {
		if topic.Name == name {
			return topic, nil
		}
	}
	return Topic{}, fmt.Errorf("no documentation topic named %q", name)
}
