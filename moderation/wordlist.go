package moderation

import (
	"bufio"
	"bytes"
	"embed"
	"io/fs"
	"sort"
	"strings"
)

//go:embed wordlists/*.txt
var wordlistFS embed.FS

// LoadWordlists parses the embedded dictionaries, one per language,
// into a sorted, deduplicated word list. Lines starting with '#' are
// comments.
func LoadWordlists() (words []string, languages []string, err error) {
	entries, err := fs.ReadDir(wordlistFS, "wordlists")
	if err != nil {
		return nil, nil, err
	}

	unique := make(map[string]struct{})
	for _, entry := range entries {
		name := entry.Name()
		languages = append(languages, strings.TrimSuffix(name, ".txt"))

		data, err := wordlistFS.ReadFile("wordlists/" + name)
		if err != nil {
			return nil, nil, err
		}

		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			word := strings.TrimSpace(scanner.Text())
			if word == "" || strings.HasPrefix(word, "#") {
				continue
			}
			unique[strings.ToLower(word)] = struct{}{}
		}
		if err := scanner.Err(); err != nil {
			return nil, nil, err
		}
	}

	for word := range unique {
		words = append(words, word)
	}
	sort.Strings(words)
	return words, languages, nil
}
