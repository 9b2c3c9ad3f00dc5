//go:build ignore

// Package main generates a synthetic document tree for benchmarking builds.
// Usage: go run scripts/generate-test-corpus.go -files 10000 -output testdata/bench
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"howett.net/plist"
)

var (
	numFiles  = flag.Int("files", 1000, "Number of files to generate")
	outputDir = flag.String("output", "testdata/bench", "Output directory")
	depth     = flag.Int("depth", 3, "Directory nesting depth")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
)

var (
	topics = []string{"garden", "invoice", "travel", "recipe", "meeting", "project", "budget", "reading", "health", "music"}
	words  = []string{
		"plan", "draft", "review", "notes", "summary", "ideas", "list", "call", "follow", "up",
		"monday", "quarter", "report", "weekly", "archive", "todo", "outline", "question", "answer", "link",
	}
	hosts = []string{"example.com", "go.dev", "wikipedia.org", "news.ycombinator.com", "github.com"}
)

// Mix of kinds, by weight: text and markdown dominate, a few bookmarks,
// extensionless files and unsupported extensions that the build skips.
var kinds = []struct {
	ext    string
	weight int
}{
	{".md", 40},
	{".txt", 30},
	{".webloc", 10},
	{"", 10},
	{".jpg", 10},
}

type webloc struct {
	Name string `plist:"Name"`
	URL  string `plist:"URL"`
}

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	fmt.Printf("Generating %d files in %s (seed %d)...\n", *numFiles, *outputDir, *seed)

	counts := make(map[string]int)
	for i := 0; i < *numFiles; i++ {
		ext := pickKind(rng)
		dir := filepath.Join(*outputDir, randomDir(rng))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", dir, err)
			os.Exit(1)
		}

		topic := pick(rng, topics)
		name := fmt.Sprintf("%s-%s-%d%s", topic, pick(rng, words), i, ext)
		data, err := content(rng, ext, topic)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating %s: %v\n", name, err)
			os.Exit(1)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", name, err)
			os.Exit(1)
		}
		counts[ext]++
	}

	for _, k := range kinds {
		label := k.ext
		if label == "" {
			label = "(none)"
		}
		fmt.Printf("  %-8s %d\n", label, counts[k.ext])
	}
	fmt.Println("Done.")
}

func pick(rng *rand.Rand, pool []string) string {
	return pool[rng.Intn(len(pool))]
}

func pickKind(rng *rand.Rand) string {
	total := 0
	for _, k := range kinds {
		total += k.weight
	}
	n := rng.Intn(total)
	for _, k := range kinds {
		if n < k.weight {
			return k.ext
		}
		n -= k.weight
	}
	return kinds[0].ext
}

func randomDir(rng *rand.Rand) string {
	parts := make([]string, rng.Intn(*depth+1))
	for i := range parts {
		parts[i] = pick(rng, topics)
	}
	return filepath.Join(parts...)
}

func sentence(rng *rand.Rand, topic string, n int) string {
	out := make([]string, 0, n+1)
	out = append(out, topic)
	for i := 0; i < n; i++ {
		out = append(out, pick(rng, words))
	}
	return strings.Join(out, " ") + "."
}

func content(rng *rand.Rand, ext, topic string) ([]byte, error) {
	switch ext {
	case ".md":
		var b strings.Builder
		fmt.Fprintf(&b, "# %s\n\n", sentence(rng, topic, 3))
		for i := 0; i < 3+rng.Intn(5); i++ {
			fmt.Fprintf(&b, "- %s\n", sentence(rng, topic, 6+rng.Intn(10)))
		}
		return []byte(b.String()), nil
	case ".txt":
		paragraphs := make([]string, 1+rng.Intn(4))
		for i := range paragraphs {
			paragraphs[i] = sentence(rng, topic, 20+rng.Intn(60))
		}
		return []byte(strings.Join(paragraphs, "\n\n")), nil
	case ".webloc":
		w := webloc{
			Name: sentence(rng, topic, 2),
			URL:  fmt.Sprintf("https://%s/%s/%d", pick(rng, hosts), topic, rng.Intn(100000)),
		}
		return plist.MarshalIndent(w, plist.XMLFormat, "\t")
	case ".jpg":
		return []byte{0xff, 0xd8, 0xff, 0xe0}, nil
	default:
		return []byte(sentence(rng, topic, 5)), nil
	}
}
