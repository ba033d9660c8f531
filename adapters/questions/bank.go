package questions

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/layer-3/accolade/core"
)

//go:embed questions.json
var defaultBank []byte

// Default returns the built-in question bank
func Default() ([]core.Question, error) {
	return Parse(defaultBank)
}

// LoadFile reads a question bank from a JSON file
func LoadFile(path string) ([]core.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a JSON question bank
func Parse(data []byte) ([]core.Question, error) {
	var bank []core.Question
	if err := json.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("decode question bank: %w", err)
	}
	if len(bank) == 0 {
		return nil, fmt.Errorf("question bank is empty")
	}

	seen := make(map[int]bool, len(bank))
	for _, q := range bank {
		if seen[q.ID] {
			return nil, fmt.Errorf("question %d: duplicate id", q.ID)
		}
		seen[q.ID] = true

		if len(q.Options) < 2 {
			return nil, fmt.Errorf("question %d: needs at least two options", q.ID)
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return nil, fmt.Errorf("question %d: correct answer %d out of range", q.ID, q.CorrectIndex)
		}
	}
	return bank, nil
}
