package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/san-kum/mdbridge/internal/sampling"
)

// SaveResult writes a sampling result to path as indented JSON. The file is
// the restart artifact that "reconstruct" reads back.
func SaveResult(path string, res *sampling.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode result %s: %w", res.ID, err)
	}
	return file.Sync()
}

func LoadResult(path string) (*sampling.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var res sampling.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", path, err)
	}
	return &res, nil
}
