package cfg

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ChannelEntry is one channel in the channels file. Name is a label for the
// operator; the catalog stores the title the API reports.
type ChannelEntry struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// ChannelsFile is the operator-maintained list of channels to catalog.
type ChannelsFile struct {
	Channels []ChannelEntry `yaml:"channels"`
}

// LoadChannels reads and validates a channels file. Duplicate ids collapse to
// the first occurrence.
func LoadChannels(path string) (*ChannelsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read channels file: %w", err)
	}

	var file ChannelsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse channels file: %w", err)
	}

	seen := make(map[string]bool, len(file.Channels))
	unique := file.Channels[:0]
	for i, entry := range file.Channels {
		if entry.ID == "" {
			return nil, fmt.Errorf("channel entry %d has no id", i)
		}
		if seen[entry.ID] {
			continue
		}
		seen[entry.ID] = true
		unique = append(unique, entry)
	}
	file.Channels = unique

	return &file, nil
}

// ChannelIDs returns the ids in file order.
func (f *ChannelsFile) ChannelIDs() []string {
	ids := make([]string, len(f.Channels))
	for i, entry := range f.Channels {
		ids[i] = entry.ID
	}
	return ids
}
