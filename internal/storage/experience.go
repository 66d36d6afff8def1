package storage

import "encoding/json"

// ChangeType classifies a file-system change reported via notify_file_change.
type ChangeType string

const (
	ChangeCreated  ChangeType = "created"
	ChangeModified ChangeType = "modified"
	ChangeDeleted  ChangeType = "deleted"
)

// Experience is an agent-decision record appended to the shared
// memory+experience log. It carries its own schema tag so readers can skip
// lines that belong to the memory-entry schema.
type Experience struct {
	Schema       string   `json:"schema"`
	AgentID      string   `json:"agent_id"`
	Decision     string   `json:"decision"`
	Rationale    *string  `json:"rationale,omitempty"`
	FilesTouched []string `json:"files_touched"`
	Timestamp    int64    `json:"timestamp"`
}

// ExperienceSchema is the literal schema tag written/expected in experience
// records, distinguishing them from memory-entry records in the shared log.
const ExperienceSchema = "experience"

// ExperienceLog returns the append-only log backing a project's
// experience (and memory) records.
func (s *Storage) ExperienceLog(hash string) *Log {
	return OpenLog(s.ExperienceLogPath(hash))
}

// AppendExperience durably appends an experience record.
func (s *Storage) AppendExperience(hash string, e Experience) error {
	e.Schema = ExperienceSchema
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.ExperienceLog(hash).AppendDurable(data)
}

// LoadExperiences reads every experience-schema record from a project's
// shared log, skipping lines that belong to the memory-entry schema or are
// otherwise malformed for this schema.
func (s *Storage) LoadExperiences(hash string) ([]Experience, error) {
	lines, err := s.ExperienceLog(hash).ReadAll()
	if err != nil {
		return nil, err
	}
	out := make([]Experience, 0, len(lines))
	for _, line := range lines {
		var probe struct {
			Schema string `json:"schema"`
		}
		if err := json.Unmarshal(line, &probe); err != nil || probe.Schema != ExperienceSchema {
			continue
		}
		var e Experience
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
