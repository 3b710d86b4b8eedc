package plans

import (
	"context"
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// fileSource loads plans from a YAML file so plan definitions ship as
// ops-editable configuration rather than code.
type fileSource struct {
	path string
}

// NewFileSource returns a Source backed by a YAML file.
// The file holds a list of plans:
//
//	- slug: free
//	  name: Free
//	  interval: none
//	  limits:
//	    active: 5
//	    completed: 20
//	    total: 25
//	  public: true
func NewFileSource(path string) Source {
	return &fileSource{path: path}
}

// Load reads and parses the plan file on every call, so a catalog reload
// picks up edits without a process restart.
func (s *fileSource) Load(ctx context.Context) (map[string]Plan, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	var list []Plan
	if err := yaml.Unmarshal(raw, &list); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	plans := make(map[string]Plan, len(list))
	for _, plan := range list {
		plans[plan.Slug] = plan
	}
	return plans, nil
}
