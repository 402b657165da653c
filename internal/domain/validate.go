package domain

import "fmt"

// Validate checks the definition's structural invariants: question IDs are
// unique and, when a classification set is given, every option's type tag
// belongs to it.
func (d QuizDefinition) Validate(classifications []string) error {
	known := make(map[string]struct{}, len(classifications))
	for _, label := range classifications {
		known[label] = struct{}{}
	}

	seen := make(map[string]struct{}, len(d.Questions))
	for _, q := range d.Questions {
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("quiz %s: duplicate question id %q", d.Version, q.ID)
		}
		seen[q.ID] = struct{}{}

		for i, opt := range q.Options {
			if opt.Type == "" {
				return fmt.Errorf("quiz %s: question %q option %d has no type tag", d.Version, q.ID, i)
			}
			if len(known) > 0 {
				if _, ok := known[opt.Type]; !ok {
					return fmt.Errorf("quiz %s: question %q option %d references unknown type %q", d.Version, q.ID, i, opt.Type)
				}
			}
		}
	}
	return nil
}
