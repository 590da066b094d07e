package source

import (
	"fmt"
	"os"
	"time"

	"github.com/pocketsafe/pocketsafe/internal/model"

	"gopkg.in/yaml.v3"
)

// ParseObligationsYAML reads an obligations file. Every entry is validated
// the same way as obligations entered on the command line; the first invalid
// entry fails the whole file.
func ParseObligationsYAML(path string) ([]model.Obligation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file ObligationsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	out := make([]model.Obligation, 0, len(file.Obligations))
	for i, raw := range file.Obligations {
		o, err := raw.toObligation()
		if err != nil {
			return nil, fmt.Errorf("%s entry %d (%q): %w", path, i+1, raw.Name, err)
		}
		out = append(out, o)
	}
	return out, nil
}

func (r RawObligation) toObligation() (model.Obligation, error) {
	kind, err := model.ParseKind(r.Kind)
	if err != nil {
		return model.Obligation{}, err
	}
	rec, err := model.ParseRecurrence(r.Recurrence)
	if err != nil {
		return model.Obligation{}, err
	}
	amount, err := model.ParseAmount(r.Amount)
	if err != nil {
		return model.Obligation{}, err
	}
	due, err := ParseDate(r.Due)
	if err != nil {
		return model.Obligation{}, fmt.Errorf("%w: %v", model.ErrInvalidObligation, err)
	}

	o := model.Obligation{
		ID:         r.ID,
		Kind:       kind,
		Name:       r.Name,
		Amount:     amount,
		DueAt:      due,
		Recurrence: rec,
		AnchorDay:  r.AnchorDay,
		Active:     !r.Paused,
		Settled:    r.Settled,
	}
	if err := o.Validate(); err != nil {
		return model.Obligation{}, err
	}
	return o, nil
}

// WriteObligationsYAML writes obligations in the layout ParseObligationsYAML reads.
func WriteObligationsYAML(path string, obligations []model.Obligation) error {
	file := ObligationsFile{Obligations: make([]RawObligation, 0, len(obligations))}
	for _, o := range obligations {
		file.Obligations = append(file.Obligations, RawObligation{
			ID:         o.ID,
			Kind:       string(o.Kind),
			Name:       o.Name,
			Amount:     o.Amount.String(),
			Due:        FormatDate(o.DueAt),
			Recurrence: string(o.Recurrence),
			AnchorDay:  o.AnchorDay,
			Paused:     !o.Active,
			Settled:    o.Settled,
		})
	}

	data, err := yaml.Marshal(file)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// FormatDate renders t as a plain date when it falls on UTC midnight and as RFC3339 otherwise.
func FormatDate(t time.Time) string {
	t = t.UTC()
	if t.Equal(t.Truncate(24 * time.Hour)) {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}
