// Package report renders the result of a walk as YAML.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/vk/buildshim/internal/capability"
	"github.com/vk/buildshim/internal/walker"
	"gopkg.in/yaml.v3"
)

// Document is the serialized form of a walker.Report.
type Document struct {
	DryRun      bool         `yaml:"dry_run"`
	Summary     Summary      `yaml:"summary"`
	Subprojects []Subproject `yaml:"subprojects"`
}

// Summary totals outcomes over all subprojects.
type Summary struct {
	Subprojects int `yaml:"subprojects"`
	Applied     int `yaml:"applied"`
	Unchanged   int `yaml:"unchanged"`
	Failed      int `yaml:"failed"`
}

type Subproject struct {
	Name     string    `yaml:"name"`
	State    string    `yaml:"state"`
	Platform bool      `yaml:"platform"`
	Model    string    `yaml:"model,omitempty"`
	Error    string    `yaml:"error,omitempty"`
	Planned  []Planned `yaml:"planned,omitempty"`
	Outcomes []Outcome `yaml:"outcomes,omitempty"`
}

type Planned struct {
	Capability string `yaml:"capability"`
	Value      string `yaml:"value"`
	Strategy   string `yaml:"strategy"`
	Mode       string `yaml:"mode"`
}

type Outcome struct {
	Capability string `yaml:"capability"`
	Status     string `yaml:"status"`
	Value      string `yaml:"value,omitempty"`
	Strategy   string `yaml:"strategy,omitempty"`
	Error      string `yaml:"error,omitempty"`
}

// Build converts r into its serialized form.
func Build(r *walker.Report) Document {
	doc := Document{
		DryRun: r.DryRun,
		Summary: Summary{
			Subprojects: len(r.Results),
			Applied:     r.Count(capability.Applied),
			Unchanged:   r.Count(capability.Unchanged),
			Failed:      r.Count(capability.Failed),
		},
	}
	for _, res := range r.Results {
		sp := Subproject{
			Name:     res.Subproject,
			State:    res.State().String(),
			Platform: res.Platform,
			Model:    res.Model,
		}
		if res.Err != nil {
			sp.Error = res.Err.Error()
		}
		for _, p := range res.Planned {
			sp.Planned = append(sp.Planned, Planned{
				Capability: string(p.Capability),
				Value:      capability.Format(p.Value),
				Strategy:   p.Strategy,
				Mode:       p.Mode.String(),
			})
		}
		for _, o := range res.Outcomes {
			out := Outcome{
				Capability: string(o.Capability),
				Status:     o.Status.String(),
				Value:      o.Value,
				Strategy:   o.Strategy,
			}
			if o.Err != nil {
				out.Error = o.Err.Error()
			}
			sp.Outcomes = append(sp.Outcomes, out)
		}
		doc.Subprojects = append(doc.Subprojects, sp)
	}
	return doc
}

// Encode writes r as YAML to w.
func Encode(w io.Writer, r *walker.Report) error {
	data, err := yaml.Marshal(Build(r))
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// WriteFile writes r as YAML to path.
func WriteFile(path string, r *walker.Report) error {
	data, err := yaml.Marshal(Build(r))
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing report to %s: %w", path, err)
	}
	return nil
}
