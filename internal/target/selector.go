// Package target extracts the rows of one sampling target (a position in a
// tempering or SMC sequence) and/or one external target from tidy output.
package target

import (
	"math"
	"strings"

	"mcmcstats/domain/core"
	"mcmcstats/domain/draws"
)

// ProposalLabel tags synthesized initial-point rows in TargetParameters
const ProposalLabel = "proposal"

// Options selects the subset of rows to analyse. Nil pointers mean "not given".
type Options struct {
	Target           *int
	ExternalTarget   *string
	UseInitialPoints bool
}

// Index and External build option values
func Index(t int) *int { return &t }
func External(name string) *string { return &name }

// Selection is the result of Select
type Selection struct {
	Frame *draws.Frame
	// Parameters describes the selected target(s): the ExternalTargetParameters
	// and TargetParameters of the first matching rows, comma-joined.
	Parameters string
}

// Select narrows rows to the requested target and external target. When
// neither is given and UseInitialPoints is set, the rows of the lowest target
// are duplicated as a uniformly weighted proposal target placed before it.
// The input frame is never modified.
func Select(f *draws.Frame, opts Options) (Selection, error) {
	schema := f.Schema()
	out := f
	var descriptors []string

	if opts.ExternalTarget != nil {
		if !schema.Has(draws.FieldExternalTarget) {
			return Selection{}, core.NewInvalidTargetError("external target", *opts.ExternalTarget)
		}
		name := *opts.ExternalTarget
		out = out.Filter(func(r draws.Row) bool { return r.ExternalTarget == name })
		if out.Len() == 0 {
			return Selection{}, core.NewInvalidTargetError("external target", name)
		}
		if schema.Has(draws.FieldExternalTargetParameters) {
			descriptors = append(descriptors, out.Row(0).ExternalTargetParameters)
		}
	}

	if opts.Target != nil {
		t := *opts.Target
		if !schema.Has(draws.FieldTarget) {
			return Selection{}, core.NewInvalidTargetError("target", t)
		}
		out = out.Filter(func(r draws.Row) bool { return r.Target == t })
		if out.Len() == 0 {
			return Selection{}, core.NewInvalidTargetError("target", t)
		}
		if schema.Has(draws.FieldTargetParameters) {
			descriptors = append(descriptors, out.Row(0).TargetParameters)
		}
	}

	if opts.Target == nil && opts.ExternalTarget == nil && opts.UseInitialPoints {
		return Selection{Frame: withProposal(f)}, nil
	}

	return Selection{Frame: out, Parameters: joinDescriptors(descriptors)}, nil
}

// withProposal prepends a copy of the lowest target's rows relabelled as
// target min-1. Proposal rows get uniform log weights only when the input is
// weighted; unweighted input stays unweighted.
func withProposal(f *draws.Frame) *draws.Frame {
	schema := f.Schema()
	if !schema.Has(draws.FieldTarget) || f.Len() == 0 {
		return f
	}

	minTarget := f.Targets()[0]
	initial := f.Filter(func(r draws.Row) bool { return r.Target == minTarget })
	weighted := schema.Has(draws.FieldLogWeight)
	logWeight := -math.Log(float64(initial.Len()))

	rows := initial.Rows()
	for i := range rows {
		if weighted {
			rows[i].LogWeight = logWeight
		}
		rows[i].Target = minTarget - 1
		if schema.Has(draws.FieldTargetParameters) {
			rows[i].TargetParameters = ProposalLabel
		}
	}

	return draws.Concat(draws.NewFrame(schema, rows), f)
}

func joinDescriptors(parts []string) string {
	nonEmpty := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ",")
}
