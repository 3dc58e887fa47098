// Package pipeline implements the driver and reporting orchestration (spec
// §4.6, component C6): it wires C3 (thompson) -> C4 (subset) -> C5
// (minimize) for a rule set, in either flatten or structured mode, and
// invokes a reporting.Sink at configured points. The core does no I/O
// itself — see spec §6.3.
package pipeline

import (
	"sync"

	"github.com/sirupsen/logrus"

	"lexforge/ast"
	"lexforge/automaton"
	"lexforge/lexerr"
	"lexforge/minimize"
	"lexforge/reporting"
	"lexforge/subset"
	"lexforge/thompson"
)

// Options is the configuration surface the driver honors (spec §6.4):
// no file, environment, or network surface exists at the core layer, only
// these in-process flags.
type Options struct {
	// EmitSteps invokes the sink at every intermediate stage, not just the
	// final subset/hopcroft passes.
	EmitSteps bool
	// PropagateLabels keeps original node labels across merge, instead of
	// rewriting under a fresh prefix.
	PropagateLabels bool
	// CombineGraphs has the sink aggregate multi-stage snapshots into a
	// single artefact (see reportsink.CombiningSink).
	CombineGraphs bool
	// Structured selects the structured pipeline (per-rule NFA->DFA->
	// minDFA, then Alt-combined) over the default flatten pipeline.
	Structured bool
}

// Warning records a non-fatal per-rule condition the driver surfaced
// instead of aborting (spec §7: UnsupportedConstruct, MalformedRange and
// EmptyLanguage are all skip-and-continue at the rule granularity).
type Warning struct {
	Rule string
	Err  error
}

// Result is the outcome of compiling a full rule set: the minimal DFA plus
// any warnings for rules that were skipped.
type Result struct {
	DFA      *automaton.FA
	Warnings []Warning
	// RuleOrder lists declaration order of every rule tag present in DFA
	// (spec §6.2 output contract: "a list of rule tags in declaration
	// order").
	RuleOrder []string
}

// Driver orchestrates the pipeline for one LexerDescription.
type Driver struct {
	Options Options
	Sink    reporting.Sink
	Log     *logrus.Entry
}

// New returns a Driver with the given options. A nil sink becomes a Nop;
// logging defaults to logrus's standard logger at Info level.
func New(opts Options, sink reporting.Sink) *Driver {
	if sink == nil {
		sink = reporting.Nop{}
	}
	logger := logrus.StandardLogger()
	return &Driver{Options: opts, Sink: sink, Log: logrus.NewEntry(logger)}
}

func (d *Driver) stageSink() reporting.Sink {
	if d.Options.EmitSteps {
		return d.Sink
	}
	return reporting.Nop{}
}

// Compile runs the configured pipeline over desc's rules and returns the
// minimal DFA plus any warnings.
func (d *Driver) Compile(desc *ast.LexerDescription) (*Result, error) {
	priority := make(subset.RulePriority, len(desc.Rules))
	var order []string
	for i, r := range desc.Rules {
		priority[r.Name] = i
		order = append(order, r.Name)
	}

	if d.Options.Structured {
		return d.compileStructured(desc, priority, order)
	}
	return d.compileFlatten(desc, priority, order)
}

// compileFlatten combines all rules via Alt at the NFA level first, then
// runs C4 and C5 exactly once (spec §4.6 "Flatten").
func (d *Driver) compileFlatten(desc *ast.LexerDescription, priority subset.RulePriority, order []string) (*Result, error) {
	combined := automaton.New("")
	init := combined.CreateNode(0)
	combined.SetInitial(init)

	var warnings []Warning
	present := map[string]bool{}
	for _, stmt := range desc.Rules {
		nfa, err := thompson.SynthesizeRule(stmt, d.stageSink())
		if err != nil {
			if e, ok := lexerr.As(err); ok && !e.Kind.Fatal() {
				warnings = append(warnings, Warning{Rule: stmt.Name, Err: err})
				d.Sink.OnStage(reporting.StageError, automaton.Snapshot{}, stmt.Name)
				d.Log.WithFields(logrus.Fields{"rule": stmt.Name, "kind": e.Kind.String()}).Warn("skipping rule")
				continue
			}
			return nil, err
		}
		ruleInit := nfa.Initial()
		remap := combined.Merge(nfa, automaton.MergeOptions{PreserveLabels: d.Options.PropagateLabels})
		combined.AddEdge(init, remap[ruleInit], nil)
		present[stmt.Name] = true
	}

	dfa := subset.Construct(combined, "flatten", priority, d.Sink)
	min := minimize.Minimize(dfa, "flatten", d.Sink)

	return &Result{DFA: min, Warnings: warnings, RuleOrder: filterPresent(order, present)}, nil
}

// compileStructured runs C3->C4->C5 independently per rule (in parallel,
// one goroutine per rule, per spec §5: "a driver may parallelize across independent
// rule inputs in structured mode because per-rule C3/C4/C5 stages touch
// disjoint data"), then Alt-combines the minimal DFAs at the NFA level,
// re-introducing epsilon edges on entry, and runs C4/C5 again on the
// orchestrating goroutine (spec §4.6 "Structured").
func (d *Driver) compileStructured(desc *ast.LexerDescription, priority subset.RulePriority, order []string) (*Result, error) {
	type perRule struct {
		name string
		dfa  *automaton.FA
		err  error
	}
	results := make([]perRule, len(desc.Rules))

	var wg sync.WaitGroup
	for i, stmt := range desc.Rules {
		i, stmt := i, stmt
		wg.Add(1)
		go func() {
			defer wg.Done()
			nfa, err := thompson.SynthesizeRule(stmt, d.stageSink())
			if err != nil {
				results[i] = perRule{name: stmt.Name, err: err}
				return
			}
			dfa := subset.Construct(nfa, stmt.Name, subset.RulePriority{stmt.Name: 0}, d.stageSink())
			min := minimize.Minimize(dfa, stmt.Name, d.stageSink())
			results[i] = perRule{name: stmt.Name, dfa: min}
		}()
	}
	wg.Wait()

	var warnings []Warning
	present := map[string]bool{}
	combined := automaton.New("")
	init := combined.CreateNode(0)
	combined.SetInitial(init)

	for _, r := range results {
		if r.err != nil {
			if e, ok := lexerr.As(r.err); ok && !e.Kind.Fatal() {
				warnings = append(warnings, Warning{Rule: r.name, Err: r.err})
				d.Sink.OnStage(reporting.StageError, automaton.Snapshot{}, r.name)
				d.Log.WithFields(logrus.Fields{"rule": r.name, "kind": e.Kind.String()}).Warn("skipping rule")
				continue
			}
			return nil, r.err
		}
		ruleInit := r.dfa.Initial()
		remap := combined.Merge(r.dfa, automaton.MergeOptions{PreserveLabels: d.Options.PropagateLabels})
		combined.AddEdge(init, remap[ruleInit], nil)
		present[r.name] = true
	}

	dfa := subset.Construct(combined, "structured", priority, d.Sink)
	min := minimize.Minimize(dfa, "structured", d.Sink)

	return &Result{DFA: min, Warnings: warnings, RuleOrder: filterPresent(order, present)}, nil
}

func filterPresent(order []string, present map[string]bool) []string {
	out := make([]string, 0, len(order))
	for _, name := range order {
		if present[name] {
			out = append(out, name)
		}
	}
	return out
}
