// Command lexforge compiles one or more named regex rules into a minimal
// DFA and renders it, mirroring the teacher's cmd/regexviz and cmd/demo
// (flag-based CLI, DOT export, optional interactive pattern/text loop).
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"lexforge/ast"
	"lexforge/automaton"
	"lexforge/internal/regexparse"
	"lexforge/pipeline"
	"lexforge/reportsink"
	"lexforge/reporting"
)

func main() {
	rules := flag.String("rules", "", `semicolon-separated NAME=pattern pairs, e.g. "IDENT=[a-z]+;NUM=[0-9]+"`)
	structured := flag.Bool("structured", false, "use the structured pipeline instead of flatten")
	emitSteps := flag.Bool("steps", false, "emit every intermediate stage to the sink")
	combine := flag.Bool("combine", false, "combine all emitted stages into one DOT graph")
	outFile := flag.String("o", "-", `output file for the DOT graph ("-" for stdout)`)
	interactive := flag.Bool("i", false, "after compiling, read lines from stdin and report match/no-match")
	flag.Parse()

	if *rules == "" {
		fmt.Fprintln(os.Stderr, `usage: lexforge -rules "NAME=pattern;..." [-structured] [-steps] [-combine] [-o file] [-i]`)
		flag.PrintDefaults()
		os.Exit(2)
	}

	desc, err := parseRules(*rules)
	if err != nil {
		fmt.Fprintln(os.Stderr, "parse error:", err)
		os.Exit(1)
	}

	w, closeFn := openOutput(*outFile)
	defer closeFn()

	dot := reportsink.DotSink{W: w}
	var sink reporting.Sink = dot
	var combiner *reportsink.CombiningSink
	if *combine {
		combiner = reportsink.NewCombiningSink(dot)
		sink = combiner
	}

	driver := pipeline.New(pipeline.Options{
		EmitSteps:       *emitSteps,
		PropagateLabels: false,
		CombineGraphs:   *combine,
		Structured:      *structured,
	}, sink)
	driver.Log.Logger.SetLevel(logrus.InfoLevel)

	result, err := driver.Compile(desc)
	if err != nil {
		fmt.Fprintln(os.Stderr, "compile error:", err)
		os.Exit(1)
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: rule %s skipped: %v\n", warning.Rule, warning.Err)
	}
	if combiner != nil {
		combiner.Flush("lexforge")
	} else if !*emitSteps {
		dot.OnStage(reporting.StageHopcroft, result.DFA.Snap(), "lexforge")
	}

	if *interactive {
		runInteractive(result.DFA)
	}
}

func parseRules(spec string) (*ast.LexerDescription, error) {
	desc := &ast.LexerDescription{}
	for i, pair := range strings.Split(spec, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, pattern, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("rule %q: expected NAME=pattern", pair)
		}
		stmt, err := regexparse.ParseRule(name, i+1, pattern, "")
		if err != nil {
			return nil, err
		}
		desc.Rules = append(desc.Rules, stmt)
	}
	return desc, nil
}

func openOutput(path string) (io.Writer, func()) {
	if path == "-" {
		return os.Stdout, func() {}
	}
	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot create %s: %v\n", path, err)
		os.Exit(1)
	}
	return f, func() { f.Close() }
}

// runInteractive reads lines from stdin and reports which rule (if any)
// accepts each one, the generalized form of the teacher's cmd/demo
// pattern/text REPL loop (here: the automaton is fixed up front, only the
// input text varies per line).
func runInteractive(dfa *automaton.FA) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("text> ")
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		if tag, ok := matchRule(dfa, line); ok {
			fmt.Printf("matched rule %s\n", tag)
		} else {
			fmt.Println("no match")
		}
	}
}

func matchRule(dfa *automaton.FA, s string) (string, bool) {
	cur := dfa.Initial()
	for _, c := range s {
		next, ok := stepOn(dfa, cur, c)
		if !ok {
			return "", false
		}
		cur = next
	}
	return dfa.IsFinal(cur)
}

func stepOn(dfa *automaton.FA, from automaton.NodeID, c rune) (automaton.NodeID, bool) {
	for _, e := range dfa.EdgesFrom(from) {
		if e.Label != nil && e.Label.Contains(c) {
			return e.To, true
		}
	}
	return automaton.NodeID{}, false
}
