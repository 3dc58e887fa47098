package reportsink

import (
	"github.com/sirupsen/logrus"

	"lexforge/automaton"
)

// LogSink emits one structured log line per stage via logrus, the
// "ambient stack" substitute for the teacher's direct ExportDOT-to-stdout
// debugging (spec §4.6 "emit-steps"). Fields follow the convention the
// rest of the module uses: rule, stage, states, edges.
type LogSink struct {
	Log *logrus.Entry
}

// NewLogSink wraps the standard logrus logger.
func NewLogSink() LogSink {
	return LogSink{Log: logrus.NewEntry(logrus.StandardLogger())}
}

func (s LogSink) OnStage(stageTag string, snap automaton.Snapshot, key string) {
	s.Log.WithFields(logrus.Fields{
		"rule":   key,
		"stage":  stageTag,
		"states": len(snap.Nodes),
		"edges":  len(snap.Edges),
	}).Info("automaton stage")
}
