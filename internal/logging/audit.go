package logging

import (
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// AUDIT EVENT TYPES
// =============================================================================

// AuditEventType names one kind of run event.
type AuditEventType string

const (
	AuditRunStart   AuditEventType = "run_start"
	AuditRunEnd     AuditEventType = "run_end"
	AuditStage      AuditEventType = "stage"
	AuditProcedure  AuditEventType = "procedure"
	AuditExport     AuditEventType = "export"
	AuditStoreWrite AuditEventType = "store_write"
)

// AuditEvent is one structured record of what a run did.
type AuditEvent struct {
	Type       AuditEventType
	RunID      string
	Name       string
	RowsIn     int
	RowsOut    int
	DurationMs int64
	Success    bool
	Error      string
	Fields     map[string]interface{}
}

// AuditLogger writes audit events for one run.
type AuditLogger struct {
	runID string
}

// Audit returns an audit logger bound to runID.
func Audit(runID string) *AuditLogger {
	return &AuditLogger{runID: runID}
}

// Log writes the event with its fields flattened into zap fields.
func (a *AuditLogger) Log(event AuditEvent) {
	if event.RunID == "" {
		event.RunID = a.runID
	}
	mu.RLock()
	l := base.Named("audit")
	mu.RUnlock()

	fields := []zap.Field{
		zap.String("event", string(event.Type)),
		zap.String("run", event.RunID),
		zap.Bool("success", event.Success),
	}
	if event.Name != "" {
		fields = append(fields, zap.String("name", event.Name))
	}
	if event.RowsIn != 0 || event.RowsOut != 0 {
		fields = append(fields, zap.Int("rows_in", event.RowsIn), zap.Int("rows_out", event.RowsOut))
	}
	if event.DurationMs != 0 {
		fields = append(fields, zap.Int64("duration_ms", event.DurationMs))
	}
	if event.Error != "" {
		fields = append(fields, zap.String("error", event.Error))
	}
	for k, v := range event.Fields {
		fields = append(fields, zap.Any(k, v))
	}
	if event.Success {
		l.Info("audit", fields...)
	} else {
		l.Warn("audit", fields...)
	}
}

// RunStart records the input a run was started on.
func (a *AuditLogger) RunStart(input string) {
	a.Log(AuditEvent{Type: AuditRunStart, Name: input, Success: true})
}

// RunEnd records the run outcome.
func (a *AuditLogger) RunEnd(d time.Duration, err error) {
	e := AuditEvent{Type: AuditRunEnd, DurationMs: d.Milliseconds(), Success: err == nil}
	if err != nil {
		e.Error = err.Error()
	}
	a.Log(e)
}

// Stage records one cleaning step.
func (a *AuditLogger) Stage(name string, rowsIn, rowsOut int, d time.Duration) {
	a.Log(AuditEvent{Type: AuditStage, Name: name, RowsIn: rowsIn, RowsOut: rowsOut, DurationMs: d.Milliseconds(), Success: true})
}

// Procedure records one statistical procedure.
func (a *AuditLogger) Procedure(name string, n int, d time.Duration, err error) {
	e := AuditEvent{Type: AuditProcedure, Name: name, RowsIn: n, DurationMs: d.Milliseconds(), Success: err == nil}
	if err != nil {
		e.Error = err.Error()
	}
	a.Log(e)
}

// Export records a written table.
func (a *AuditLogger) Export(path string, rows int) {
	a.Log(AuditEvent{Type: AuditExport, Name: path, RowsOut: rows, Success: true})
}

// StoreWrite records a persisted run.
func (a *AuditLogger) StoreWrite(dbPath string, err error) {
	e := AuditEvent{Type: AuditStoreWrite, Name: dbPath, Success: err == nil}
	if err != nil {
		e.Error = err.Error()
	}
	a.Log(e)
}
