package builtin

import (
	"github.com/skilllite/skilllite/internal/tool"
)

// Deps bundles everything RegisterAll needs to construct the built-in
// tool set for one session. PlanStore/TranscriptRenderer/Confirmer are
// minimal local interfaces (see plan.go, command.go) so this package
// never imports the task planner, transcript, or sink packages directly.
type Deps struct {
	WorkspaceDir string
	OutputDir    string
	BackupDir    string
	SessionID    string

	Confirmer  Confirmer
	PlanStore  PlanStore
	Transcript TranscriptRenderer
	OnPlanUpdate func([]PlanStep)
}

// RegisterAll registers every spec.md §4.7 built-in into r. Callers that
// only need a subset (e.g. a read-only preview context) can register
// individual tools directly instead.
func RegisterAll(r *tool.Registry, d Deps) {
	r.Register(NewReadFileTool(d.WorkspaceDir, d.OutputDir))
	r.Register(NewWriteFileTool(d.WorkspaceDir, d.OutputDir))
	r.Register(NewSearchReplaceTool(d.WorkspaceDir, d.OutputDir, d.BackupDir))
	r.Register(NewPreviewEditTool(d.WorkspaceDir, d.OutputDir, d.BackupDir))
	r.Register(NewInsertLinesTool(d.WorkspaceDir, d.OutputDir, d.BackupDir))
	r.Register(NewListDirectoryTool(d.WorkspaceDir, d.OutputDir))
	r.Register(NewFileExistsTool(d.WorkspaceDir, d.OutputDir))

	r.Register(NewWriteOutputTool(d.OutputDir))
	r.Register(NewListOutputTool(d.OutputDir))

	r.Register(NewRunCommandTool(d.WorkspaceDir, d.Confirmer))
	r.Register(NewPreviewServerTool(d.WorkspaceDir, d.OutputDir))
	r.Register(NewWebReaderTool())

	if d.Transcript != nil {
		r.Register(NewChatHistoryTool(d.Transcript, d.SessionID))
	}
	if d.PlanStore != nil {
		r.Register(NewChatPlanTool(d.PlanStore, d.SessionID))
		r.Register(NewUpdateTaskPlanTool(d.PlanStore, d.SessionID, d.OnPlanUpdate))
	}
}
