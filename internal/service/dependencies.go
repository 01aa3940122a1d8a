package service

import (
	"go.uber.org/zap"
)

// Dependencies bundles collaborators shared by the hierarchy services.
type Dependencies struct {
	Logger   *zap.Logger
	Recorder *AuditRecorder
	Cycles   *CycleDetector
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Recorder == nil {
		d.Recorder = NewAuditRecorder(d.Logger)
	}
	if d.Cycles == nil {
		d.Cycles = NewCycleDetector()
	}
	return d
}
