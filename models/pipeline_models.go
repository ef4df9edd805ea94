package models

import "time"

type PipelineState string

const (
	StateWaitForObjectCreated PipelineState = "WaitForObjectCreated"
	StateCrawlRaw             PipelineState = "CrawlRaw"
	StateTransformStage       PipelineState = "RunTransform(stage)"
	StateCrawlStage           PipelineState = "CrawlStage"
	StateTransformSpec        PipelineState = "RunTransform(spec)"
	StateCrawlSpec            PipelineState = "CrawlSpec"
	StateDone                 PipelineState = "Done"
	StateFailed               PipelineState = "Failed"
)

func (s PipelineState) Terminal() bool {
	return s == StateDone || s == StateFailed
}

type StateTransition struct {
	State PipelineState `json:"state" bson:"state"`
	At    time.Time     `json:"at" bson:"at"`
}

// PipelineRun is one execution of the orchestration chain.
type PipelineRun struct {
	ID          string            `json:"id" bson:"_id"`
	TriggerKey  string            `json:"trigger_key" bson:"trigger_key"`
	State       PipelineState     `json:"state" bson:"state"`
	Transitions []StateTransition `json:"transitions" bson:"transitions"`
	Error       string            `json:"error,omitempty" bson:"error,omitempty"`
	StartedAt   time.Time         `json:"started_at" bson:"started_at"`
	FinishedAt  time.Time         `json:"finished_at,omitempty" bson:"finished_at,omitempty"`
}
