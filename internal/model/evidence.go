package model

import "time"

// EvidenceRef records the exact source rows a detector invocation consumed.
// Created once per invocation, before the corresponding DeterministicRun, and
// never mutated afterwards.
type EvidenceRef struct {
	ID          string    `json:"id"`
	SourceURI   string    `json:"source_uri"`
	RowIDs      []string  `json:"row_ids"`
	ContentHash string    `json:"content_hash"`
	Timestamp   time.Time `json:"timestamp"`
}

// DeterministicRun records one reproducible computation: the function, its
// parameters, and the content hash of the artifact it emitted. A rerun with
// identical inputs must reproduce the same OutputHash byte for byte.
type DeterministicRun struct {
	Function     string            `json:"function_name"`
	Params       map[string]string `json:"input_parameters"`
	OutputHash   string            `json:"output_hash"`
	EvidenceID   string            `json:"evidence_id"`
	ArtifactPath string            `json:"artifact_path"`
	Timestamp    time.Time         `json:"timestamp"`
}
