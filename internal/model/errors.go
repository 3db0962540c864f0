package model

import "github.com/rotisserie/eris"

// Error classes for the close engine. ErrConfig is fatal for the whole run;
// ErrDataShape is fatal for the detector that raised it, but the run
// continues and the failure surfaces as a risk signal in the gate inputs.
var (
	ErrConfig    = eris.New("config error")
	ErrDataShape = eris.New("data shape error")
)
