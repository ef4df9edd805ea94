package errors

import "fmt"

func InvalidParamsErr(err error) error {
	return E(Invalid, "invalid params", err)
}

func InvalidRecordErr(err error) error {
	return E(Invalid, "invalid record", err)
}

func ValidationFailedErr(err error) error {
	return E(Invalid, "validation failed", err)
}

func EmptyParamErr(field string) error {
	ve := ValidationErrs()
	ve.Add(field, "cannot be empty")
	return E(Invalid, "validation failed", ve.Err())
}

func NotFoundErr(what string) error {
	return E(NotFound, fmt.Sprintf("%s not found", what), nil)
}

// TransientErr marks a failure that is worth retrying (timeouts, throttling, broker hiccups).
func TransientErr(op string, err error) error {
	return E(Transient, op, err)
}

// StageFailedErr returns a formatted error for a failed pipeline stage
func StageFailedErr(runID, stage string, err error) error {
	return E(Internal, fmt.Sprintf("pipeline run %s failed at %s", runID, stage), err)
}
