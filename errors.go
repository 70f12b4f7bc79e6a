package nbem

import "errors"

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrEmptyCorpus indicates zero records where at least one is required,
	// such as the denominator of an accuracy computation.
	ErrEmptyCorpus = errors.New("nbem: empty corpus")

	// ErrNoLabeledRecords indicates the training data has no labeled records
	// to seed a model from.
	ErrNoLabeledRecords = errors.New("nbem: no labeled training records")

	// ErrUnknownClass marks a ground-truth class the model was never trained
	// on. Evaluation counts such records as misses rather than failing.
	ErrUnknownClass = errors.New("nbem: unknown class")

	// ErrLengthMismatch indicates predictions and ground truth differ in length.
	ErrLengthMismatch = errors.New("nbem: predictions and ground truth differ in length")

	// ErrInvalidSnapshot indicates a model snapshot could not be decoded.
	ErrInvalidSnapshot = errors.New("nbem: invalid model snapshot")
)
