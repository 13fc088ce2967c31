package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and remote clients return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: write conflicts with existing state
// - ErrUnavailable: dependency temporarily unreachable (advisory service,
//   screening vendor, registry RPC); absorbed by fallback ladders
// - ErrReverted: registry contract rejected the transaction
// - ErrBatchTooLarge: batched registry write exceeds the contract max
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrUnavailable   = errors.New("unavailable")
	ErrReverted      = errors.New("transaction reverted")
	ErrBatchTooLarge = errors.New("batch exceeds contract max")
)
