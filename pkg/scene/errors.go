package scene

import (
	"context"
	"errors"

	"github.com/chazu/luxframe/pkg/assets"
)

// Precondition failures. The operation was not attempted and no state
// changed.
var (
	ErrUnknownObject       = errors.New("unknown object")
	ErrUnknownCode         = errors.New("unknown catalog code")
	ErrMissingMesh         = errors.New("object has no mesh")
	ErrAlreadyAttached     = errors.New("object is already attached")
	ErrSelfAttach          = errors.New("cannot attach an object to itself")
	ErrSlotOccupied        = errors.New("junction slot is occupied")
	ErrNotSingleConnection = errors.New("object must be attached to exactly one other object")
	ErrOnCurve             = errors.New("object is mounted on a curve")
	ErrNotLight            = errors.New("object is not a light")
	ErrNoCurve             = errors.New("no such curve")
	ErrNoParentCurve       = errors.New("light is not mounted on any curve")
)

// ErrNoCompatibleJunction means no junction pair shares a group.
var ErrNoCompatibleJunction = errors.New("no compatible junctions found")

// ErrInsufficientSpace means the curve has no position that keeps the
// minimum light spacing.
var ErrInsufficientSpace = errors.New("insufficient space on the profile: try another point on the profile")

// ErrLoad wraps failures of the asset loader.
var ErrLoad = errors.New("model load failed")

// FailureKind groups errors by how the caller should report them.
type FailureKind int

const (
	FailureUnknown FailureKind = iota
	FailurePrecondition
	FailureIncompatible
	FailureCapacity
	FailureLoad
)

func (k FailureKind) String() string {
	switch k {
	case FailurePrecondition:
		return "precondition"
	case FailureIncompatible:
		return "incompatible"
	case FailureCapacity:
		return "capacity"
	case FailureLoad:
		return "load"
	default:
		return "unknown"
	}
}

var preconditions = []error{
	ErrUnknownObject,
	ErrUnknownCode,
	ErrMissingMesh,
	ErrAlreadyAttached,
	ErrSelfAttach,
	ErrSlotOccupied,
	ErrNotSingleConnection,
	ErrOnCurve,
	ErrNotLight,
	ErrNoCurve,
	ErrNoParentCurve,
}

// Classify maps an error returned by this package to its FailureKind.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return FailureUnknown
	case errors.Is(err, ErrInsufficientSpace):
		return FailureCapacity
	case errors.Is(err, ErrNoCompatibleJunction):
		return FailureIncompatible
	case errors.Is(err, ErrLoad),
		errors.Is(err, assets.ErrNotFound),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return FailureLoad
	}
	for _, p := range preconditions {
		if errors.Is(err, p) {
			return FailurePrecondition
		}
	}
	return FailureUnknown
}
