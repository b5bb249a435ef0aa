package interfaces

import (
	"context"

	"github.com/obinexuscomputing/fork/pkg/domain/model"
)

// ForkUseCase turns the asynchronous fork operation into a ready fork
type ForkUseCase interface {
	// Fork creates (or finds) the fork of source in target and waits until it
	// is ready. The result is always non-nil; the error is set for Rejected
	// and TimedOut.
	Fork(ctx context.Context, source model.SourceRef, target model.ForkTarget) (*model.ForkResult, error)
}

// ReleaseUseCase ensures a fork carries at least one release
type ReleaseUseCase interface {
	// EnsureRelease returns the release the fork has, existing or created.
	// Created is true only when this call created it.
	EnsureRelease(ctx context.Context, fork *model.ForkResult, spec model.ReleaseSpec) (*model.ReleaseResult, error)
}

// ImportUseCase mirrors a repository into the secondary host
type ImportUseCase interface {
	Import(ctx context.Context, cloneURL, namespace, name string) (*model.ImportResult, error)
}
