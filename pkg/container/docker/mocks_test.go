// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package docker

import (
	"context"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
)

// fakeDockerAPI provides a minimal test double for dockerAPI used by Client.
type fakeDockerAPI struct {
	pingFunc func(ctx context.Context) (types.Ping, error)
	listFunc func(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
}

func (f *fakeDockerAPI) Ping(ctx context.Context) (types.Ping, error) {
	if f.pingFunc != nil {
		return f.pingFunc(ctx)
	}
	return types.Ping{}, nil
}

func (f *fakeDockerAPI) ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error) {
	if f.listFunc != nil {
		return f.listFunc(ctx, options)
	}
	return nil, nil
}
