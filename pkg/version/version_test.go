// Copyright (C) 2025 SAGE-X Project
//
// This file is part of sage-beckn-go.
//
// sage-beckn-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// sage-beckn-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with sage-beckn-go.  If not, see <https://www.gnu.org/licenses/>.

package version

import (
	"testing"

	"github.com/sage-x-project/sage-beckn-go/pkg/protocol"
	"github.com/stretchr/testify/assert"
)

func TestVersionConstants(t *testing.T) {
	// Verify version constants are not empty
	assert.NotEmpty(t, Version, "Version should not be empty")
	assert.NotEmpty(t, BecknCoreVersion, "BecknCoreVersion should not be empty")
	assert.NotEmpty(t, SAGEVersion, "SAGEVersion should not be empty")

	// Verify expected values
	assert.Equal(t, "1.1.0", BecknCoreVersion)
	assert.Equal(t, "1.3.1", SAGEVersion)
}

func TestBecknCoreVersionMatchesProtocolDefault(t *testing.T) {
	assert.Equal(t, protocol.DefaultCoreVersion, BecknCoreVersion)
}

func TestGet(t *testing.T) {
	info := Get()

	assert.Equal(t, Version, info.SageBecknVersion)
	assert.Equal(t, BecknCoreVersion, info.BecknCoreVersion)
	assert.Equal(t, SAGEVersion, info.SAGEVersion)
}

func TestInfoString(t *testing.T) {
	info := Info{
		SageBecknVersion: "test-version",
		BecknCoreVersion: "1.1.0",
		SAGEVersion:      "1.3.1",
	}

	assert.Equal(t, "sage-beckn-go test-version (beckn core 1.1.0, sage 1.3.1)", info.String())
}
