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

// Package version exposes the library version and the protocol versions it targets.
package version

const (
	// Version is the current version of sage-beckn-go
	Version = "0.1.0-dev"

	// BecknCoreVersion is the Beckn core protocol version sent in every context
	BecknCoreVersion = "1.1.0"

	// SAGEVersion is the SAGE core version required
	SAGEVersion = "1.3.1"
)

// Info contains version information
type Info struct {
	SageBecknVersion string `json:"sage_beckn_version"`
	BecknCoreVersion string `json:"beckn_core_version"`
	SAGEVersion      string `json:"sage_version"`
}

// Get returns version information
func Get() Info {
	return Info{
		SageBecknVersion: Version,
		BecknCoreVersion: BecknCoreVersion,
		SAGEVersion:      SAGEVersion,
	}
}

// String returns a one-line summary, e.g. for -version flags
func (i Info) String() string {
	return "sage-beckn-go " + i.SageBecknVersion + " (beckn core " + i.BecknCoreVersion + ", sage " + i.SAGEVersion + ")"
}
