// Copyright 2026 The inferbatch Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command inferbatch runs a demo batching-facade server in front of an
// in-process reference engine.
//
// Usage:
//
//	inferbatch serve           # Start the demo server
package main

import "github.com/antfly-labs/inferbatch/cmd/inferbatch/cmd"

// version is set at build time via ldflags.
var version = "dev"

func main() {
	cmd.Version = version
	cmd.Execute()
}
