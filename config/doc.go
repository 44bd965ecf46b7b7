// Copyright 2025 Poiesic Systems
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

// Package config loads docflow settings.
//
// Settings are layered: DefaultConfig, then a TOML file (Load), then
// DOCFLOW_* environment variables (ApplyEnv, after LoadEnv reads a .env
// file), then command-line flags applied by the caller through Options.
// Normalize and Validate run last.
//
// Example docflow.toml:
//
//	log_level = "info"
//
//	[pipeline]
//	watch_directories = ["/srv/inbox"]
//	supported_extensions = [".md", ".txt", ".pdf"]
//	recursive = true
//	batch_size = 10
//	parallel_workers = 4
//	check_interval_seconds = 1
//	duration = 0
//
//	[storage]
//	path = "/var/lib/docflow"
//
//	[ai]
//	classifier_model = "qwen2.5:3b"
package config
