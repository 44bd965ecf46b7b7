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

// Package openai implements the ai services on top of OpenAI-compatible
// APIs (OpenAI, Ollama, LocalAI, vLLM) through langchaingo.
//
// Classification and entity extraction use JSON-mode chat completions.
// Responses are stripped of markdown fences, lightly repaired and parsed;
// a malformed response is re-requested up to three times. Transport
// failures are retried with exponential backoff per ai.Config.
//
// # Usage
//
//	config := ai.NewConfig(ai.WithHost("http://localhost:11434"))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "substation maintenance log")
package openai
