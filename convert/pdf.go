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

package convert

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// PDFConverter shells out to Poppler's pdftotext.
type PDFConverter struct {
	binary string
}

// NewPDFConverter creates a converter using pdftotext from PATH.
func NewPDFConverter() *PDFConverter {
	return &PDFConverter{binary: "pdftotext"}
}

// Name returns the converter name
func (p *PDFConverter) Name() string {
	return "pdftotext"
}

// Supports returns true for .pdf
func (p *PDFConverter) Supports(ext string) bool {
	return ext == ".pdf"
}

// Convert runs pdftotext with layout preservation and reads stdout.
func (p *PDFConverter) Convert(ctx context.Context, path string) (string, error) {
	bin, err := exec.LookPath(p.binary)
	if err != nil {
		return "", fmt.Errorf("%w: %s (install poppler-utils)", ErrToolNotFound, p.binary)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "-layout", "-enc", "UTF-8", path, "-")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftotext failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
