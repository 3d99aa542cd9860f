// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command contract-proxy runs a reverse proxy which validates calls to
// an upstream service against a contract file.
package main

import (
	"context"
	"os"
)

func main() {
	err := newRootCmd().ExecuteContext(context.Background())
	if err != nil {
		os.Exit(1)
	}
}
