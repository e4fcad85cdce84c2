// SPDX-License-Identifier: MIT
//
// Copyright (c) 2019 GitHub Inc.
//               2022 Unikraft GmbH.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

const (
	AUTOKERNEL_CONFIG_DIR = "AUTOKERNEL_CONFIG_DIR"
	XDG_CONFIG_HOME       = "XDG_CONFIG_HOME"
	XDG_DATA_HOME         = "XDG_DATA_HOME"
)

// ConfigDir resolves the directory holding config.toml.
//
// Precedence: AUTOKERNEL_CONFIG_DIR, then XDG_CONFIG_HOME, then
// $HOME/.config/autokernel.
func ConfigDir() string {
	if a := os.Getenv(AUTOKERNEL_CONFIG_DIR); a != "" {
		return a
	}
	if b := os.Getenv(XDG_CONFIG_HOME); b != "" {
		return filepath.Join(b, "autokernel")
	}
	d, _ := os.UserHomeDir()
	return filepath.Join(d, ".config", "autokernel")
}

// DataDir resolves the directory for cached, regenerable data (the bridge's
// compiled shared-library cache).
//
// Precedence: XDG_DATA_HOME, then $HOME/.local/share/autokernel.
func DataDir() string {
	if a := os.Getenv(XDG_DATA_HOME); a != "" {
		return filepath.Join(a, "autokernel")
	}
	d, _ := os.UserHomeDir()
	return filepath.Join(d, ".local", "share", "autokernel")
}

// DefaultConfigFile returns the default path for config.toml.
func DefaultConfigFile() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

var ReadConfigFile = func(filename string) ([]byte, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, pathError(err)
	}
	defer f.Close()

	return io.ReadAll(f)
}

var WriteConfigFile = func(filename string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o771); err != nil {
		return pathError(err)
	}

	f, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(data)
	return err
}

func pathError(err error) error {
	var perr *os.PathError
	if errors.As(err, &perr) && errors.Is(perr.Err, syscall.ENOTDIR) {
		if p := findRegularFile(perr.Path); p != "" {
			return fmt.Errorf("remove or rename regular file `%s` (must be a directory)", p)
		}
	}
	return err
}

func findRegularFile(p string) string {
	for {
		if s, err := os.Stat(p); err == nil && s.Mode().IsRegular() {
			return p
		}
		newPath := filepath.Dir(p)
		if newPath == p || newPath == string(filepath.Separator) || newPath == "." {
			break
		}
		p = newPath
	}
	return ""
}
