// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Unikraft GmbH. All rights reserved.
package kconfig

import "testing"

func TestRoundTrip(t *testing.T) {
	cf := NewDotConfigFile()
	cf.Set("NET", "y")
	cf.Set("WLAN", "m")
	cf.Set("FOO", "n")

	data := cf.Serialize()

	reparsed, err := ParseConfigData(data, "<memory>")
	if err != nil {
		t.Fatalf("ParseConfigData failed: %v", err)
	}

	for _, name := range []string{"NET", "WLAN", "FOO"} {
		if got, want := reparsed.Value(name), cf.Value(name); got != want {
			t.Errorf("round-trip mismatch for %s: got %q want %q", name, got, want)
		}
	}
}

func TestDiffConfigsOrderIndependent(t *testing.T) {
	a, _ := ParseConfigData([]byte("CONFIG_NET=y\nCONFIG_WLAN=m\n"), "a")
	b, _ := ParseConfigData([]byte("CONFIG_WLAN=m\nCONFIG_NET=y\n"), "b")

	if d := DiffConfigs(a, b); !d.Empty() {
		t.Fatalf("expected no diff between reordered identical configs, got %+v", d)
	}
}

func TestDiffConfigsChanges(t *testing.T) {
	a, _ := ParseConfigData([]byte("CONFIG_NET=y\n# CONFIG_WLAN is not set\n"), "a")
	b, _ := ParseConfigData([]byte("CONFIG_NET=m\nCONFIG_WLAN=y\nCONFIG_NEW=y\n"), "b")

	d := DiffConfigs(a, b)
	if len(d.Added) != 1 || d.Added[0].Name != "NEW" {
		t.Errorf("expected NEW added, got %+v", d.Added)
	}
	if len(d.Changed) != 2 {
		t.Errorf("expected 2 changes, got %+v", d.Changed)
	}
}
