package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/padlokk/ignite/internal/manifest"
	"github.com/padlokk/ignite/internal/proof"
)

// cmdVerify loads a single vault artifact and checks it. It tells a
// proof bundle from a manifest by shape: a proof bundle's wire form
// carries a top-level "payload_json" string; a manifest's carries
// top-level "schema_version" and "event" fields.
func cmdVerify(args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		printError(fmt.Sprintf("parsing flags: %v", err))
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		printError("Usage: ignitectl verify <path>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		printError(fmt.Sprintf("reading %s: %v", path, err))
		os.Exit(1)
	}

	var probe struct {
		PayloadJSON   *string `json:"payload_json"`
		SchemaVersion *string `json:"schema_version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		printError(fmt.Sprintf("%s is not valid JSON: %v", path, err))
		os.Exit(1)
	}

	switch {
	case probe.PayloadJSON != nil:
		verifyProof(path, data)
	case probe.SchemaVersion != nil:
		verifyManifest(path, data)
	default:
		printError(fmt.Sprintf("%s does not look like a proof bundle or a manifest", path))
		os.Exit(1)
	}
}

func verifyProof(path string, data []byte) {
	var bundle proof.Bundle
	if err := bundle.UnmarshalJSON(data); err != nil {
		printError(fmt.Sprintf("parsing proof bundle: %v", err))
		os.Exit(1)
	}
	if err := bundle.VerifyFull(time.Now().UTC()); err != nil {
		printSection("proof bundle: FAILED")
		fmt.Printf("  %s\n", err)
		os.Exit(1)
	}
	printSection("proof bundle: OK")
	fmt.Printf("  digest      %s\n", bundle.Digest)
	fmt.Printf("  expires_at  %s\n", bundle.ExpiresAt.Format(time.RFC3339))
}

func verifyManifest(path string, data []byte) {
	m, err := manifest.Parse(data)
	if err != nil {
		printError(fmt.Sprintf("parsing manifest: %v", err))
		os.Exit(1)
	}
	if err := m.VerifyDigest(); err != nil {
		printSection("manifest: FAILED")
		fmt.Printf("  %s\n", err)
		os.Exit(1)
	}
	printSection("manifest: OK")
	fmt.Printf("  event_type    %s\n", m.Event.EventType)
	fmt.Printf("  parent        %s\n", m.Event.ParentFingerprint)
	fmt.Printf("  children      %d\n", len(m.Children))
}
