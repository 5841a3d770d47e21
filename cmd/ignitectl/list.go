package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/padlokk/ignite/internal/keytype"
)

func cmdList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		printError(fmt.Sprintf("parsing flags: %v", err))
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		printError("Usage: ignitectl list <tier>")
		os.Exit(1)
	}

	kt, err := keytype.FromString(fs.Arg(0))
	if err != nil {
		printError(fmt.Sprintf("invalid tier: %v", err))
		os.Exit(1)
	}

	cfg := loadConfig()
	v := openVault(cfg)

	paths, err := v.ListKeys(kt)
	if err != nil {
		printError(fmt.Sprintf("listing keys: %v", err))
		os.Exit(1)
	}

	printSection(fmt.Sprintf("%s keys", kt))
	if len(paths) == 0 {
		fmt.Println("  (none)")
		return
	}
	for _, path := range paths {
		short := strings.TrimSuffix(filepath.Base(path), ".json")
		fmt.Printf("  %s%s%s  %s\n", c.Cyan, short, c.Reset, path)
	}
}
